package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

// Claims is the identity envelope carried by a bearer token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string, now time.Time) (Claims, error)
}

// TokenIssuer signs bearer tokens. The vault only issues when renewing on heartbeat
// and from vaultctl for local development.
type TokenIssuer interface {
	Issue(userID, tokenID string, now time.Time, ttl time.Duration) (token string, exp time.Time, err error)
	CanIssue() bool
}

// PasetoV4 verifies (and optionally signs) PASETO v4.public tokens.
type PasetoV4 struct {
	issuer    string
	clockSkew time.Duration

	public paseto.V4AsymmetricPublicKey
	secret *paseto.V4AsymmetricSecretKey
}

// NewPasetoV4 builds a PasetoV4 from cfg. The secret key is optional; when only the
// secret is configured the public key is derived from it.
func NewPasetoV4(cfg Config) (*PasetoV4, error) {
	p := &PasetoV4{issuer: cfg.Issuer, clockSkew: cfg.ClockSkew}

	if cfg.PasetoV4SecretKeyHex != "" {
		secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
		if err != nil {
			return nil, ErrConfig
		}
		p.secret = &secret
		p.public = secret.Public()
	}

	if cfg.PasetoV4PublicKeyHex != "" {
		public, err := paseto.NewV4AsymmetricPublicKeyFromHex(cfg.PasetoV4PublicKeyHex)
		if err != nil {
			return nil, ErrConfig
		}
		if p.secret != nil && public.ExportHex() != p.public.ExportHex() {
			return nil, ErrConfig
		}
		p.public = public
	}

	if p.secret == nil && cfg.PasetoV4PublicKeyHex == "" {
		return nil, ErrConfig
	}
	return p, nil
}

// PublicKeyHex returns the verification key.
func (p *PasetoV4) PublicKeyHex() string {
	return p.public.ExportHex()
}

// CanIssue reports whether a signing key is configured.
func (p *PasetoV4) CanIssue() bool { return p.secret != nil }

// Issue signs a token for userID with the given jti.
func (p *PasetoV4) Issue(userID, tokenID string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if p.secret == nil {
		return "", time.Time{}, ErrIssuerDisabled
	}
	exp := now.Add(ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(p.issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)
	tok.SetJti(tokenID)
	_ = tok.Set("uid", userID)

	return tok.V4Sign(*p.secret, nil), exp, nil
}

// Verify parses and validates token at now.
func (p *PasetoV4) Verify(token string, now time.Time) (Claims, error) {
	// Validate slightly in the future so a skewed "nbf" still passes.
	validNow := now.Add(p.clockSkew)

	// Fresh parser per call; rules accumulate otherwise. Expiry is judged by ValidAt
	// against now, never the wall clock.
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(p.issuer))
	parser.AddRule(paseto.ValidAt(validNow))

	parsed, err := parser.ParseV4Public(p.public, token, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	iss, _ := parsed.GetIssuer()
	exp, _ := parsed.GetExpiration()
	iat, _ := parsed.GetIssuedAt()

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return Claims{}, ErrInvalidToken
	}
	jti, err := parsed.GetJti()
	if err != nil || jti == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:    uid,
		TokenID:   jti,
		ExpiresAt: exp,
		IssuedAt:  iat,
		Issuer:    iss,
	}, nil
}
