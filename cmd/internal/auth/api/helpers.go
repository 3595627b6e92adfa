package authapi

import (
	"strings"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/auth/session"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/handshake"
	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/vault"
)

func toSessionResponse(s session.ActiveSession) sessionResponse {
	return sessionResponse{
		ID:               s.ID,
		IPAddress:        s.IPAddress,
		Browser:          s.Browser,
		OperatingSystem:  s.OperatingSystem,
		DeviceType:       s.DeviceType,
		Location:         s.Location,
		CreatedAt:        s.CreatedAt,
		LastActivityAt:   s.LastActivityAt,
		ExpiresAt:        s.ExpiresAt,
		IsCurrentSession: s.IsCurrentSession,
	}
}

// sealNote encrypts a note's fields toward the client. Empty fields stay empty.
func sealNote(ch *handshake.Channel, n vault.Note) (noteResponse, error) {
	title, err := sealField(ch, n.Title)
	if err != nil {
		return noteResponse{}, err
	}
	content, err := sealField(ch, n.Content)
	if err != nil {
		return noteResponse{}, err
	}
	return noteResponse{
		ID:        n.ID,
		Title:     title,
		Content:   content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}, nil
}

func sealField(ch *handshake.Channel, plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	return ch.Encrypt(plain)
}

func openField(ch *handshake.Channel, cipherBase64 string) (string, error) {
	if cipherBase64 == "" {
		return "", nil
	}
	return ch.Decrypt(cipherBase64)
}

// sealPassword encrypts every present field of a password entry toward the client.
func sealPassword(ch *handshake.Channel, e vault.PasswordEntry) (passwordResponse, error) {
	out := passwordResponse{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
	for _, f := range []struct {
		dst   *string
		plain string
	}{
		{&out.SiteName, e.SiteName},
		{&out.Username, e.Username},
		{&out.Password, e.Password},
		{&out.URL, e.URL},
	} {
		v, err := sealField(ch, f.plain)
		if err != nil {
			return passwordResponse{}, err
		}
		*f.dst = v
	}

	var err error
	if out.ServerIP, err = sealOptionalField(ch, e.ServerIP); err != nil {
		return passwordResponse{}, err
	}
	if out.Hostname, err = sealOptionalField(ch, e.Hostname); err != nil {
		return passwordResponse{}, err
	}
	if out.Notes, err = sealOptionalField(ch, e.Notes); err != nil {
		return passwordResponse{}, err
	}
	return out, nil
}

func sealOptionalField(ch *handshake.Channel, plain *string) (*string, error) {
	if plain == nil {
		return nil, nil
	}
	v, err := sealField(ch, *plain)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func openOptionalField(ch *handshake.Channel, cipherBase64 *string) (*string, error) {
	if cipherBase64 == nil {
		return nil, nil
	}
	v, err := openField(ch, strings.TrimSpace(*cipherBase64))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
