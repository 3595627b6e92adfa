// Package session tracks authenticated devices for the vault.
//
// Every bearer token (identified by its jti) maps to one UserSession row that records
// the device, its last activity and an absolute expiry. A session is usable while it is
// active, not revoked, before its absolute expiry and touched within the inactivity
// timeout. Evaluate is the single place that predicate lives; heartbeat, validation,
// listing and the cleanup sweep all go through it or through the equivalent SQL.
//
// Token issuance belongs to the identity service; this package only verifies
// PASETO v4.public tokens and, when a signing key is configured, re-issues them.
package session
