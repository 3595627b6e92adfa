// Package main provides a CI-friendly smoke test for a running vault server.
//
// It validates:
//   - handshake initiate + complete with a client RSA key
//   - encrypted note create, list and read back
//   - encrypted password entry create and delete
//   - heartbeat on the current device session
//   - note delete and handshake invalidation
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/security/rsacrypto"
)

type smokeClient struct {
	base    string
	token   string
	http    *http.Client
	timeout time.Duration
	verbose bool

	handshakeID string
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "vault base URL")
		token   = flag.String("token", os.Getenv("VAULT_SMOKE_TOKEN"), "bearer token (see vaultctl token issue)")
		title   = flag.String("title", "smoke note", "note title")
		content = flag.String("content", "hello vault 🔐", "note content")
		timeout = flag.Duration("timeout", 10*time.Second, "per-step timeout")
		verbose = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if strings.TrimSpace(*token) == "" {
		fatalf("missing -token (or VAULT_SMOKE_TOKEN)")
	}

	root := context.Background()
	engine := rsacrypto.NewEngine()

	clientKey, err := engine.GenerateKeyPair(root, rsacrypto.DefaultKeyBits)
	if err != nil {
		fatalf("client keygen: %v", err)
	}
	clientPEM, err := rsacrypto.ExportPublicKeyPEM(&clientKey.PublicKey)
	if err != nil {
		fatalf("export client key: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		token:   strings.TrimSpace(*token),
		http:    &http.Client{},
		timeout: *timeout,
		verbose: *verbose,
	}

	var initiated struct {
		SessionID       string `json:"sessionId"`
		ServerPublicKey string `json:"serverPublicKey"`
	}
	c.mustDo(root, http.MethodPost, "/auth/handshake/initiate", nil, http.StatusOK, &initiated)
	if initiated.SessionID == "" {
		fatalf("initiate: missing sessionId")
	}
	serverKey, err := rsacrypto.ImportPublicKeyPEM(initiated.ServerPublicKey)
	if err != nil {
		fatalf("initiate: bad server key: %v", err)
	}
	c.handshakeID = initiated.SessionID

	c.mustDo(root, http.MethodPost, "/auth/handshake/complete", map[string]string{
		"sessionId":       initiated.SessionID,
		"clientPublicKey": clientPEM,
	}, http.StatusOK, nil)

	seal := func(s string) string {
		out, err := engine.Encrypt(s, serverKey)
		if err != nil {
			fatalf("encrypt: %v", err)
		}
		return out
	}
	open := func(s string) string {
		if s == "" {
			return ""
		}
		out, err := engine.Decrypt(s, clientKey)
		if err != nil {
			fatalf("decrypt: %v", err)
		}
		return out
	}

	type note struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}

	var created note
	c.mustDo(root, http.MethodPost, "/notes", map[string]string{
		"title":   seal(*title),
		"content": seal(*content),
	}, http.StatusCreated, &created)
	if got := open(created.Title); got != *title {
		fatalf("create: title round-trip mismatch: %q", got)
	}

	var list struct {
		Notes []note `json:"notes"`
	}
	c.mustDo(root, http.MethodGet, "/notes", nil, http.StatusOK, &list)
	found := false
	for _, n := range list.Notes {
		if n.ID == created.ID {
			found = open(n.Content) == *content
		}
	}
	if !found {
		fatalf("list: note %s missing or content mismatch", created.ID)
	}

	var entry struct {
		ID       string  `json:"id"`
		Password string  `json:"password"`
		Notes    *string `json:"notes"`
	}
	c.mustDo(root, http.MethodPost, "/passwords", map[string]any{
		"siteName": seal("smoke"),
		"username": seal("smoke-user"),
		"password": seal(*content),
	}, http.StatusCreated, &entry)
	if got := open(entry.Password); got != *content || entry.Notes != nil {
		fatalf("password create: round-trip mismatch: %q notes=%v", got, entry.Notes)
	}
	c.mustDo(root, http.MethodDelete, "/passwords/"+entry.ID, nil, http.StatusNoContent, nil)

	var hb struct {
		IsValid bool `json:"isValid"`
	}
	c.mustDo(root, http.MethodPost, "/sessions/heartbeat", nil, http.StatusOK, &hb)
	if !hb.IsValid {
		fatalf("heartbeat: session reported invalid")
	}

	c.mustDo(root, http.MethodDelete, "/notes/"+created.ID, nil, http.StatusNoContent, nil)
	c.mustDo(root, http.MethodGet, "/notes/"+created.ID, nil, http.StatusNotFound, nil)

	c.mustDo(root, http.MethodPost, "/auth/handshake/invalidate/"+initiated.SessionID, nil, http.StatusOK, nil)
	c.mustDo(root, http.MethodGet, "/notes", nil, http.StatusBadRequest, nil)

	fmt.Printf("OK: handshake=%s note=%s password=%s\n", initiated.SessionID, created.ID, entry.ID)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *smokeClient) mustDo(parent context.Context, method, path string, body any, wantStatus int, out any) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fatalf("%s %s: marshal: %v", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "vault-smoke/1")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.handshakeID != "" {
		req.Header.Set("X-Session-Id", c.handshakeID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}
	if c.verbose {
		fmt.Printf("%s %s -> %d\n", method, path, resp.StatusCode)
	}
	if resp.StatusCode != wantStatus {
		fatalf("%s %s: status=%d want=%d body=%s", method, path, resp.StatusCode, wantStatus, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
