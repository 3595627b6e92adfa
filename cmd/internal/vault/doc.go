// Package vault stores user notes and password entries encrypted at rest.
//
// Service and PasswordService accept and return plaintext; only storage-cipher tokens reach
// the stores.
// Transport encryption toward the client is the HTTP layer's concern.
package vault
