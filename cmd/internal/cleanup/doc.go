// Package cleanup runs periodic sweeps that reclaim expired handshake and user sessions.
package cleanup
