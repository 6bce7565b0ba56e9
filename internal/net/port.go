// Package net has small networking helpers for the launcher.
package net

import (
	"fmt"
	"net"
)

// GetEphemeralTCPPort asks the kernel for a free TCP port on localhost. The
// listener is closed before returning so the port can be handed to a browser
// process about to bind it; a racing process could still grab it, so callers
// should treat a later bind failure as retryable.
func GetEphemeralTCPPort() (int, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("listening to acquire port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
