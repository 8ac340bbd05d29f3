package util

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"golang.org/x/net/netutil"
)

// CreateListener creates a net.Listener on the given address. When maxConns is
// positive, at most maxConns accepted connections are open at any time; further
// Accept calls block until one of them is closed.
func CreateListener(network, address string, maxConns int) (net.Listener, error) {
	if network != "tcp" && network != "tcp4" && network != "tcp6" {
		return nil, fmt.Errorf("unsupported network type: %s, only 'tcp', 'tcp4', or 'tcp6' are supported for CreateListener", network)
	}
	if maxConns < 0 {
		return nil, fmt.Errorf("maxConns cannot be negative, got %d", maxConns)
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on %s %s: %w", network, address, err)
	}
	if maxConns > 0 {
		listener = netutil.LimitListener(listener, maxConns)
	}
	return listener, nil
}

// IsAddrInUse checks if the error indicates an "address already in use" condition.
func IsAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) && sysErr.Err == syscall.EADDRINUSE {
		return true
	}
	// Fallback for errors that only carry the condition in their text.
	return strings.Contains(strings.ToLower(err.Error()), "address already in use")
}
