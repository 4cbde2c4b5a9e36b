package socket

import (
	"fmt"
	"net"
)

// ListenAddress is the tagged Listen Address entity from §3: either a list
// of IP socket addresses or a Unix domain socket path. It is immutable
// once constructed at server build time.
type ListenAddress struct {
	tcpAddrs []string // e.g. "0.0.0.0:8080", "[::1]:8080"
	unixPath string
}

// TCP builds a Listen Address bound to one or more TCP host:port strings.
func TCP(addrs ...string) ListenAddress {
	return ListenAddress{tcpAddrs: addrs}
}

// Unix builds a Listen Address bound to a single Unix domain socket path.
func Unix(path string) ListenAddress {
	return ListenAddress{unixPath: path}
}

// IsUnix reports whether this address names a Unix domain socket.
func (a ListenAddress) IsUnix() bool { return a.unixPath != "" }

func (a ListenAddress) String() string {
	if a.IsUnix() {
		return "unix:" + a.unixPath
	}
	return fmt.Sprintf("tcp:%v", a.tcpAddrs)
}

// Bind opens one net.Listener per address named by a. TCP addresses each
// get their own listener (the servers run one accept loop per listener);
// a Unix address yields exactly one.
func Bind(a ListenAddress) ([]net.Listener, error) {
	if a.IsUnix() {
		l, err := net.Listen("unix", a.unixPath)
		if err != nil {
			return nil, fmt.Errorf("socket: bind unix %q: %w", a.unixPath, err)
		}
		return []net.Listener{l}, nil
	}

	if len(a.tcpAddrs) == 0 {
		return nil, fmt.Errorf("socket: no listen address configured")
	}

	listeners := make([]net.Listener, 0, len(a.tcpAddrs))
	for _, addr := range a.tcpAddrs {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			for _, opened := range listeners {
				opened.Close()
			}
			return nil, fmt.Errorf("socket: bind tcp %q: %w", addr, err)
		}
		listeners = append(listeners, l)
	}
	return listeners, nil
}
