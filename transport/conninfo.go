package transport

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/ndncomm/ndn-go/ndn"
)

// Default endpoints probed by DefaultConnInfo.
const (
	DefaultUnixSocket   = "/var/run/nfd.sock"
	FallbackUnixSocket  = "/tmp/.ndnd.sock"
	DefaultTcpPort      = 6363
	DefaultWsPort       = 9696
	DefaultLoopbackHost = "127.0.0.1"
)

// ConnInfo describes how to reach a forwarder.
type ConnInfo struct {
	// Scheme is one of unix, tcp, tcp4, tcp6, ws, wss.
	Scheme string
	// Host is the remote host for tcp/ws schemes.
	Host string
	// Port is the remote port for tcp/ws schemes.
	Port uint16
	// Path is the socket path (unix) or URL path (ws).
	Path string
}

func (ci ConnInfo) String() string {
	switch ci.Scheme {
	case "unix":
		return "unix://" + ci.Path
	case "ws", "wss":
		return fmt.Sprintf("%s://%s%s", ci.Scheme, net.JoinHostPort(ci.Host, strconv.Itoa(int(ci.Port))), ci.Path)
	default:
		return fmt.Sprintf("%s://%s", ci.Scheme, net.JoinHostPort(ci.Host, strconv.Itoa(int(ci.Port))))
	}
}

// IsLocal reports whether the endpoint is on this host. It may block to
// resolve a hostname.
func (ci ConnInfo) IsLocal() (bool, error) {
	if ci.Scheme == "unix" {
		return true, nil
	}
	ips, err := net.LookupIP(ci.Host)
	if err != nil {
		return false, err
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			return true, nil
		}
	}
	return false, nil
}

// ParseConnInfo parses a transport URI like unix:///var/run/nfd.sock,
// tcp://host:6363 or ws://host:9696/.
func ParseConnInfo(uri string) (ConnInfo, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return ConnInfo{}, ndn.ErrInvalidValue{Item: "transport uri", Value: uri}
	}

	switch u.Scheme {
	case "unix":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return ConnInfo{}, ndn.ErrInvalidValue{Item: "unix socket path", Value: uri}
		}
		return ConnInfo{Scheme: "unix", Path: path}, nil
	case "tcp", "tcp4", "tcp6", "ws", "wss":
		host := u.Hostname()
		if host == "" {
			return ConnInfo{}, ndn.ErrInvalidValue{Item: "host", Value: uri}
		}
		port := uint16(DefaultTcpPort)
		if u.Scheme == "ws" || u.Scheme == "wss" {
			port = DefaultWsPort
		}
		if p := u.Port(); p != "" {
			pv, err := strconv.ParseUint(p, 10, 16)
			if err != nil {
				return ConnInfo{}, ndn.ErrInvalidValue{Item: "port", Value: uri}
			}
			port = uint16(pv)
		}
		return ConnInfo{Scheme: u.Scheme, Host: host, Port: port, Path: u.Path}, nil
	default:
		return ConnInfo{}, ndn.ErrInvalidValue{Item: "transport scheme", Value: uri}
	}
}

// DefaultConnInfo yields a platform-appropriate default endpoint: the
// first NFD unix socket that exists, else loopback TCP.
func DefaultConnInfo() ConnInfo {
	for _, path := range []string{DefaultUnixSocket, FallbackUnixSocket} {
		if st, err := os.Stat(path); err == nil && st.Mode()&os.ModeSocket != 0 {
			return ConnInfo{Scheme: "unix", Path: path}
		}
	}
	return ConnInfo{Scheme: "tcp", Host: DefaultLoopbackHost, Port: DefaultTcpPort}
}

// NewFace constructs the face variant selected by the ConnInfo scheme.
func NewFace(ci ConnInfo) (ndn.Face, error) {
	local, err := ci.IsLocal()
	if err != nil {
		return nil, err
	}

	switch ci.Scheme {
	case "unix":
		return NewStreamFace("unix", ci.Path, true), nil
	case "tcp", "tcp4", "tcp6":
		return NewStreamFace(ci.Scheme, net.JoinHostPort(ci.Host, strconv.Itoa(int(ci.Port))), local), nil
	case "ws", "wss":
		return NewWebSocketFace(ci.String(), local), nil
	default:
		return nil, ndn.ErrInvalidValue{Item: "transport scheme", Value: ci.Scheme}
	}
}
