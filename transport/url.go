package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/arloliu/go-julabo/protocol"
)

// ErrUnsupportedScheme is returned by ForURL for schemes without a transport.
var ErrUnsupportedScheme = errors.New("julabo: unsupported transport scheme")

// ForURL creates the transport for rawURL. The transport is not opened.
//
// Supported forms:
//
//	/dev/ttyUSB0 or serial:///dev/ttyUSB0  local serial line
//	tcp://host:port                         raw TCP
//	serial-tcp://host:port                  serial-to-ethernet converter
func ForURL(rawURL string, opts ...Option) (protocol.Transport, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("julabo: empty transport url")
	}

	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "serial:") {
		return NewSerial(rawURL, opts...)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("julabo: invalid transport url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "serial":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		return NewSerial(path, opts...)
	case "tcp", "serial-tcp":
		if u.Port() == "" {
			return nil, fmt.Errorf("julabo: %s url %q has no port", u.Scheme, rawURL)
		}
		return NewTCP(u.Host, opts...)
	case "rfc2217":
		return nil, fmt.Errorf("%w: %s (use serial-tcp with a raw socket converter)", ErrUnsupportedScheme, u.Scheme)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}
