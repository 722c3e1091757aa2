package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

// hop is one attempt of a request. Redirects produce new hops.
type hop struct {
	method  string
	url     *neturl.URL
	headers *headers.HeaderSet
	body    []byte
	hasBody bool
	// connectTo is the host:port to dial instead of the URL's, if set.
	connectTo string
}

// resolveTarget parses the request URL. A URL without a host takes it from
// the Host header, which is popped; http is assumed when it has no scheme.
// Query assignments are appended in order.
func resolveTarget(req *compiler.CompiledRequest, h *headers.HeaderSet) (*neturl.URL, error) {
	u, err := neturl.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	if u.Host == "" {
		host, _ := h.Pop("Host")
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		u, err = neturl.Parse(host + req.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %v", err)
		}
	}

	if err := ValidateURL(u); err != nil {
		return nil, err
	}

	if len(req.Query) > 0 {
		q := compiler.EncodeAssignments(req.Query)
		if u.RawQuery != "" {
			u.RawQuery += "&" + q
		} else {
			u.RawQuery = q
		}
	}

	return u, nil
}

// ValidateURL checks that a URL uses http or https and has a host.
func ValidateURL(u *neturl.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// dialAddress returns host:port to connect to for the hop.
func (hp *hop) dialAddress() string {
	u := hp.url
	if hp.connectTo != "" {
		u = &neturl.URL{Scheme: hp.url.Scheme, Host: hp.connectTo}
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// serverName is the TLS SNI value: the virtual host without its port.
func (hp *hop) serverName() string {
	return hp.url.Hostname()
}

// transportOwned are written by net/http itself and must use canonical keys
// or they would be sent twice.
var transportOwned = map[string]bool{
	"User-Agent":        true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Trailer":           true,
}

// build converts the hop into a net/http request. The Host entry becomes
// req.Host; a missing User-Agent is sent as none at all rather than Go's
// default.
func (hp *hop) build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if hp.hasBody {
		body = bytes.NewReader(hp.body)
	}

	req, err := http.NewRequestWithContext(ctx, hp.method, hp.url.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header = make(http.Header)
	for _, e := range hp.headers.Entries() {
		key := http.CanonicalHeaderKey(e.Name)
		switch {
		case key == "Host":
			req.Host = e.Value
		case transportOwned[key]:
			req.Header.Add(key, e.Value)
		default:
			// Keyed as written so the declared case reaches the wire.
			req.Header[e.Name] = append(req.Header[e.Name], e.Value)
		}
	}
	if !hp.headers.Has("User-Agent") {
		req.Header.Set("User-Agent", "")
	}

	return req, nil
}
