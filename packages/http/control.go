package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

// Control headers. They are matched case-insensitively and never sent.
const (
	HeaderConnectTimeout  = "Hitblock-Connect-Timeout"
	HeaderTimeout         = "Hitblock-Timeout"
	HeaderClientCert      = "Hitblock-Client-Cert"
	HeaderClientKey       = "Hitblock-Client-Key"
	HeaderConnect         = "Hitblock-Connect"
	HeaderFollowRedirects = "Hitblock-Follow-Redirects"

	// curlHintPrefix marks hints for curl command generation.
	curlHintPrefix = "Hitblock-Curl-"
)

// Control is the execution configuration of one request.
type Control struct {
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	ClientCert      string
	ClientKey       string
	ConnectTo       string
	FollowRedirects bool
}

// ExtractControl pops every control header from h and returns the resulting
// configuration on top of defaults.
func ExtractControl(h *headers.HeaderSet, defaults Control) (Control, error) {
	ctl := defaults

	h.PopPrefix(curlHintPrefix)

	if v, ok := h.Pop(HeaderConnectTimeout); ok {
		d, err := parseSeconds(v)
		if err != nil {
			return ctl, &ControlHeaderError{Header: HeaderConnectTimeout, Value: v, Err: err}
		}
		ctl.ConnectTimeout = d
	}

	if v, ok := h.Pop(HeaderTimeout); ok {
		d, err := parseSeconds(v)
		if err != nil {
			return ctl, &ControlHeaderError{Header: HeaderTimeout, Value: v, Err: err}
		}
		ctl.ReadTimeout = d
	}

	if v, ok := h.Pop(HeaderClientCert); ok {
		ctl.ClientCert = v
	}
	if v, ok := h.Pop(HeaderClientKey); ok {
		ctl.ClientKey = v
	}

	if v, ok := h.Pop(HeaderConnect); ok {
		if _, _, err := parseConnectTo(v); err != nil {
			return ctl, &ControlHeaderError{Header: HeaderConnect, Value: v, Err: err}
		}
		ctl.ConnectTo = v
	}

	if v, ok := h.Pop(HeaderFollowRedirects); ok {
		follow, err := parseSwitch(v)
		if err != nil {
			return ctl, &ControlHeaderError{Header: HeaderFollowRedirects, Value: v, Err: err}
		}
		ctl.FollowRedirects = follow
	}

	return ctl, nil
}

func parseSeconds(v string) (time.Duration, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, errors.New("expected seconds")
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	return time.Duration(f * float64(time.Second)), nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, errors.New("expected one of 1, true, yes, on, 0, false, no, off")
}

// parseConnectTo splits "[scheme://]host[:port]". An empty scheme means the
// request URL's scheme is kept.
func parseConnectTo(v string) (scheme, host string, err error) {
	v = strings.TrimSpace(v)
	if !strings.Contains(v, "://") {
		if v == "" {
			return "", "", errors.New("empty address")
		}
		return "", v, nil
	}

	u, err := url.Parse(v)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", "", errors.New("missing host")
	}
	return u.Scheme, u.Host, nil
}
