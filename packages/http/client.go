package http

import (
	"context"
	"crypto/tls"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultReadTimeout bounds every read from the server.
	DefaultReadTimeout = 30 * time.Second
	// MaxAttempts bounds a redirect chain, the original request included.
	MaxAttempts = 5
)

type Client struct {
	connectTimeout  time.Duration
	readTimeout     time.Duration
	followRedirects bool
	maxAttempts     int
	logger          *log.Logger
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		maxAttempts:    MaxAttempts,
		logger:         log.New(io.Discard, "", 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.readTimeout = d
	}
}

// WithFollowRedirects sets the default used when a request carries no
// Hitblock-Follow-Redirects header.
func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirects = follow
	}
}

// WithMaxAttempts lowers the redirect bound. Values outside 1..MaxAttempts
// are ignored.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n >= 1 && n <= MaxAttempts {
			c.maxAttempts = n
		}
	}
}

// WithLogger receives one line per hop.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c *Client) defaults() Control {
	return Control{
		ConnectTimeout:  c.connectTimeout,
		ReadTimeout:     c.readTimeout,
		FollowRedirects: c.followRedirects,
	}
}

// Do executes req. Set-Cookie values from every hop are loaded into jar; a
// nil jar gets a fresh one. req is not modified.
func (c *Client) Do(ctx context.Context, req *compiler.CompiledRequest, jar *CookieJar) (*Result, error) {
	if jar == nil {
		jar = NewCookieJar()
	}

	h := req.Headers.Clone()
	ctl, err := ExtractControl(h, c.defaults())
	if err != nil {
		return nil, err
	}

	target, err := resolveTarget(req, h)
	if err != nil {
		return nil, &TransportError{Op: "resolve", URL: req.URL, Err: err}
	}
	h.Set("Host", target.Host)

	current := &hop{
		method:  req.Method,
		url:     target,
		headers: h,
		body:    req.Body,
		hasBody: req.HasBody,
	}

	if ctl.ConnectTo != "" {
		scheme, host, _ := parseConnectTo(ctl.ConnectTo)
		if scheme != "" {
			target.Scheme = scheme
		}
		current.connectTo = host
	}

	result := &Result{Cookies: jar}

	for attempt := 1; ; attempt++ {
		resp, err := c.roundTrip(ctx, current, ctl)
		if err != nil {
			return nil, err
		}
		jar.Load(resp.Headers)

		location, hasLocation := resp.Headers.Get("Location")
		if !ctl.FollowRedirects || !followable(resp.StatusCode) || !hasLocation || attempt >= c.maxAttempts {
			result.Response = resp
			return result, nil
		}
		result.History = append(result.History, resp)

		next, err := current.redirect(location)
		if err != nil {
			return nil, &TransportError{Op: "redirect", URL: location, Err: err}
		}
		current = next
	}
}

func followable(status int) bool {
	return status == http.StatusMovedPermanently ||
		status == http.StatusFound ||
		status == http.StatusSeeOther
}

// redirect builds the hop for a Location value. The method becomes GET
// (HEAD stays HEAD) without a body. Leaving the current host drops every
// header but User-Agent and the connect-to override.
func (hp *hop) redirect(location string) (*hop, error) {
	u, err := hp.url.Parse(location)
	if err != nil {
		return nil, err
	}
	if err := ValidateURL(u); err != nil {
		return nil, err
	}

	next := &hop{
		method:    http.MethodGet,
		url:       u,
		headers:   hp.headers,
		connectTo: hp.connectTo,
	}
	if hp.method == http.MethodHead {
		next.method = http.MethodHead
	}

	if !headers.Equal(u.Host, hp.headers.Value("Host")) {
		next.headers = hp.headers.Copy("User-Agent")
		next.headers.Set("Host", u.Host)
		next.connectTo = ""
	}

	return next, nil
}

func (c *Client) roundTrip(ctx context.Context, hp *hop, ctl Control) (*Response, error) {
	rawURL := hp.url.String()

	var tlsConfig *tls.Config
	if hp.url.Scheme == "https" {
		cfg, err := clientTLSConfig(hp.serverName(), ctl)
		if err != nil {
			return nil, &TransportError{Op: "tls", URL: rawURL, Err: err}
		}
		tlsConfig = cfg
	}

	rec := newRecorder(MaxCapture)
	addr := hp.dialAddress()
	dialer := &net.Dialer{Timeout: ctl.ConnectTimeout}

	transport := &http.Transport{
		DisableKeepAlives:  true,
		DisableCompression: true,
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return rec.wrap(conn, ctl.ReadTimeout), nil
		},
		DialTLSContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			hctx := ctx
			if ctl.ConnectTimeout > 0 {
				var cancel context.CancelFunc
				hctx, cancel = context.WithTimeout(ctx, ctl.ConnectTimeout)
				defer cancel()
			}

			tlsConn := tls.Client(conn, tlsConfig)
			if err := tlsConn.HandshakeContext(hctx); err != nil {
				conn.Close()
				return nil, err
			}
			return rec.wrap(tlsConn, ctl.ReadTimeout), nil
		},
	}
	defer transport.CloseIdleConnections()

	start := time.Now()
	var connected time.Duration
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) {
			connected = time.Since(start)
		},
	}

	httpReq, err := hp.build(httptrace.WithClientTrace(ctx, trace))
	if err != nil {
		return nil, &TransportError{Op: "request", URL: rawURL, Err: err}
	}

	httpResp, err := transport.RoundTrip(httpReq)
	if err != nil {
		return nil, &TransportError{Op: hp.method, URL: rawURL, Err: err}
	}
	defer httpResp.Body.Close()
	headersAt := time.Since(start)

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", URL: rawURL, Err: err}
	}
	total := time.Since(start)

	respHeaders, ok := parseHeaderBlock(rec.incoming())
	if !ok {
		respHeaders = headers.FromMap(httpResp.Header)
	}

	c.logger.Printf("%s %s -> %d (%dms)", hp.method, rawURL, httpResp.StatusCode, total.Milliseconds())

	return &Response{
		Method:     hp.method,
		URL:        rawURL,
		StatusCode: httpResp.StatusCode,
		Reason:     reasonPhrase(httpResp),
		Headers:    respHeaders,
		Body:       body,
		Raw:        rec.outgoing(),
		Timings: Timings{
			Connect: connected,
			Headers: headersAt,
			Total:   total,
		},
	}, nil
}

func clientTLSConfig(serverName string, ctl Control) (*tls.Config, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         serverName,
		NextProtos:         []string{"http/1.1"},
	}

	if ctl.ClientCert != "" {
		keyFile := ctl.ClientKey
		if keyFile == "" {
			keyFile = ctl.ClientCert
		}
		cert, err := tls.LoadX509KeyPair(ctl.ClientCert, keyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
