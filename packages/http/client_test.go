package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, url string, kv ...string) *compiler.CompiledRequest {
	h := headers.New(headers.Entry{Name: "User-Agent", Value: "hitblock"})
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return &compiler.CompiledRequest{Method: method, URL: url, Headers: h}
}

func hostOf(server *httptest.Server) string {
	return strings.TrimPrefix(strings.TrimPrefix(server.URL, "http://"), "https://")
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		assert.Equal(t, "hitblock", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	res, err := client.Do(context.Background(), newRequest("GET", server.URL+"/test"), nil)

	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "OK", res.Reason)
	assert.Equal(t, "application/json", res.Header("Content-Type"))
	assert.True(t, res.IsJSON())
	assert.Equal(t, `{"message": "hello"}`, res.BodyString())
	assert.Equal(t, 20, res.Size())
	assert.Empty(t, res.History)
	assert.Equal(t, 1, res.Attempts())
	assert.NotNil(t, res.Cookies)

	raw := string(res.Raw)
	assert.True(t, strings.HasPrefix(raw, "GET /test HTTP/1.1\r\n"), raw)
	assert.Contains(t, raw, "Host: "+hostOf(server)+"\r\n")
	assert.Contains(t, raw, "User-Agent: hitblock\r\n")

	assert.GreaterOrEqual(t, res.Timings.Headers, res.Timings.Connect)
	assert.GreaterOrEqual(t, res.Timings.Total, res.Timings.Headers)
}

func TestClient_PostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, `{"name": "test"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	req := newRequest("POST", server.URL, "Content-Type", "application/json")
	req.Body = []byte(`{"name": "test"}`)
	req.HasBody = true

	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 201, res.StatusCode)
	assert.Equal(t, "Created", res.Reason)
}

func TestClient_NoUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["User-Agent"]
		assert.False(t, ok)
	}))
	defer server.Close()

	req := &compiler.CompiledRequest{Method: "GET", URL: server.URL, Headers: headers.New()}
	_, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)
}

func TestClient_QueryAppended(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "x=1&q=a+b&n=2", r.URL.RawQuery)
	}))
	defer server.Close()

	req := newRequest("GET", server.URL+"/search?x=1")
	req.Query = []parser.Assignment{{Name: "q", Value: "a b"}, {Name: "n", Value: "2"}}

	_, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)
}

func TestClient_ControlHeadersStripped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name := range r.Header {
			assert.False(t, strings.HasPrefix(name, "Hitblock-"), name)
		}
		assert.Equal(t, "1", r.Header.Get("X-Keep"))
	}))
	defer server.Close()

	req := newRequest("GET", server.URL,
		"X-Keep", "1",
		"hitblock-timeout", "10",
		"Hitblock-Connect-Timeout", "2",
		"Hitblock-Curl-Flags", "-k",
		"Hitblock-Follow-Redirects", "no",
	)

	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(res.Raw), "Hitblock-")
	assert.True(t, req.Headers.Has("Hitblock-Timeout"), "compiled request must not be modified")
}

func TestClient_InvalidControlHeader(t *testing.T) {
	req := newRequest("GET", "http://127.0.0.1:1/", "Hitblock-Timeout", "soon")

	_, err := NewClient().Do(context.Background(), req, nil)

	var ctlErr *ControlHeaderError
	require.ErrorAs(t, err, &ctlErr)
	assert.Equal(t, HeaderTimeout, ctlErr.Header)
	assert.Equal(t, "soon", ctlErr.Value)
}

func TestClient_RelativeURLUsesHostHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		assert.Equal(t, hostOf(server), r.Host)
	}))
	defer server.Close()

	req := newRequest("GET", "/ping", "Host", hostOf(server))
	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/ping", res.URL)
}

func TestClient_ConnectToOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "api.example.test", r.Host)
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	req := newRequest("GET", "http://api.example.test/ping", "Hitblock-Connect", hostOf(server))
	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, "pong", res.BodyString())
	assert.Contains(t, string(res.Raw), "Host: api.example.test\r\n")
}

func TestClient_RedirectsDisabledByDefault(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	res, err := NewClient().Do(context.Background(), newRequest("GET", server.URL), nil)
	require.NoError(t, err)

	assert.Equal(t, 302, res.StatusCode)
	assert.Empty(t, res.History)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_RedirectBound(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer server.Close()

	req := newRequest("GET", server.URL, "Hitblock-Follow-Redirects", "1")
	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(MaxAttempts), atomic.LoadInt32(&hits))
	assert.Equal(t, 302, res.StatusCode)
	assert.Len(t, res.History, MaxAttempts-1)
	assert.Equal(t, MaxAttempts, res.Attempts())
}

func TestClient_SameHostRedirectKeepsHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/done", http.StatusSeeOther)
	})
	mux.HandleFunc("/done", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "GET", r.Method)
		assert.Empty(t, body)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("done"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	req := newRequest("POST", server.URL+"/submit", "Authorization", "secret", "Accept", "text/plain")
	req.Body = []byte("payload")
	req.HasBody = true

	res, err := NewClient(WithFollowRedirects(true)).Do(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "done", res.BodyString())
	require.Len(t, res.History, 1)
	assert.Equal(t, 303, res.History[0].StatusCode)
	assert.Equal(t, "POST", res.History[0].Method)
}

func TestClient_CrossHostRedirectScrubsHeaders(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hitblock", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Accept"))
		_, _ = w.Write([]byte("landed"))
	}))
	defer other.Close()

	port := other.URL[strings.LastIndex(other.URL, ":")+1:]
	target := "http://localhost:" + port + "/landing"

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}))
	defer origin.Close()

	req := newRequest("GET", origin.URL, "Authorization", "secret", "Accept", "text/plain")
	res, err := NewClient(WithFollowRedirects(true)).Do(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, "landed", res.BodyString())
	assert.Equal(t, target, res.URL)
	assert.Contains(t, string(res.Raw), "Host: localhost:"+port+"\r\n")
	assert.NotContains(t, string(res.Raw), "Authorization")
}

func TestClient_CookiesAcrossHops(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "a=1; Path=/")
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "a=3")
		w.Header().Add("Set-Cookie", `b="two"`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	jar := NewCookieJar()
	req := newRequest("GET", server.URL+"/a", "Hitblock-Follow-Redirects", "yes")
	res, err := NewClient().Do(context.Background(), req, jar)
	require.NoError(t, err)

	assert.Same(t, jar, res.Cookies)
	assert.Equal(t, map[string]string{"a": "3", "b": "two"}, jar.Values())
	assert.Equal(t, map[string]string{"a": "3", "b": `"two"`}, jar.Coded())
	assert.Len(t, res.Headers.Values("Set-Cookie"), 2)
}

func TestClient_RawCaptureTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))
	defer server.Close()

	req := newRequest("POST", server.URL)
	req.Body = []byte(strings.Repeat("a", 70000))
	req.HasBody = true

	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Len(t, res.Raw, MaxCapture+len(TruncatedMarker))
	assert.True(t, strings.HasSuffix(string(res.Raw), TruncatedMarker))
	assert.Equal(t, 1, strings.Count(string(res.Raw), TruncatedMarker))
}

func TestClient_ReadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req := newRequest("GET", server.URL, "Hitblock-Timeout", "0.05")
	_, err := NewClient().Do(context.Background(), req, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, server.URL, transportErr.URL)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient().Do(context.Background(), newRequest("GET", url), nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "GET", transportErr.Op)
}

func TestClient_UnsupportedScheme(t *testing.T) {
	_, err := NewClient().Do(context.Background(), newRequest("GET", "ftp://example.com/"), nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "resolve", transportErr.Op)
}

func TestClient_TLSWithoutVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure"))
	}))
	defer server.Close()

	res, err := NewClient().Do(context.Background(), newRequest("GET", server.URL), nil)
	require.NoError(t, err)
	assert.Equal(t, "secure", res.BodyString())
	assert.True(t, strings.HasPrefix(string(res.Raw), "GET / HTTP/1.1\r\n"))
}

func TestClient_MissingClientCert(t *testing.T) {
	req := newRequest("GET", "https://127.0.0.1:1/", "Hitblock-Client-Cert", "/nonexistent/cert.pem")

	_, err := NewClient().Do(context.Background(), req, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "tls", transportErr.Op)
}

// writeClientCert writes a self-signed client certificate and its key as PEM
// files and returns their paths.
func writeClientCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "hitblock-client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "client.crt")
	keyFile = filepath.Join(dir, "client.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600))

	return certFile, keyFile
}

func TestClient_ClientCert(t *testing.T) {
	certFile, keyFile := writeClientCert(t)

	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NotNil(t, r.TLS) || !assert.Len(t, r.TLS.PeerCertificates, 1) {
			return
		}
		_, _ = w.Write([]byte(r.TLS.PeerCertificates[0].Subject.CommonName))
	}))
	server.TLS = &tls.Config{ClientAuth: tls.RequireAnyClientCert}
	server.StartTLS()
	defer server.Close()

	req := newRequest("GET", server.URL,
		HeaderClientCert, certFile,
		HeaderClientKey, keyFile,
	)

	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hitblock-client", res.BodyString())
}

func TestClient_ClientCertRequired(t *testing.T) {
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.TLS = &tls.Config{ClientAuth: tls.RequireAnyClientCert}
	server.StartTLS()
	defer server.Close()

	_, err := NewClient().Do(context.Background(), newRequest("GET", server.URL), nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestClient_ConnectTimeout(t *testing.T) {
	// Accepts connections and never answers, so the TLS handshake stalls.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				<-done
				conn.Close()
			}()
		}
	}()

	req := newRequest("GET", "https://"+ln.Addr().String()+"/", HeaderConnectTimeout, "0.1")

	start := time.Now()
	_, err = NewClient().Do(context.Background(), req, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_ResponseHeaderOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-B", "2")
		w.Header().Add("X-A", "1")
		w.Header().Add("X-A", "3")
	}))
	defer server.Close()

	res, err := NewClient().Do(context.Background(), newRequest("GET", server.URL), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3"}, res.Headers.Values("x-a"))
	assert.Equal(t, "2", res.Header("X-B"))
}

func TestClient_HeaderNameCaseKept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "custom", r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	h := headers.New(
		headers.Entry{Name: "user-agent", Value: "custom"},
		headers.Entry{Name: "x-api-key", Value: "abc"},
	)
	req := &compiler.CompiledRequest{Method: "GET", URL: server.URL, Headers: h}

	res, err := NewClient().Do(context.Background(), req, nil)
	require.NoError(t, err)

	raw := string(res.Raw)
	assert.Contains(t, raw, "\r\nx-api-key: abc\r\n")
	assert.Equal(t, 1, strings.Count(strings.ToLower(raw), "user-agent:"))
}
