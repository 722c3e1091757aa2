package http

import (
	"bytes"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

const (
	// MaxCapture is the per-hop cap on recorded bytes in each direction.
	MaxCapture = 65536
	// TruncatedMarker follows the outgoing capture once the cap is hit.
	TruncatedMarker = "\n...TRUNCATED..."
)

// recorder keeps the bytes written to and read from one connection. The
// transport reads on its own goroutine, hence the mutex.
type recorder struct {
	mu        sync.Mutex
	limit     int
	out       []byte
	in        []byte
	truncated bool
}

func newRecorder(limit int) *recorder {
	return &recorder{limit: limit}
}

func (r *recorder) written(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.truncated {
		return
	}
	room := r.limit - len(r.out)
	if len(p) <= room {
		r.out = append(r.out, p...)
		return
	}
	r.out = append(r.out, p[:room]...)
	r.out = append(r.out, TruncatedMarker...)
	r.truncated = true
}

func (r *recorder) read(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.limit - len(r.in)
	if room <= 0 {
		return
	}
	if len(p) > room {
		p = p[:room]
	}
	r.in = append(r.in, p...)
}

func (r *recorder) outgoing() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bytes.Clone(r.out)
}

func (r *recorder) incoming() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bytes.Clone(r.in)
}

func (r *recorder) wrap(conn net.Conn, readTimeout time.Duration) net.Conn {
	return &captureConn{Conn: conn, rec: r, readTimeout: readTimeout}
}

// captureConn records traffic and applies the read timeout to every Read,
// so a stalled server fails the request instead of hanging it.
type captureConn struct {
	net.Conn
	rec         *recorder
	readTimeout time.Duration
}

func (c *captureConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	c.rec.written(p[:n])
	return n, err
}

func (c *captureConn) Read(p []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Read(p)
	c.rec.read(p[:n])
	return n, err
}

// parseHeaderBlock extracts the final response's header fields from raw
// incoming bytes in wire order. Interim 1xx responses are skipped. It
// reports false when no complete header block was captured.
func parseHeaderBlock(raw []byte) (*headers.HeaderSet, bool) {
	sep := []byte("\r\n\r\n")

	for {
		end := bytes.Index(raw, sep)
		if end < 0 {
			return nil, false
		}
		block := string(raw[:end])
		raw = raw[end+len(sep):]

		lines := strings.Split(block, "\r\n")
		if isInterim(lines[0]) {
			continue
		}

		h := headers.New()
		for _, line := range lines[1:] {
			if line == "" || line[0] == ' ' || line[0] == '\t' {
				continue
			}
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}
		return h, true
	}
}

func isInterim(statusLine string) bool {
	fields := strings.Fields(statusLine)
	if len(fields) < 2 || len(fields[1]) != 3 {
		return false
	}
	return fields[1][0] == '1' && fields[1] != "101"
}
