package multipart

import (
	"bytes"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/builtin"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

const (
	// BoundaryLength is the size of generated boundaries.
	BoundaryLength = 30
	// DefaultMimeType is used when the filename extension is unknown.
	DefaultMimeType = "application/octet-stream"
)

var crlf = []byte("\r\n")

type Field struct {
	Name  string
	Value string
}

type File struct {
	Name     string
	Filename string
	Content  []byte
	// MimeType overrides the type guessed from Filename.
	MimeType string
}

// Encode builds the body and returns it with Content-Type and Content-Length
// headers. An empty boundary is replaced by a random one.
func Encode(fields []Field, files []File, boundary string) ([]byte, *headers.HeaderSet) {
	if boundary == "" {
		boundary = builtin.RandomAlphanumeric(BoundaryLength)
	}

	var lines [][]byte
	delimiter := []byte("--" + boundary)

	for _, f := range fields {
		lines = append(lines,
			delimiter,
			[]byte(`Content-Disposition: form-data; name="`+escapeQuote(f.Name)+`"`),
			nil,
			[]byte(f.Value),
		)
	}

	for _, f := range files {
		mimeType := f.MimeType
		if mimeType == "" {
			mimeType = GuessType(f.Filename)
		}
		lines = append(lines,
			delimiter,
			[]byte(`Content-Disposition: form-data; name="`+escapeQuote(f.Name)+`"; filename="`+escapeQuote(f.Filename)+`"`),
			[]byte("Content-Type: "+mimeType),
			nil,
			f.Content,
		)
	}

	lines = append(lines, []byte("--"+boundary+"--"), nil)
	body := bytes.Join(lines, crlf)

	h := headers.New()
	h.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return body, h
}

func escapeQuote(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

var knownTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "text/xml",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// GuessType maps a filename extension to a media type without parameters.
func GuessType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return DefaultMimeType
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		mediaType, _, _ := strings.Cut(t, ";")
		return strings.TrimSpace(mediaType)
	}
	return DefaultMimeType
}
