package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0b"},
		{193, "193b"},
		{1023, "1023b"},
		{1024, "1.0Kb"},
		{1300, "1.3Kb"},
		{3 * 1024 * 1024, "3.0Mb"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.n), "size %d", tt.n)
	}
}

func TestFormatBody(t *testing.T) {
	t.Run("json sorted and indented", func(t *testing.T) {
		out, kind := FormatBody("application/json", []byte(`{"b":1,"a":"x"}`))
		assert.Equal(t, KindJSON, kind)
		assert.Equal(t, "{\n  \"a\": \"x\",\n  \"b\": 1\n}", out)
	})

	t.Run("invalid json unchanged", func(t *testing.T) {
		out, kind := FormatBody("application/json", []byte(`{"b":`))
		assert.Equal(t, KindJSON, kind)
		assert.Equal(t, `{"b":`, out)
	})

	t.Run("xml indented", func(t *testing.T) {
		out, kind := FormatBody("application/xml", []byte(`<a><b>1</b></a>`))
		assert.Equal(t, KindXML, kind)
		assert.Equal(t, "<a>\n  <b>1</b>\n</a>", out)
	})

	t.Run("plain text is not xml", func(t *testing.T) {
		out, kind := FormatBody("text/plain", []byte("hello < world"))
		assert.Equal(t, KindXML, kind)
		assert.Equal(t, "hello < world", out)
	})

	t.Run("html untouched", func(t *testing.T) {
		out, kind := FormatBody("text/html", []byte("<p>hi"))
		assert.Equal(t, KindHTML, kind)
		assert.Equal(t, "<p>hi", out)
	})

	t.Run("other types are text", func(t *testing.T) {
		_, kind := FormatBody("application/octet-stream", []byte{0x01})
		assert.Equal(t, KindText, kind)
	})
}
