package output

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// XMLFormatThreshold is the largest XML body that gets reindented.
const XMLFormatThreshold = 1 << 20

// Body kinds reported by FormatBody.
const (
	KindJSON = "json"
	KindXML  = "xml"
	KindHTML = "html"
	KindText = "text"
)

var sizeUnits = []string{"", "K", "M", "G", "T", "P", "E", "Z"}

// FormatSize renders a byte count the short way: 193b, 1.2Kb, 3.0Mb.
func FormatSize(n int64) string {
	num := float64(n)
	for _, unit := range sizeUnits {
		if num > -1024 && num < 1024 {
			if unit == "" {
				return fmt.Sprintf("%d%sb", int64(num), unit)
			}
			return fmt.Sprintf("%3.1f%sb", num, unit)
		}
		num /= 1024
	}
	return fmt.Sprintf("%.1fYib", num)
}

// FormatBody reindents body according to its media type. Bodies that fail
// to parse come back unchanged.
func FormatBody(contentType string, body []byte) (string, string) {
	switch {
	case contentType == "application/json":
		if !gjson.ValidBytes(body) {
			return string(body), KindJSON
		}
		out := pretty.PrettyOptions(body, &pretty.Options{
			Width:    80,
			Indent:   "  ",
			SortKeys: true,
		})
		return strings.TrimRight(string(out), "\n"), KindJSON
	case contentType == "text/html":
		return string(body), KindHTML
	case contentType == "application/xml", contentType == "text/xml",
		contentType == "text/plain", strings.HasSuffix(contentType, "+xml"):
		if len(body) < XMLFormatThreshold {
			if out, err := indentXML(body); err == nil {
				return out, KindXML
			}
		}
		return string(body), KindXML
	}
	return string(body), KindText
}

func indentXML(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	elements := 0
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elements++
			t.Name = flatten(t.Name)
			attrs := make([]xml.Attr, len(t.Attr))
			for i, a := range t.Attr {
				attrs[i] = xml.Attr{Name: flatten(a.Name), Value: a.Value}
			}
			t.Attr = attrs
			tok = t
		case xml.EndElement:
			t.Name = flatten(t.Name)
			tok = t
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
		}

		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return "", err
		}
	}

	if elements == 0 {
		return "", fmt.Errorf("no xml elements")
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// flatten keeps a prefixed name as written instead of letting the encoder
// invent namespace declarations for it.
func flatten(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}
