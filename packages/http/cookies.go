package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
)

// Cookie is one jar entry. Coded is the value as it appeared on the wire,
// quotes included.
type Cookie struct {
	Name  string
	Value string
	Coded string
}

// CookieJar maps cookie names to their latest value. It has no domain or
// path scoping: a later Set-Cookie for a name replaces the earlier one.
type CookieJar struct {
	cookies map[string]Cookie
}

func NewCookieJar() *CookieJar {
	return &CookieJar{cookies: make(map[string]Cookie)}
}

// Load stores every Set-Cookie entry of h. Unparseable entries are skipped.
func (j *CookieJar) Load(h *headers.HeaderSet) {
	for _, line := range h.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		coded := c.Value
		if c.Quoted {
			coded = `"` + c.Value + `"`
		}
		j.cookies[c.Name] = Cookie{Name: c.Name, Value: c.Value, Coded: coded}
	}
}

func (j *CookieJar) Set(name, value string) {
	j.cookies[name] = Cookie{Name: name, Value: value, Coded: value}
}

func (j *CookieJar) Get(name string) (Cookie, bool) {
	c, ok := j.cookies[name]
	return c, ok
}

func (j *CookieJar) Len() int {
	return len(j.cookies)
}

// Names returns cookie names sorted.
func (j *CookieJar) Names() []string {
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values maps names to decoded values.
func (j *CookieJar) Values() map[string]string {
	m := make(map[string]string, len(j.cookies))
	for name, c := range j.cookies {
		m[name] = c.Value
	}
	return m
}

// Coded maps names to wire values.
func (j *CookieJar) Coded() map[string]string {
	m := make(map[string]string, len(j.cookies))
	for name, c := range j.cookies {
		m[name] = c.Coded
	}
	return m
}

// Header builds a "Cookie: a=1;b=2" line from the named cookies, or from all
// cookies in name order when none are given.
func (j *CookieJar) Header(names ...string) (string, error) {
	if len(names) == 0 {
		names = j.Names()
	}

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		c, ok := j.cookies[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNoCookie, name)
		}
		pairs = append(pairs, name+"="+c.Coded)
	}
	return "Cookie: " + strings.Join(pairs, ";"), nil
}

// Snapshot returns an independent copy of the jar.
func (j *CookieJar) Snapshot() *CookieJar {
	cp := NewCookieJar()
	for name, c := range j.cookies {
		cp.cookies[name] = c
	}
	return cp
}
