package template

import (
	"errors"

	"github.com/abdul-hamid-achik/hitblock/packages/builtin"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
	"github.com/tidwall/gjson"
)

// Context holds the names visible to expressions.
type Context map[string]any

// NewContext exposes a result to templates:
//
//	body         raw response body
//	json         parsed body, or {} when the body is not JSON
//	headers      response headers, looked up case-insensitively
//	cookies      cookie name to wire value
//	rcookies     cookie name to decoded value
//	set_cookies  set_cookies("a", "b") builds "Cookie: a=..;b=.."; no
//	             arguments means every cookie in name order
//
// plus every function in funcs. funcs may be nil.
func NewContext(res *http.Result, funcs *builtin.Registry) Context {
	ctx := make(Context)

	if funcs != nil {
		for _, name := range funcs.Names() {
			fn, _ := funcs.Lookup(name)
			ctx[name] = fn
		}
	}

	jar := res.Cookies
	if jar == nil {
		jar = http.NewCookieJar()
	}

	ctx["body"] = string(res.Body)
	ctx["json"] = parseJSON(res.Body)
	ctx["headers"] = res.Headers
	ctx["cookies"] = jar.Coded()
	ctx["rcookies"] = jar.Values()
	ctx["set_cookies"] = setCookies(jar)

	return ctx
}

func parseJSON(body []byte) gjson.Result {
	if !gjson.ValidBytes(body) {
		return gjson.Parse("{}")
	}
	return gjson.ParseBytes(body)
}

func setCookies(jar *http.CookieJar) builtin.Func {
	return func(args []any) (any, error) {
		names := make([]string, 0, len(args))
		for _, a := range args {
			names = append(names, formatValue(a))
		}

		line, err := jar.Header(names...)
		if errors.Is(err, http.ErrNoCookie) {
			for _, name := range names {
				if _, ok := jar.Get(name); !ok {
					return nil, &LookupError{Key: name}
				}
			}
		}
		if err != nil {
			return nil, err
		}
		return line, nil
	}
}
