package template

import (
	"errors"
	"regexp"
)

var spanPattern = regexp.MustCompile(`\$\{(.+?)\}`)

// Expand replaces every ${expr} span in tpl. Missing keys render as None.
// The first other failure stops expansion and is returned as *EvalError.
func Expand(tpl string, ctx Context) (string, error) {
	var failure error

	out := spanPattern.ReplaceAllStringFunc(tpl, func(span string) string {
		if failure != nil {
			return span
		}

		expr := spanPattern.FindStringSubmatch(span)[1]
		v, err := evaluate(expr, ctx)
		if err != nil {
			var lookupErr *LookupError
			if errors.As(err, &lookupErr) {
				return "None"
			}
			failure = err
			return span
		}
		return formatValue(v)
	})

	if failure != nil {
		return "", failure
	}
	return out, nil
}

// Render is Expand with a failure rendered as "ERROR: <message>".
func Render(tpl string, ctx Context) string {
	out, err := Expand(tpl, ctx)
	if err != nil {
		return "ERROR: " + err.Error()
	}
	return out
}

func evaluate(expr string, ctx Context) (any, error) {
	n, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return Eval(n, ctx)
}
