package template

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/abdul-hamid-achik/hitblock/packages/builtin"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Eval evaluates a parsed expression. Errors are *EvalError or *LookupError.
func Eval(n Node, ctx Context) (any, error) {
	switch node := n.(type) {
	case *Literal:
		return node.Value, nil

	case *Identifier:
		v, ok := ctx[node.Name]
		if !ok {
			return nil, evalErrorf("name '%s' is not defined", node.Name)
		}
		return v, nil

	case *Member:
		target, err := Eval(node.Target, ctx)
		if err != nil {
			return nil, err
		}
		return member(target, node.Name)

	case *Index:
		target, err := Eval(node.Target, ctx)
		if err != nil {
			return nil, err
		}
		key, err := Eval(node.Key, ctx)
		if err != nil {
			return nil, err
		}
		return index(target, key)

	case *Call:
		fnValue, err := Eval(node.Func, ctx)
		if err != nil {
			return nil, err
		}
		fn, ok := fnValue.(builtin.Func)
		if !ok {
			return nil, evalErrorf("'%s' object is not callable", typeName(fnValue))
		}

		args := make([]any, 0, len(node.Args))
		for _, a := range node.Args {
			v, err := Eval(a, ctx)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}

		result, err := fn(args)
		if err != nil {
			var lookupErr *LookupError
			if errors.As(err, &lookupErr) {
				return nil, lookupErr
			}
			return nil, &EvalError{Message: err.Error()}
		}
		return result, nil
	}

	return nil, evalErrorf("unsupported expression")
}

// member resolves a.name. On mappings it is a key lookup.
func member(target any, name string) (any, error) {
	switch t := target.(type) {
	case gjson.Result:
		if !t.IsObject() {
			return nil, evalErrorf("'%s' object has no attribute '%s'", typeName(t), name)
		}
		return mapKey(t, name)
	case *headers.HeaderSet, map[string]string, map[string]any:
		return index(t, name)
	}
	return nil, evalErrorf("'%s' object has no attribute '%s'", typeName(target), name)
}

func index(target any, key any) (any, error) {
	if r, ok := key.(gjson.Result); ok && r.Type == gjson.String {
		key = r.Str
	}

	switch t := target.(type) {
	case gjson.Result:
		if t.IsArray() {
			items := t.Array()
			i, err := position(key, len(items), "list")
			if err != nil {
				return nil, err
			}
			return items[i], nil
		}
		if t.IsObject() {
			k, ok := key.(string)
			if !ok {
				return nil, &LookupError{Key: formatValue(key)}
			}
			return mapKey(t, k)
		}
		if t.Type == gjson.String {
			return index(t.Str, key)
		}

	case string:
		i, err := position(key, len(t), "string")
		if err != nil {
			return nil, err
		}
		return t[i : i+1], nil

	case []any:
		i, err := position(key, len(t), "list")
		if err != nil {
			return nil, err
		}
		return t[i], nil

	case *headers.HeaderSet:
		k, ok := key.(string)
		if !ok {
			return nil, &LookupError{Key: formatValue(key)}
		}
		v, found := t.Get(k)
		if !found {
			return nil, &LookupError{Key: k}
		}
		return v, nil

	case map[string]string:
		k, ok := key.(string)
		if !ok {
			return nil, &LookupError{Key: formatValue(key)}
		}
		v, found := t[k]
		if !found {
			return nil, &LookupError{Key: k}
		}
		return v, nil

	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, &LookupError{Key: formatValue(key)}
		}
		v, found := t[k]
		if !found {
			return nil, &LookupError{Key: k}
		}
		return v, nil
	}

	return nil, evalErrorf("'%s' object is not subscriptable", typeName(target))
}

func mapKey(obj gjson.Result, key string) (any, error) {
	v, ok := obj.Map()[key]
	if !ok {
		return nil, &LookupError{Key: key}
	}
	return v, nil
}

// position converts an index value, counting negatives from the end.
func position(key any, length int, kind string) (int, error) {
	var i int
	switch k := key.(type) {
	case int64:
		i = int(k)
	case int:
		i = k
	case gjson.Result:
		if k.Type != gjson.Number || k.Num != math.Trunc(k.Num) {
			return 0, evalErrorf("%s indices must be integers", kind)
		}
		i = int(k.Int())
	default:
		return 0, evalErrorf("%s indices must be integers", kind)
	}

	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, evalErrorf("%s index out of range", kind)
	}
	return i, nil
}

func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "NoneType"
	case string:
		return "str"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case builtin.Func:
		return "function"
	case *headers.HeaderSet:
		return "Headers"
	case map[string]string, map[string]any:
		return "dict"
	case []any:
		return "list"
	case gjson.Result:
		switch {
		case t.IsObject():
			return "dict"
		case t.IsArray():
			return "list"
		}
		switch t.Type {
		case gjson.String:
			return "str"
		case gjson.Number:
			return "float"
		case gjson.True, gjson.False:
			return "bool"
		}
		return "NoneType"
	}
	return "object"
}

// formatValue renders a value as span text.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case gjson.Result:
		switch t.Type {
		case gjson.Null:
			return "None"
		case gjson.True:
			return "True"
		case gjson.False:
			return "False"
		case gjson.String:
			return t.Str
		case gjson.Number:
			return t.Raw
		}
		return string(pretty.Ugly([]byte(t.Raw)))
	case *headers.HeaderSet:
		return t.String()
	case map[string]string, map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return builtin.String(t)
		}
		return string(data)
	}
	return builtin.String(v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
