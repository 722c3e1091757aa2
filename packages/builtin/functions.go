package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func is a callable exposed to templates.
type Func func(args []any) (any, error)

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["timestampMs"] = funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["randomAlphanumeric"] = funcRandomAlphanumeric
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["md5"] = funcMD5
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["urlDecode"] = funcURLDecode
	r.funcs["lower"] = funcLower
	r.funcs["upper"] = funcUpper
	r.funcs["basic_auth"] = funcBasicAuth
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes a registered function by name.
func (r *Registry) Call(name string, args ...any) (any, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("name '%s' is not defined", name)
	}
	return fn(args)
}

// String renders an argument the way it would appear in text.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func stringArg(name string, args []any, i int) (string, error) {
	if len(args) <= i {
		return "", fmt.Errorf("%s() missing required argument %d", name, i+1)
	}
	return String(args[i]), nil
}

func intArg(name string, args []any, i int, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	switch v := args[i].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	n, err := strconv.Atoi(String(args[i]))
	if err != nil {
		return 0, fmt.Errorf("%s() argument %q is not a valid integer", name, String(args[i]))
	}
	return n, nil
}

func funcNow(_ []any) (any, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp(_ []any) (any, error) {
	return time.Now().Unix(), nil
}

func funcTimestampMs(_ []any) (any, error) {
	return time.Now().UnixMilli(), nil
}

func funcUUID(_ []any) (any, error) {
	return uuid.New().String(), nil
}

func funcRandomAlphanumeric(args []any) (any, error) {
	length, err := intArg("randomAlphanumeric", args, 0, 8)
	if err != nil {
		return nil, err
	}
	return RandomAlphanumeric(length), nil
}

func funcBase64(args []any) (any, error) {
	s, err := stringArg("base64", args, 0)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func funcBase64Decode(args []any) (any, error) {
	s, err := stringArg("base64Decode", args, 0)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64Decode(): %w", err)
	}
	return string(decoded), nil
}

func funcMD5(args []any) (any, error) {
	s, err := stringArg("md5", args, 0)
	if err != nil {
		return nil, err
	}
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:]), nil
}

func funcSHA256(args []any) (any, error) {
	s, err := stringArg("sha256", args, 0)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:]), nil
}

func funcURLEncode(args []any) (any, error) {
	s, err := stringArg("urlEncode", args, 0)
	if err != nil {
		return nil, err
	}
	return url.QueryEscape(s), nil
}

func funcURLDecode(args []any) (any, error) {
	s, err := stringArg("urlDecode", args, 0)
	if err != nil {
		return nil, err
	}
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s, nil
	}
	return decoded, nil
}

func funcLower(args []any) (any, error) {
	s, err := stringArg("lower", args, 0)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func funcUpper(args []any) (any, error) {
	s, err := stringArg("upper", args, 0)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func funcBasicAuth(args []any) (any, error) {
	user, err := stringArg("basic_auth", args, 0)
	if err != nil {
		return nil, err
	}
	password, err := stringArg("basic_auth", args, 1)
	if err != nil {
		return nil, err
	}
	return BasicAuth(user, password), nil
}

// BasicAuth returns an "Authorization: Basic ..." header line.
func BasicAuth(user, password string) string {
	return "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomAlphanumeric returns n random characters from [0-9a-zA-Z].
func RandomAlphanumeric(n int) string {
	return randomString(n, alphanumeric)
}

func randomString(length int, charset string) string {
	if length < 0 {
		length = 0
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
