package builtin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		fn   string
		args []any
		want any
	}{
		{name: "base64", fn: "base64", args: []any{"user:pass"}, want: "dXNlcjpwYXNz"},
		{name: "base64Decode", fn: "base64Decode", args: []any{"dXNlcjpwYXNz"}, want: "user:pass"},
		{name: "md5", fn: "md5", args: []any{"abc"}, want: "900150983cd24fb0d6963f7d28e17f72"},
		{name: "urlEncode", fn: "urlEncode", args: []any{"a b&c"}, want: "a+b%26c"},
		{name: "urlDecode", fn: "urlDecode", args: []any{"a+b%26c"}, want: "a b&c"},
		{name: "upper", fn: "upper", args: []any{"abc"}, want: "ABC"},
		{name: "basic auth", fn: "basic_auth", args: []any{"user", "pass"}, want: "Authorization: Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Call(tt.fn, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call("exec", "rm -rf /")
	assert.EqualError(t, err, "name 'exec' is not defined")

	_, err = r.Call("base64")
	assert.Error(t, err)

	_, err = r.Call("randomAlphanumeric", "ten")
	assert.Error(t, err)
}

func TestRegistry_UUID(t *testing.T) {
	v, err := NewRegistry().Call("uuid")
	require.NoError(t, err)
	_, err = uuid.Parse(v.(string))
	assert.NoError(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("answer", func(_ []any) (any, error) { return int64(42), nil })

	fn, ok := r.Lookup("answer")
	require.True(t, ok)
	v, err := fn(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.Contains(t, r.Names(), "answer")
}

func TestRandomAlphanumeric(t *testing.T) {
	s := RandomAlphanumeric(30)
	assert.Len(t, s, 30)
	assert.Regexp(t, `^[0-9a-zA-Z]{30}$`, s)

	v, err := NewRegistry().Call("randomAlphanumeric", int64(5))
	require.NoError(t, err)
	assert.Len(t, v.(string), 5)
}

func TestBasicAuth(t *testing.T) {
	assert.Equal(t, "Authorization: Basic dXNlcjpwYXNz", BasicAuth("user", "pass"))

	got, err := NewRegistry().Call("basic_auth", "user", "pass")
	require.NoError(t, err)
	assert.Equal(t, "Authorization: Basic dXNlcjpwYXNz", got)

	_, err = NewRegistry().Call("basic_auth", "user")
	assert.Error(t, err)
}
