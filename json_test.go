package safefs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "flat object", value: map[string]any{"name": "beaver", "count": float64(3)}},
		{name: "nested object", value: map[string]any{
			"outer": map[string]any{"inner": []any{float64(1), float64(2)}},
			"flag":  true,
		}},
		{name: "empty object", value: map[string]any{}},
		{name: "array", value: []any{"a", float64(1), nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newTestFS(t)
			ctx := context.Background()

			require.NoError(t, fs.WriteJSON(ctx, "data.json", tt.value))

			var got any
			require.NoError(t, fs.ReadJSON(ctx, "data.json", &got))
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestReadJSONMissingIsReadError(t *testing.T) {
	fs := newTestFS(t)

	var v map[string]any
	err := fs.ReadJSON(context.Background(), "missing.json", &v)
	require.Error(t, err)
	assert.True(t, HasOp(err, OpRead), "error op = %q, want %q (not %q)", ErrOp(err), OpRead, OpParse)
	assert.True(t, IsNotExist(err))
}

func TestReadJSONInvalidIsParseError(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.WriteString(ctx, "broken.json", "{not json"))

	var v map[string]any
	err := fs.ReadJSON(ctx, "broken.json", &v)
	require.Error(t, err)
	assert.True(t, HasOp(err, OpParse), "error op = %q, want %q", ErrOp(err), OpParse)
}

func TestWriteJSONUnserializable(t *testing.T) {
	fs := newTestFS(t)

	err := fs.WriteJSON(context.Background(), "bad.json", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.True(t, HasOp(err, OpSerialize), "error op = %q, want %q", ErrOp(err), OpSerialize)
	assert.False(t, fs.Exists(context.Background(), "bad.json"), "no partial write on serialize failure")
}

func TestWriteJSONIndent(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()
	value := map[string]any{"a": float64(1), "b": float64(2)}

	require.NoError(t, fs.WriteJSON(ctx, "indented.json", value))
	text, err := fs.ReadString(ctx, "indented.json")
	require.NoError(t, err)
	assert.Contains(t, text, "\n  \"a\"", "default config indent applied")

	require.NoError(t, fs.WriteJSON(ctx, "compact.json", value, WithIndent("")))
	text, err = fs.ReadString(ctx, "compact.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, strings.TrimSuffix(text, "\n"))
}
