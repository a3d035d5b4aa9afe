package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverlay(t *testing.T) {
	props, err := ParseOverlay([]byte(`{
		// comments are accepted
		"test": "foo",
		"enabled": true,
		"count": 42,
		"ratio": 0.5,
		"tags": ["a", "b"],
		"nested": {"depth": 1},
		"empty": null, /* trailing comma below */
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"test", "enabled", "count", "ratio", "tags", "nested", "empty"}, props.Keys())
	assert.Equal(t, 7, props.Len())

	s, ok := props.String("test")
	assert.True(t, ok)
	assert.Equal(t, "foo", s)

	b, ok := props.Bool("enabled")
	assert.True(t, ok)
	assert.True(t, b)

	i, ok := props.Int64("count")
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	f, ok := props.Float64("ratio")
	assert.True(t, ok)
	assert.Equal(t, 0.5, f)

	f, ok = props.Float64("count")
	assert.True(t, ok)
	assert.Equal(t, float64(42), f)

	tags, ok := props.Strings("tags")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tags)

	nested, ok := props.Get("nested")
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"depth": int64(1)}, nested)

	v, ok := props.Get("empty")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = props.String("count")
	assert.False(t, ok)
	_, ok = props.Strings("nested")
	assert.False(t, ok)
}

func TestParseOverlayErrors(t *testing.T) {
	testCases := []struct {
		desc string
		data string
	}{
		{desc: "empty", data: ``},
		{desc: "array", data: `["a"]`},
		{desc: "string", data: `"a"`},
		{desc: "truncated", data: `{"a": `},
		{desc: "unquoted value", data: `{"a": b}`},
		{desc: "trailing document", data: `{"a": 1} {"b": 2}`},
	}

	for _, tt := range testCases {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := ParseOverlay([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestPropertyMap(t *testing.T) {
	props := NewPropertyMap()
	props.Set("a", "1")
	props.Set("b", int64(2))
	props.Set("a", "3")
	assert.Equal(t, []string{"a", "b"}, props.Keys())

	other := NewPropertyMap()
	other.Set("c", true)
	other.Set("a", "4")
	props.Merge(other)
	props.Merge(nil)
	assert.Equal(t, []string{"a", "b", "c"}, props.Keys())
	s, _ := props.String("a")
	assert.Equal(t, "4", s)

	props.Delete("b")
	props.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, props.Keys())

	dt, err := json.Marshal(props)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"4","c":true}`, string(dt))

	var visited []string
	props.Each(func(key string, _ any) {
		visited = append(visited, key)
	})
	assert.Equal(t, []string{"a", "c"}, visited)
}

func TestPropertyMapMergeCopiesNested(t *testing.T) {
	other := NewPropertyMap()
	other.Set("arr", []any{"a", map[string]any{"k": "v"}})
	other.Set("obj", map[string]any{"list": []any{int64(1)}})

	props := NewPropertyMap()
	props.Merge(other)

	arr, _ := props.Get("arr")
	arr.([]any)[0] = "changed"
	arr.([]any)[1].(map[string]any)["k"] = "changed"
	obj, _ := props.Get("obj")
	obj.(map[string]any)["list"].([]any)[0] = int64(2)

	orig, _ := other.Get("arr")
	assert.Equal(t, []any{"a", map[string]any{"k": "v"}}, orig)
	orig, _ = other.Get("obj")
	assert.Equal(t, map[string]any{"list": []any{int64(1)}}, orig)
}
