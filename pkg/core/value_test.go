package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_FromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"Nil", nil, Null()},
		{"Bool", true, Bool(true)},
		{"Int", 42, Int(42)},
		{"Uint", uint8(7), Int(7)},
		{"Float", 1.5, Number(1.5)},
		{"JSON Number", json.Number("3"), Int(3)},
		{"String", "hi", String("hi")},
		{"List", []any{1, "a", nil}, List(Int(1), String("a"), Null())},
		{"Map", map[string]any{"k": []any{2.0}}, Map(map[string]Value{"k": List(Number(2))})},
		{"YAML Map", map[any]any{"k": false}, Map(map[string]Value{"k": Bool(false)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}

	t.Run("Rejects Unknown Types", func(t *testing.T) {
		_, err := FromAny(struct{}{})
		assert.Error(t, err)

		_, err = FromAny(map[any]any{1: "x"})
		assert.Error(t, err)
	})
}

func TestValue_JSON(t *testing.T) {
	v := Map(map[string]Value{
		"numbers": List(Int(1), Number(2.5), Int(-3)),
		"nested":  Map(map[string]Value{"ok": Bool(true), "none": Null()}),
		"name":    String("x"),
	})

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var got Value
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, v.Equal(got), "got %s", got)

	t.Run("Rejects Non Finite Numbers", func(t *testing.T) {
		_, err := json.Marshal(Number(math.NaN()))
		assert.Error(t, err)
		_, err = json.Marshal(Number(math.Inf(1)))
		assert.Error(t, err)
	})
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Null().Equal(Value{}))
	assert.False(t, Int(1).Equal(String("1")))
	assert.False(t, List(Int(1)).Equal(List(Int(1), Int(2))))
	assert.True(t, Map(map[string]Value{"a": Int(1), "b": Int(2)}).Equal(Map(map[string]Value{"b": Int(2), "a": Int(1)})))
}

func TestValue_CloneIsDeep(t *testing.T) {
	inner := map[string]Value{"k": Int(1)}
	v := List(Map(inner))

	c := v.Clone()
	items, _ := c.AsList()
	m, _ := items[0].AsMap()
	m["k"] = Int(2)

	orig, _ := v.AsList()
	om, _ := orig[0].AsMap()
	assert.True(t, om["k"].Equal(Int(1)))
}

func TestValue_ConstructorsCopyInput(t *testing.T) {
	items := []Value{String("a"), String("b")}
	list := List(items...)
	items[0] = String("changed")

	got, ok := list.AsList()
	require.True(t, ok)
	assert.True(t, got[0].Equal(String("a")))

	m := map[string]Value{"k": Int(1)}
	mv := Map(m)
	m["k"] = Int(2)
	assert.True(t, mv.Equal(Map(map[string]Value{"k": Int(1)})))
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "plain", String("plain").String())
	assert.Equal(t, "[1,true]", List(Int(1), Bool(true)).String())
	assert.Equal(t, "null", Null().String())
	assert.Equal(t, "list", KindList.String())
}
