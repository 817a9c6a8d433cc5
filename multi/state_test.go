package multi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_AppendIsCopyOnWrite(t *testing.T) {
	base := NewState("a")
	left := base.Append("b")
	right := base.Append("c")

	assert.Equal(t, []any{"a"}, base.Shared())
	assert.Equal(t, []any{"a", "b"}, left.Shared())
	assert.Equal(t, []any{"a", "c"}, right.Shared())
}

func TestState_AccessorsReturnCopies(t *testing.T) {
	s := NewState("a").withLocal("writer", 1)

	shared := s.Shared()
	shared[0] = "mutated"
	locals := s.Locals()
	locals["writer"] = 99

	assert.Equal(t, []any{"a"}, s.Shared())
	v, ok := s.Local("writer")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestState_WithLocalDoesNotAlias(t *testing.T) {
	base := State{}.withLocal("a", 1)
	next := base.withLocal("b", 2)

	_, ok := base.Local("b")
	assert.False(t, ok)
	assert.Len(t, next.Locals(), 2)
}

func TestState_JSON(t *testing.T) {
	s := NewState("hello").withLocal("writer", "draft").handedTo("writer")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"current":"writer","shared":["hello"],"locals":{"writer":"draft"},"steps":1}`, string(data))

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "writer", decoded.Current())
	assert.Equal(t, []any{"hello"}, decoded.Shared())
	assert.Equal(t, 1, decoded.Steps())
}

func TestState_EmptyJSON(t *testing.T) {
	data, err := json.Marshal(State{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"shared":[]}`, string(data))
}
