package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_DefaultPriority(t *testing.T) {
	e := WithDefaultPriority("hello")
	assert.Equal(t, DefaultPriority, e.Priority())
	assert.Equal(t, "hello", e.Message())
}

func TestEnvelope_Map_PreservesPriority(t *testing.T) {
	e := NewEnvelope(42, 6)
	mapped := Map(e, func(n int) string { return "n" })

	assert.Equal(t, "n", mapped.Message())
	assert.Equal(t, int8(6), mapped.Priority())
}

func TestEnvelope_MapPriority(t *testing.T) {
	e := NewEnvelope("x", 2).MapPriority(func(p int8) int8 { return p + 1 })
	assert.Equal(t, int8(3), e.Priority())
}

func TestSystemMessage_PriorityOrdering(t *testing.T) {
	assert.Greater(t, Stop.Priority(), Restart.Priority())
	assert.Greater(t, Restart.Priority(), Watch(1).Priority())
	assert.Greater(t, Watch(1).Priority(), Escalate(testFailureInfo()).Priority())
	assert.Greater(t, Escalate(testFailureInfo()).Priority(), ReceiveTimeout.Priority())
}
