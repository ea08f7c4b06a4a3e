package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Monotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestClientOrderID(t *testing.T) {
	cid := ClientOrderID()
	assert.True(t, strings.HasPrefix(cid, ClientOrderPrefix))
	assert.LessOrEqual(t, len(cid), 36)
}
