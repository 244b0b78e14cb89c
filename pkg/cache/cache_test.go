package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzim-io/tanzim-sdk/pkg/cache"
)

func TestSetGetInvalidate(t *testing.T) {
	c := cache.New(time.Minute, time.Minute)

	c.Set("node:a", 42)
	v, ok := c.Get("node:a")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	c.Invalidate("node:a")
	_, ok = c.Get("node:a")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := cache.New(10*time.Millisecond, time.Minute)
	c.Set("node:a", "v")
	time.Sleep(25 * time.Millisecond)
	_, ok := c.Get("node:a")
	assert.False(t, ok)
}

func TestDisabledHandleIsNoOp(t *testing.T) {
	c := cache.Disabled()
	c.Set("node:a", 1)
	_, ok := c.Get("node:a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Invalidate("node:a")
	c.Flush()
}
