package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "hostel_hub/internal/adapters/redis"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var got item
	ok, err := c.Get(ctx, "hostel:1", &got)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, c.Set(ctx, "hostel:1", item{ID: "1", Name: "Campus View"}, 60))
	assert.Equal(t, 60, int(mr.TTL("hostel:1").Seconds()))

	ok, err = c.Get(ctx, "hostel:1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Campus View", got.Name)

	require.NoError(t, c.Del(ctx, "hostel:1"))
	ok, _ = c.Get(ctx, "hostel:1", &got)
	assert.False(t, ok)
}

func TestCache_DelPrefix(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	for _, k := range []string{"hostels:a", "hostels:b", "hostels:c", "hostel:keep", "landing"} {
		require.NoError(t, c.Set(ctx, k, item{ID: k}, 60))
	}
	require.NoError(t, c.DelPrefix(ctx, "hostels:"))

	assert.False(t, mr.Exists("hostels:a"))
	assert.False(t, mr.Exists("hostels:b"))
	assert.False(t, mr.Exists("hostels:c"))
	assert.True(t, mr.Exists("hostel:keep"))
	assert.True(t, mr.Exists("landing"))
}

func TestCache_GetCorruptValue(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("landing", "{not json"))

	var got item
	ok, err := c.Get(context.Background(), "landing", &got)
	assert.Error(t, err)
	assert.False(t, ok)
}
