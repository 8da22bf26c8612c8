package kv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	var got sample
	found, err := s.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, sample{}, got, "dst must stay untouched on a miss")

	require.NoError(t, s.Set(ctx, "k", sample{Name: "idli", Count: 2}))
	found, err = s.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "idli", Count: 2}, got)

	require.NoError(t, s.Set(ctx, "k", sample{Name: "dosa", Count: 1}))
	found, err = s.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dosa", got.Name)

	require.NoError(t, s.Remove(ctx, "k"))
	found, err = s.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// removing a missing key is not an error
	require.NoError(t, s.Remove(ctx, "k"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStore_CorruptValue(t *testing.T) {
	m := NewMemory()
	m.data["bad"] = []byte("{not json")

	var got sample
	found, err := m.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestMemoryStore_UnencodableValue(t *testing.T) {
	err := NewMemory().Set(context.Background(), "ch", make(chan int))
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	r, err := DialRedis(context.Background(), url, "test:"+time.Now().Format("150405.000")+":", time.Minute)
	require.NoError(t, err)
	defer r.Close()

	exerciseStore(t, r)
}

func newMiniRedis(t *testing.T, prefix string, ttl time.Duration) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), prefix, ttl)
	t.Cleanup(func() { r.Close() })
	return mr, r
}

func TestRedisStore_Miniredis(t *testing.T) {
	_, r := newMiniRedis(t, "cart:", 0)
	exerciseStore(t, r)
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	mr, r := newMiniRedis(t, "foodcourt:", time.Hour)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "session:u1", sample{Name: "ana"}))
	assert.True(t, mr.Exists("foodcourt:session:u1"))
	assert.False(t, mr.Exists("session:u1"))
	assert.Equal(t, time.Hour, mr.TTL("foodcourt:session:u1"))

	mr.FastForward(2 * time.Hour)
	var got sample
	found, err := r.Get(ctx, "session:u1", &got)
	require.NoError(t, err)
	assert.False(t, found, "expired key should read as missing")
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, r := newMiniRedis(t, "", 0)
	require.NoError(t, mr.Set("bad", "{not json"))

	var got sample
	found, err := r.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr, r := newMiniRedis(t, "", 0)
	mr.Close()

	var got sample
	_, err := r.Get(context.Background(), "k", &got)
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), "k", sample{}))
}

func TestDialRedis_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := DialRedis(context.Background(), "redis://"+mr.Addr(), "p:", time.Minute)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Set(context.Background(), "k", 1))
	assert.True(t, mr.Exists("p:k"))
}

func TestDialRedis_InvalidURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "not-a-url", "", 0)
	assert.Error(t, err)
}
