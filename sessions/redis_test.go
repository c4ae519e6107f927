package sessions

import (
	"context"
	"testing"
	"time"

	"go_ads_bot/ads"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st := NewRedisStore(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = st.Close() })
	return st, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	st, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, st.Ping(ctx))
	k := Key{ChatID: 5, UserID: 100}

	require.NoError(t, AwaitEditValue(ctx, st, k, 12, ads.FieldPaymentStatus, DefaultTTL))
	assert.True(t, mr.Exists("adsbot:session:5:100"))

	s, err := st.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingEditValue, s.State)
	assert.Equal(t, int64(12), s.RecordID)
	assert.Equal(t, ads.FieldPaymentStatus, s.Field)
	assert.Equal(t, k, s.Key())

	ttl := mr.TTL("adsbot:session:5:100")
	assert.Greater(t, ttl, DefaultTTL-time.Minute)
	assert.LessOrEqual(t, ttl, DefaultTTL)
}

func TestRedisStore_UsersInOneChatAreSeparate(t *testing.T) {
	st, mr := newRedisStore(t)
	ctx := context.Background()
	admin := Key{ChatID: -100, UserID: 1}
	member := Key{ChatID: -100, UserID: 2}

	require.NoError(t, AwaitReach(ctx, st, admin, 3, DefaultTTL))
	require.NoError(t, AwaitAdData(ctx, st, member, ads.TypeCPM, DefaultTTL))
	assert.True(t, mr.Exists("adsbot:session:-100:1"))
	assert.True(t, mr.Exists("adsbot:session:-100:2"))

	require.NoError(t, st.Clear(ctx, member))
	s, err := st.Get(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingReach, s.State)
	assert.False(t, mr.Exists("adsbot:session:-100:2"))
}

func TestRedisStore_MissingIsIdle(t *testing.T) {
	st, _ := newRedisStore(t)
	k := Key{ChatID: 1, UserID: 2}

	s, err := st.Get(context.Background(), k)
	require.NoError(t, err)
	assert.Equal(t, Idle(k), s)
}

func TestRedisStore_KeyExpires(t *testing.T) {
	st, mr := newRedisStore(t)
	ctx := context.Background()
	k := Key{ChatID: 7, UserID: 7}

	require.NoError(t, AwaitAdData(ctx, st, k, ads.TypeFixed, time.Minute))
	mr.FastForward(2 * time.Minute)

	s, err := st.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State)
}

func TestRedisStore_SaveIdleDeletes(t *testing.T) {
	st, mr := newRedisStore(t)
	ctx := context.Background()
	k := Key{ChatID: 3, UserID: 4}

	require.NoError(t, AwaitReach(ctx, st, k, 1, DefaultTTL))
	require.NoError(t, st.Save(ctx, Idle(k)))
	assert.False(t, mr.Exists("adsbot:session:3:4"))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	st, mr := newRedisStore(t)
	require.NoError(t, mr.Set("adsbot:session:9:1", "{not json"))

	s, err := st.Get(context.Background(), Key{ChatID: 9, UserID: 1})
	require.Error(t, err)
	assert.Equal(t, StateIdle, s.State)
}
