package projections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcadvisor/internal/model"
)

type memLists struct {
	lists map[string][]string
	ttl   map[string]time.Duration
	err   error
}

func newMemLists() *memLists {
	return &memLists{lists: map[string][]string{}, ttl: map[string]time.Duration{}}
}

func (m *memLists) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	for _, v := range values {
		m.lists[key] = append([]string{fmt.Sprintf("%s", v)}, m.lists[key]...)
	}
	return redis.NewIntResult(int64(len(m.lists[key])), nil)
}

func (m *memLists) LTrim(_ context.Context, key string, start, stop int64) *redis.StatusCmd {
	l := m.lists[key]
	if int(stop)+1 < len(l) {
		m.lists[key] = l[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memLists) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	m.ttl[key] = d
	return redis.NewBoolResult(true, nil)
}

func TestRecentFeedCapsNewestFirst(t *testing.T) {
	lists := newMemLists()
	feed := NewRecentFeed(lists)

	for i := 1; i <= RecentCap+5; i++ {
		require.NoError(t, feed.Apply(t.Context(), model.PartAccepted{PartID: int64(i), Category: model.SSD}))
	}
	require.NoError(t, feed.Apply(t.Context(), model.PartAccepted{PartID: 999, Category: model.Category(-1)}))

	l := lists.lists[RecentKey(model.SSD)]
	require.Len(t, l, RecentCap)
	var newest model.PartAccepted
	require.NoError(t, json.Unmarshal([]byte(l[0]), &newest))
	assert.Equal(t, int64(RecentCap+5), newest.PartID)
	assert.Equal(t, RecentTTL, lists.ttl[RecentKey(model.SSD)])
	assert.Len(t, lists.lists, 1)
}

func TestFanoutAppliesEveryProjector(t *testing.T) {
	lists := newMemLists()
	broken := NewFilterIndex(&memSets{err: errors.New("redis down")})

	err := Fanout(broken, NewRecentFeed(lists))(t.Context(),
		[]byte(`{"part_id":7,"category":"GPU","specs":{"nvidia_chipset":"RTX 4060"}}`))
	assert.EqualError(t, err, "redis down")
	assert.Len(t, lists.lists[RecentKey(model.GPU)], 1)
}
