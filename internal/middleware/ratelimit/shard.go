package ratelimit

import (
	"hash/fnv"
	"sync"
)

const numShards = 64

type shard struct {
	mu    sync.Mutex
	items map[string]*bucket
}

// shardedMap is a concurrent string-keyed map split into fixed shards to
// reduce lock contention across many distinct rate-limit keys.
type shardedMap struct {
	shards [numShards]shard
}

func newShardedMap() *shardedMap {
	var m shardedMap
	for i := range m.shards {
		m.shards[i].items = make(map[string]*bucket)
	}
	return &m
}

func (m *shardedMap) getShard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.shards[h.Sum32()%numShards]
}

// deleteFunc iterates all shards and deletes entries for which fn returns true.
func (m *shardedMap) deleteFunc(fn func(key string, b *bucket) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, b := range s.items {
			if fn(k, b) {
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
}
