// Package loadbalancer implements concurrency-safe weighted round-robin
// selection over a fixed set of upstreams.
package loadbalancer

import "sync/atomic"

// maxUpstreams bounds the size of a single service's upstream pool; indices
// into the weighted selection array are stored as uint16.
const maxUpstreams = 65535

// Upstream is one backend endpoint and the weight it was configured with.
type Upstream struct {
	Target string
	Weight int
}

// LoadBalancer selects upstreams in a deterministic, weight-proportional
// cyclic order. Construction precomputes a flattened index-replication
// array so that Select is an O(1) atomic increment with no locking.
type LoadBalancer struct {
	upstreams []Upstream
	weighted  []uint16 // upstreams[i] replicated Weight times
	cursor    uint32
}

// New builds a LoadBalancer over upstreams, truncating to maxUpstreams
// entries.
func New(upstreams []Upstream) *LoadBalancer {
	if len(upstreams) > maxUpstreams {
		upstreams = upstreams[:maxUpstreams]
	}

	lb := &LoadBalancer{upstreams: upstreams}
	for i, u := range upstreams {
		if u.Weight <= 0 {
			continue
		}
		for n := 0; n < u.Weight; n++ {
			lb.weighted = append(lb.weighted, uint16(i))
		}
	}
	return lb
}

// Select returns the next upstream in the weighted cyclic sequence, or
// false if every upstream has weight zero (or there are no upstreams at
// all). Safe for concurrent use; two concurrent callers may observe either
// ordering of the next two slots, but the long-run distribution matches
// the configured weight ratios.
func (lb *LoadBalancer) Select() (Upstream, bool) {
	n := uint32(len(lb.weighted))
	if n == 0 {
		return Upstream{}, false
	}

	for {
		cur := atomic.LoadUint32(&lb.cursor)
		next := (cur + 1) % n
		if atomic.CompareAndSwapUint32(&lb.cursor, cur, next) {
			return lb.upstreams[lb.weighted[cur]], true
		}
	}
}

// Len returns the number of configured upstreams (not the weighted array).
func (lb *LoadBalancer) Len() int {
	return len(lb.upstreams)
}
