package cache

// line is one way of a set. A line is created invalid and becomes
// valid on its first fill; eviction overwrites its tag and timestamp
// in place.
type line struct {
	valid bool
	tag   uint64
	// stamp is the value of the global access counter when this line
	// was filled (FIFO and LRU) or last hit (LRU only).
	stamp uint64
}

// AccessResult describes the outcome of one simulated cache-line
// access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Evicted is true if a resident block was evicted to make room.
	Evicted bool
	// EvictedTag is the tag of the evicted block (if Evicted is true).
	EvictedTag uint64
	// SetIndex and Tag are the decomposition of the accessed address.
	SetIndex uint64
	Tag      uint64
	// WayID is the way the access resolved to: the hit line, the
	// filled empty way, or the victim.
	WayID int
}

// Statistics holds the aggregate counters of a run. Counters only ever
// increase, and only Access increments them.
type Statistics struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is the simulated set-associative cache: the S×K grid of line
// metadata, the policy, and the run counters. It is not safe for
// concurrent use; the replacement policies are a function of access
// order, so accesses must be applied strictly sequentially anyway.
type Cache struct {
	geom   Geometry
	policy Policy

	sets [][]line

	// clock is the global access counter. It advances by exactly one
	// per Access call, hit or miss, and is the sole timestamp source.
	clock uint64

	stats Statistics
}

// New allocates a cache from the given geometry with all lines
// invalid. The set/way grid is sized once and never resized.
func New(geom Geometry, policy Policy) *Cache {
	sets := make([][]line, geom.NumSets)
	for i := range sets {
		sets[i] = make([]line, geom.LinesPerSet)
	}

	return &Cache{
		geom:   geom,
		policy: policy,
		sets:   sets,
	}
}

// Geometry returns the cache geometry.
func (c *Cache) Geometry() Geometry {
	return c.geom
}

// Policy returns the active eviction policy.
func (c *Cache) Policy() Policy {
	return c.policy
}

// Stats returns the counters accumulated so far.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Access simulates one cache-line access to addr and updates the
// counters and line metadata. It is total: any address against any
// cache state resolves to a hit, a plain miss, or a miss with
// eviction.
func (c *Cache) Access(addr uint64) AccessResult {
	setIndex, tag := c.geom.Decompose(addr)
	set := c.sets[setIndex]

	result := AccessResult{
		SetIndex: setIndex,
		Tag:      tag,
		WayID:    -1,
	}

	firstEmpty := -1
	for way := range set {
		if !set[way].valid {
			if firstEmpty < 0 {
				firstEmpty = way
			}
			continue
		}
		if set[way].tag == tag {
			// At most one valid line per set holds a given tag, so
			// the first match is the only match.
			result.Hit = true
			result.WayID = way
			break
		}
	}

	switch {
	case result.Hit:
		c.stats.Hits++
		if c.policy == PolicyLRU {
			set[result.WayID].stamp = c.clock
		}
		// A FIFO hit leaves the timestamp alone: insertion order, and
		// therefore eviction order, is unaffected by reuse.

	case firstEmpty >= 0:
		c.stats.Misses++
		result.WayID = firstEmpty
		set[firstEmpty] = line{valid: true, tag: tag, stamp: c.clock}

	default:
		c.stats.Misses++
		c.stats.Evictions++
		victim := c.findVictim(set)
		result.Evicted = true
		result.EvictedTag = set[victim].tag
		result.WayID = victim
		set[victim] = line{valid: true, tag: tag, stamp: c.clock}
	}

	c.clock++

	return result
}

// findVictim returns the way with the minimum timestamp in a full set.
// Ties break toward the lowest way index, though timestamps are unique
// in practice because the clock never repeats a value.
//
// Because FIFO never refreshes timestamps, the minimum-stamp line is
// the oldest inserted one; because LRU refreshes on every hit, it is
// the least recently accessed one. One rule serves both policies.
func (c *Cache) findVictim(set []line) int {
	victim := 0
	for way := 1; way < len(set); way++ {
		if set[way].stamp < set[victim].stamp {
			victim = way
		}
	}

	return victim
}
