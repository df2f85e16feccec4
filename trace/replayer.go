package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/cache"
)

// An Observer is notified of every simulated cache-line access during
// replay. Observers must not mutate the cache; they exist for logging,
// recording, and tests, and never affect the counters.
type Observer interface {
	Observe(rec Record, addr uint64, result cache.AccessResult)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(rec Record, addr uint64, result cache.AccessResult)

// Observe calls f.
func (f ObserverFunc) Observe(rec Record, addr uint64, result cache.AccessResult) {
	f(rec, addr, result)
}

// Replayer drives a cache model from a trace, turning each record into
// the sequence of cache-line accesses it implies.
type Replayer struct {
	cache     *cache.Cache
	observers []Observer
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithObserver registers an observer for every simulated access.
func WithObserver(o Observer) Option {
	return func(r *Replayer) {
		r.observers = append(r.observers, o)
	}
}

// NewReplayer creates a replayer over the given cache.
func NewReplayer(c *cache.Cache, opts ...Option) *Replayer {
	r := &Replayer{cache: c}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Replay consumes the trace stream to exhaustion, applying each record
// in order. It returns an error naming the line number on the first
// record that cannot be parsed.
func (r *Replayer) Replay(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		rec, ok, err := ParseRecord(scanner.Text())
		if err != nil {
			return fmt.Errorf("trace line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}

		r.Process(rec)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}

	return nil
}

// Process applies one record to the cache. Loads and stores run their
// access sequence once; a modify runs it twice, modeling the read
// followed by the write. The second pass normally hits because the
// first pass just installed the blocks, but with single-way thrashing
// it can miss again, and that is allowed.
func (r *Replayer) Process(rec Record) {
	r.runAccesses(rec)
	if rec.Op == OpModify {
		r.runAccesses(rec)
	}
}

// runAccesses walks the byte range [rec.Addr, rec.Addr+rec.Size-1] and
// issues one cache access per distinct line touched, in ascending
// address order.
//
// Line boundaries are detected by comparing full, untruncated block
// numbers. Masking the block number down to the offset bit width would
// falsely merge distinct blocks whose low-order bits coincide.
func (r *Replayer) runAccesses(rec Record) {
	geom := r.cache.Geometry()

	var prevBlock uint64
	for off := uint64(0); off < rec.Size; off++ {
		addr := rec.Addr + off
		block := geom.BlockNumber(addr)
		if off > 0 && block == prevBlock {
			continue
		}
		prevBlock = block

		result := r.cache.Access(addr)
		for _, o := range r.observers {
			o.Observe(rec, addr, result)
		}
	}
}
