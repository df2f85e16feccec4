package cache_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachesim/cache"
)

// akitaReplay drives an Akita cache directory through the same access
// stream as the model under test, counting hits, misses, and
// evictions. The directory is driven the way a timing cache drives it:
// Lookup with the block-aligned address, Visit on hit, FindVictim and
// fill on miss.
type akitaReplay struct {
	directory *akitacache.DirectoryImpl
	blockSize uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

func newAkitaReplay(numSets, ways, blockSize int) *akitaReplay {
	return &akitaReplay{
		directory: akitacache.NewDirectory(
			numSets,
			ways,
			blockSize,
			akitacache.NewLRUVictimFinder(),
		),
		blockSize: uint64(blockSize),
	}
}

func (r *akitaReplay) access(addr uint64) {
	blockAddr := addr / r.blockSize * r.blockSize

	block := r.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		r.hits++
		r.directory.Visit(block)
		return
	}

	r.misses++
	victim := r.directory.FindVictim(blockAddr)
	if victim.IsValid {
		r.evictions++
	}
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	r.directory.Visit(victim)
}

var _ = Describe("LRU cross-validation against the Akita directory", func() {
	// Both sides implement exact LRU over a deterministic access
	// stream, so their counters must agree access for access.
	replayBoth := func(numSets, ways, blockSize int, addrs []uint64) {
		c := cache.New(
			cache.NewGeometry(numSets, ways, blockSize), cache.PolicyLRU)
		reference := newAkitaReplay(numSets, ways, blockSize)

		for _, addr := range addrs {
			c.Access(addr)
			reference.access(addr)

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(reference.hits))
			Expect(stats.Misses).To(Equal(reference.misses))
			Expect(stats.Evictions).To(Equal(reference.evictions))
		}
	}

	It("should agree on a hand-picked conflict pattern", func() {
		replayBoth(2, 2, 16, []uint64{
			0x00, 0x20, 0x40, 0x00, 0x60, 0x20, 0x80, 0x00, 0x40,
		})
	})

	It("should agree on random traces", func() {
		rng := rand.New(rand.NewSource(42))

		for trial := 0; trial < 20; trial++ {
			addrs := make([]uint64, 500)
			for i := range addrs {
				// A small address space keeps the sets colliding.
				addrs[i] = uint64(rng.Intn(1 << 10))
			}
			replayBoth(4, 2, 16, addrs)
		}
	})

	It("should agree on a fully-associative cache", func() {
		rng := rand.New(rand.NewSource(7))

		addrs := make([]uint64, 300)
		for i := range addrs {
			addrs[i] = uint64(rng.Intn(1 << 8))
		}
		replayBoth(1, 4, 16, addrs)
	})
})
