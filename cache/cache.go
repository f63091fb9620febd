package cache

import (
	"sync"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/inode"
)

// A fixed-size cache of inodes keyed by inode number. Slots are filled
// in order; once every slot is in use, a victim is picked with the CLOCK
// (second-chance) policy: the hand sweeps the slots, clearing reference
// bits, and replaces the first slot whose bit is already clear. An entry
// that was referenced since the hand last passed survives one more sweep.
// Lookup returns copies, so callers never share an inode with the cache.

type entry struct {
	inum common.Inum
	ip   inode.Inode
	ref  bool
}

type Cache struct {
	mu      *sync.Mutex
	entries []entry
	cnt     uint64 // # filled slots
	hand    uint64

	hits   uint64
	misses uint64
}

func MkCache(sz uint64) *Cache {
	if sz == 0 {
		panic("MkCache")
	}
	return &Cache{
		mu:      new(sync.Mutex),
		entries: make([]entry, sz),
	}
}

func (c *Cache) find(inum common.Inum) (uint64, bool) {
	for i := uint64(0); i < c.cnt; i++ {
		if c.entries[i].inum == inum {
			return i, true
		}
	}
	return 0, false
}

func (c *Cache) Lookup(inum common.Inum) (inode.Inode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.find(inum)
	if !ok {
		c.misses++
		return inode.Inode{}, false
	}
	c.hits++
	c.entries[i].ref = true
	return c.entries[i].ip, true
}

// evict sweeps from the hand and returns the slot to replace.
func (c *Cache) evict() uint64 {
	for {
		i := c.hand
		c.hand = (c.hand + 1) % uint64(len(c.entries))
		if !c.entries[i].ref {
			util.DPrintf(10, "evict: slot %d inode %d\n", i, c.entries[i].inum)
			return i
		}
		c.entries[i].ref = false
	}
}

// Update records the current contents of an inode.
func (c *Cache) Update(ip inode.Inode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.find(ip.Inum)
	if !ok {
		if c.cnt < uint64(len(c.entries)) {
			i = c.cnt
			c.cnt = c.cnt + 1
		} else {
			i = c.evict()
		}
	}
	c.entries[i] = entry{inum: ip.Inum, ip: ip, ref: true}
}

func (c *Cache) Len() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cnt
}

func (c *Cache) Stats() (hits uint64, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) PrintCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := uint64(0); i < c.cnt; i++ {
		e := c.entries[i]
		util.DPrintf(5, "Entry %d: %v ref %t\n", i, &e.ip, e.ref)
	}
}
