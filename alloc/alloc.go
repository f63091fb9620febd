package alloc

import (
	"errors"
	"sync"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/bitmap"
	"github.com/mit-pdos/go-sfs/common"
)

var ErrDiskFull = errors.New("disk full")

// BlockAlloc hands out data blocks. Blocks below start (the superblock and
// the inode table) are permanently in use.
type BlockAlloc struct {
	mu    *sync.Mutex // protects used
	used  *bitmap.Bitmap
	start common.Bnum
}

func MkBlockAlloc(start common.Bnum, max common.Bnum) *BlockAlloc {
	if start > max {
		panic("MkBlockAlloc")
	}
	a := &BlockAlloc{
		mu:    new(sync.Mutex),
		used:  bitmap.MkBitmap(max),
		start: start,
	}
	for bn := common.Bnum(0); bn < start; bn++ {
		a.used.Set(bn)
	}
	return a
}

func (a *BlockAlloc) Max() common.Bnum {
	return a.used.Len()
}

// AllocOrValidate returns bn unchanged if it is already a block number on
// this volume, and otherwise allocates the lowest free data block.
func (a *BlockAlloc) AllocOrValidate(bn common.Bnum) (common.Bnum, error) {
	if bn != common.NULLBNUM && bn < a.used.Len() {
		return bn, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.used.FindFree(a.start)
	if !ok {
		util.DPrintf(1, "AllocOrValidate: no free block\n")
		return common.NULLBNUM, ErrDiskFull
	}
	a.used.Set(n)
	util.DPrintf(10, "AllocOrValidate -> %d\n", n)
	return n, nil
}

// Release frees bn. Releasing block 0 is a no-op.
func (a *BlockAlloc) Release(bn common.Bnum) {
	if bn == common.NULLBNUM {
		return
	}
	if bn < a.start {
		panic("Release: metadata block")
	}
	a.mu.Lock()
	a.used.Clear(bn)
	a.mu.Unlock()
	util.DPrintf(10, "Release %d\n", bn)
}

// MarkUsed records bn as occupied; the mount scan calls this for every
// block reachable from a valid inode.
func (a *BlockAlloc) MarkUsed(bn common.Bnum) {
	a.mu.Lock()
	a.used.Set(bn)
	a.mu.Unlock()
}

func (a *BlockAlloc) IsUsed(bn common.Bnum) bool {
	if bn >= a.used.Len() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used.IsSet(bn)
}

func (a *BlockAlloc) NumFree() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used.Len() - a.used.NumSet()
}

// InodeTable tracks which inode slots hold a valid inode.
type InodeTable struct {
	mu   *sync.Mutex // protects used
	used *bitmap.Bitmap
}

func MkInodeTable(ninode common.Inum) *InodeTable {
	return &InodeTable{
		mu:   new(sync.Mutex),
		used: bitmap.MkBitmap(uint64(ninode)),
	}
}

func (t *InodeTable) Len() common.Inum {
	return common.Inum(t.used.Len())
}

func (t *InodeTable) AllocInum() (common.Inum, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.used.FindFree(0)
	if !ok {
		util.DPrintf(1, "AllocInum: inode table full\n")
		return 0, ErrDiskFull
	}
	t.used.Set(n)
	return common.Inum(n), nil
}

func (t *InodeTable) ReleaseInum(inum common.Inum) {
	t.mu.Lock()
	t.used.Clear(uint64(inum))
	t.mu.Unlock()
}

func (t *InodeTable) MarkUsed(inum common.Inum) {
	t.mu.Lock()
	t.used.Set(uint64(inum))
	t.mu.Unlock()
}

func (t *InodeTable) IsUsed(inum common.Inum) bool {
	if uint64(inum) >= t.used.Len() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used.IsSet(uint64(inum))
}

func (t *InodeTable) NumFree() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used.Len() - t.used.NumSet()
}
