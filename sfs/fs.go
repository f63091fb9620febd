package sfs

import (
	"fmt"
	"sync"

	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/lockmap"
	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/alloc"
	"github.com/mit-pdos/go-sfs/blockdev"
	"github.com/mit-pdos/go-sfs/cache"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/inode"
	"github.com/mit-pdos/go-sfs/super"
	"github.com/mit-pdos/go-sfs/util/stats"
)

// Volume is a mounted file system. Locks are taken in the order mu,
// inode lock, inode-block lock; the allocators and the cache lock
// internally and never call back out.
type Volume struct {
	mu      *sync.RWMutex // shared for ops, exclusive for unmount
	mounted bool

	dev    *blockdev.Device
	Super  *super.FsSuper
	balloc *alloc.BlockAlloc
	itable *alloc.InodeTable
	icache *cache.Cache

	ilocks *lockmap.LockMap // keyed by inum
	blocks *lockmap.LockMap // keyed by inode-table block

	ops *stats.Set
}

// Format writes an empty file system to dev: the superblock in block 0
// and zeros everywhere else.
func Format(dev *blockdev.Device) error {
	if dev.Mounted() {
		return ErrFormatConflict
	}
	sz := dev.Size()
	if sz > uint64(^uint32(0)) {
		return fmt.Errorf("%w: %d blocks", ErrDeviceTooLarge, sz)
	}
	fs := super.MkFsSuper(sz)
	if fs.DataStart() >= fs.MaxBnum() {
		return fmt.Errorf("%w: %d blocks", ErrDeviceTooSmall, sz)
	}
	util.DPrintf(1, "Format: %v\n", fs)
	dev.Write(common.SUPERBNUM, fs.Encode())
	zero := make(disk.Block, disk.BlockSize)
	for bn := common.SUPERBNUM + 1; bn < sz; bn++ {
		dev.Write(bn, zero)
	}
	dev.Barrier()
	return nil
}

// Mount validates the superblock on dev and rebuilds the block and inode
// bitmaps by scanning the inode table.
func Mount(dev *blockdev.Device) (*Volume, error) {
	if dev.Mounted() {
		return nil, ErrAlreadyMounted
	}
	fs := super.Decode(dev.Read(common.SUPERBNUM))
	if err := fs.Validate(dev.Size()); err != nil {
		util.DPrintf(1, "Mount: %v\n", err)
		return nil, err
	}
	v := &Volume{
		mu:     new(sync.RWMutex),
		dev:    dev,
		Super:  fs,
		balloc: alloc.MkBlockAlloc(fs.DataStart(), fs.MaxBnum()),
		itable: alloc.MkInodeTable(fs.NInode()),
		icache: cache.MkCache(common.NICACHE),
		ilocks: lockmap.MkLockMap(),
		blocks: lockmap.MkLockMap(),
		ops:    stats.NewSet(opNames),
	}
	v.scan()
	v.mounted = true
	dev.Mount()
	util.DPrintf(1, "Mount: %v, %d free blocks, %d free inodes\n", fs,
		v.balloc.NumFree(), v.itable.NumFree())
	return v, nil
}

// Unmount flushes the device and drops the in-memory state. Operations
// on v fail with ErrNotMounted afterwards.
func (v *Volume) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.dev.Barrier()
	v.icache.PrintCache()
	v.mounted = false
	v.balloc = nil
	v.itable = nil
	v.icache = nil
	v.dev.Unmount()
	util.DPrintf(1, "Unmount\n")
}

func (v *Volume) Mounted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mounted
}

// scan marks every valid inode and every block reachable from one.
func (v *Volume) scan() {
	for i := uint64(0); i < v.Super.InodeBlocks; i++ {
		blk := v.dev.Read(v.Super.InodeStart() + i)
		for j := uint64(0); j < common.INODEBLK; j++ {
			inum := common.Inum(i*common.INODEBLK + j)
			ip := inode.Get(blk, j*common.INODESZ, inum)
			if !ip.Valid {
				continue
			}
			v.itable.MarkUsed(inum)
			for _, bn := range ip.Direct {
				v.markTree(bn, 0)
			}
			v.markTree(ip.Indirect, 1)
			v.markTree(ip.DIndirect, 2)
		}
	}
}

// markTree marks root and, for pointer blocks (level > 0), everything
// below it.
func (v *Volume) markTree(root common.Bnum, level uint64) {
	if !v.owned(root) {
		return
	}
	v.balloc.MarkUsed(root)
	if level == 0 {
		return
	}
	for _, bn := range inode.DecodePtrs(v.dev.Read(root)) {
		v.markTree(bn, level-1)
	}
}

// owned reports whether an inode pointer names a data or pointer block.
func (v *Volume) owned(bn common.Bnum) bool {
	if bn == common.NULLBNUM {
		return false
	}
	if !v.Super.ValidBnum(bn) {
		util.DPrintf(0, "ignoring out-of-range block pointer %d\n", bn)
		return false
	}
	return true
}

func (v *Volume) checkInum(inum common.Inum) error {
	if inum >= v.Super.NInode() {
		return fmt.Errorf("%w: %d", ErrInvalidInum, inum)
	}
	if !v.itable.IsUsed(inum) {
		return fmt.Errorf("%w: %d", ErrNotAllocated, inum)
	}
	return nil
}

// loadInode returns a copy of inode inum. The caller holds its inode
// lock.
func (v *Volume) loadInode(inum common.Inum) (inode.Inode, error) {
	if err := v.checkInum(inum); err != nil {
		return inode.Inode{}, err
	}
	if ip, ok := v.icache.Lookup(inum); ok {
		return ip, nil
	}
	bn, off := v.Super.Inum2Blk(inum)
	ip := inode.Get(v.dev.Read(bn), off, inum)
	util.DPrintf(5, "loadInode # %v: read inode from disk\n", inum)
	v.icache.Update(ip)
	return ip, nil
}

// saveInode writes ip's record back into its inode-table block and into
// the cache.
func (v *Volume) saveInode(ip *inode.Inode) {
	if ip.Inum >= v.Super.NInode() {
		panic("saveInode")
	}
	bn, off := v.Super.Inum2Blk(ip.Inum)
	v.blocks.Acquire(bn)
	blk := v.dev.Read(bn)
	inode.Put(blk, off, ip)
	v.dev.Write(bn, blk)
	v.blocks.Release(bn)
	v.icache.Update(*ip)
	util.DPrintf(5, "saveInode %v\n", ip)
}

func (v *Volume) lockInode(inum common.Inum) {
	v.ilocks.Acquire(uint64(inum))
}

func (v *Volume) unlockInode(inum common.Inum) {
	v.ilocks.Release(uint64(inum))
}
