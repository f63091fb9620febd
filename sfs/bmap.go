package sfs

import (
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/inode"
)

const NINDLEVEL uint64 = 2 // # levels of indirection

// # file blocks reachable through a pointer at level
func pow(level uint64) uint64 {
	var p uint64 = 1
	for i := uint64(0); i < level; i++ {
		p = p * common.NBLKBLK
	}
	return p
}

// getBlock checks or fills one pointer. Without alloc, a pointer that is
// 0, points outside the data area, or names a block the bitmap thinks is
// free maps to NULLBNUM. With
// alloc, a 0 pointer gets a newly allocated block and fresh is true.
func (v *Volume) getBlock(bn common.Bnum, alloc bool) (blkno common.Bnum, fresh bool, err error) {
	if !alloc {
		if bn == common.NULLBNUM || !v.Super.ValidBnum(bn) || !v.balloc.IsUsed(bn) {
			return common.NULLBNUM, false, nil
		}
		return bn, false, nil
	}
	if bn != common.NULLBNUM && !v.Super.ValidBnum(bn) {
		util.DPrintf(0, "replacing out-of-range block pointer %d\n", bn)
		bn = common.NULLBNUM
	}
	blkno, err = v.balloc.AllocOrValidate(bn)
	if err != nil {
		return common.NULLBNUM, false, err
	}
	return blkno, blkno != bn, nil
}

// indbmap resolves off within the tree rooted at root, level levels above
// the data blocks. It returns the data block and the (possibly new) root.
// A new pointer block is zeroed on disk before anything points into it.
func (v *Volume) indbmap(root common.Bnum, level uint64, off uint64,
	alloc bool) (common.Bnum, common.Bnum, bool, error) {
	root, fresh, err := v.getBlock(root, alloc)
	if err != nil || root == common.NULLBNUM {
		return common.NULLBNUM, root, false, err
	}
	if level == 0 { // leaf?
		return root, root, fresh, nil
	}

	var buf disk.Block
	if fresh {
		buf = inode.EncodePtrs(nil)
		v.dev.Write(root, buf)
	} else {
		buf = v.dev.Read(root)
	}
	divisor := pow(level - 1)
	slot := off / divisor
	nxtroot := inode.PtrGet(buf, slot)
	util.DPrintf(15, "%d next root %v level %d\n", root, nxtroot, level)
	blkno, newnxtroot, f, err := v.indbmap(nxtroot, level-1, off%divisor, alloc)
	if alloc && newnxtroot != nxtroot {
		inode.PtrPut(buf, slot, newnxtroot)
		v.dev.Write(root, buf)
	}
	return blkno, root, f, err
}

// bmap maps file block bn of ip to a disk block. With alloc, missing
// blocks along the way are allocated and ip's pointers are updated in
// place; the caller saves ip. Without alloc, a hole maps to NULLBNUM.
func (v *Volume) bmap(ip *inode.Inode, bn uint64, alloc bool) (common.Bnum, bool, error) {
	if bn < common.NDIRECT {
		blkno, fresh, err := v.getBlock(ip.Direct[bn], alloc)
		if alloc && err == nil {
			ip.Direct[bn] = blkno
		}
		return blkno, fresh, err
	}
	var off = bn - common.NDIRECT
	if off < pow(1) {
		blkno, root, fresh, err := v.indbmap(ip.Indirect, 1, off, alloc)
		if alloc && root != common.NULLBNUM {
			ip.Indirect = root
		}
		return blkno, fresh, err
	}
	off -= pow(1)
	if off < pow(NINDLEVEL) {
		blkno, root, fresh, err := v.indbmap(ip.DIndirect, NINDLEVEL, off, alloc)
		if alloc && root != common.NULLBNUM {
			ip.DIndirect = root
		}
		return blkno, fresh, err
	}
	return common.NULLBNUM, false, ErrFileTooBig
}

// indfree releases root and, for pointer blocks, everything below it.
func (v *Volume) indfree(root common.Bnum, level uint64) {
	if !v.owned(root) {
		return
	}
	if level > 0 {
		for _, bn := range inode.DecodePtrs(v.dev.Read(root)) {
			v.indfree(bn, level-1)
		}
	}
	v.balloc.Release(root)
}
