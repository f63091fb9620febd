package sfs

import (
	"time"

	"github.com/goose-lang/std"
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/common"
)

// Read copies bytes of inode inum starting at off into buf. It stops at
// the end of buf, at the end of the file, or at the first block that was
// never written, and returns the number of bytes copied.
func (v *Volume) Read(inum common.Inum, off uint64, buf []byte) (uint64, error) {
	defer v.recordOp(READ, time.Now())
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return 0, ErrNotMounted
	}
	v.lockInode(inum)
	defer v.unlockInode(inum)

	ip, err := v.loadInode(inum)
	if err != nil {
		return 0, err
	}
	if off >= ip.Size {
		return 0, nil
	}
	count := util.Min(uint64(len(buf)), ip.Size-off)
	util.DPrintf(5, "Read: # %d off %d cnt %d\n", inum, off, count)

	var n uint64
	for n < count {
		pos := off + n
		byteoff := pos % disk.BlockSize
		nbytes := util.Min(disk.BlockSize-byteoff, count-n)
		blkno, _, err := v.bmap(&ip, pos/disk.BlockSize, false)
		if err != nil || blkno == common.NULLBNUM {
			util.DPrintf(5, "Read: hole at %d\n", pos)
			break
		}
		blk := v.dev.Read(blkno)
		copy(buf[n:n+nbytes], blk[byteoff:byteoff+nbytes])
		n += nbytes
	}
	util.DPrintf(10, "Read: # %d off %d -> %d bytes\n", inum, off, n)
	return n, nil
}

// Write copies data into inode inum at off, allocating blocks as needed,
// and returns the number of bytes written. Running out of blocks part
// way through is not an error: the bytes written so far are kept and
// counted. ErrDiskFull is returned only if nothing could be written.
func (v *Volume) Write(inum common.Inum, off uint64, data []byte) (uint64, error) {
	defer v.recordOp(WRITE, time.Now())
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return 0, ErrNotMounted
	}
	v.lockInode(inum)
	defer v.unlockInode(inum)

	ip, err := v.loadInode(inum)
	if err != nil {
		return 0, err
	}
	orig := ip

	count := uint64(len(data))
	max := common.MaxFileSize()
	if !std.SumNoOverflow(off, count) || off+count > max {
		if off >= max {
			return 0, ErrFileTooBig
		}
		count = max - off
	}
	util.DPrintf(5, "Write: # %d off %d cnt %d\n", inum, off, count)

	var n uint64
	var werr error
	for n < count {
		pos := off + n
		byteoff := pos % disk.BlockSize
		nbytes := util.Min(disk.BlockSize-byteoff, count-n)
		blkno, fresh, err := v.bmap(&ip, pos/disk.BlockSize, true)
		if err != nil {
			werr = err
			break
		}
		var blk disk.Block
		if fresh || (byteoff == 0 && nbytes == disk.BlockSize) {
			blk = make(disk.Block, disk.BlockSize)
		} else {
			blk = v.dev.Read(blkno)
		}
		copy(blk[byteoff:byteoff+nbytes], data[n:n+nbytes])
		v.dev.Write(blkno, blk)
		n += nbytes
	}

	if n > 0 && off+n > ip.Size {
		ip.Size = off + n
	}
	// pointer blocks may have been allocated even if no data was written
	if ip != orig {
		v.saveInode(&ip)
	}
	util.DPrintf(1, "Write: # %d off %d cnt %d size %d\n", inum, off, n, ip.Size)
	if n == 0 && werr != nil {
		return 0, werr
	}
	return n, nil
}
