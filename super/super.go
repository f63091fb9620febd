package super

import (
	"errors"
	"fmt"

	"github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/common"
)

var ErrCorrupt = errors.New("corrupt superblock")

// FsSuper is the volume header stored in block 0.
type FsSuper struct {
	Magic       uint32
	Blocks      uint64
	InodeBlocks uint64
	Inodes      uint64
}

// NInodeBlk is the number of blocks reserved for the inode table on a
// volume of sz blocks: 10% of the disk, rounded up.
func NInodeBlk(sz uint64) uint64 {
	return util.RoundUp(sz*common.PCTINODE, 100)
}

func MkFsSuper(sz uint64) *FsSuper {
	ninodeblk := NInodeBlk(sz)
	return &FsSuper{
		Magic:       common.MAGIC,
		Blocks:      sz,
		InodeBlocks: ninodeblk,
		Inodes:      ninodeblk * common.INODEBLK,
	}
}

func (fs *FsSuper) String() string {
	return fmt.Sprintf("magic %#x blocks %d inode blocks %d inodes %d",
		fs.Magic, fs.Blocks, fs.InodeBlocks, fs.Inodes)
}

func (fs *FsSuper) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt32(fs.Magic)
	enc.PutInt32(uint32(fs.Blocks))
	enc.PutInt32(uint32(fs.InodeBlocks))
	enc.PutInt32(uint32(fs.Inodes))
	return enc.Finish()
}

func Decode(blk disk.Block) *FsSuper {
	dec := marshal.NewDec(blk)
	fs := &FsSuper{}
	fs.Magic = dec.GetInt32()
	fs.Blocks = uint64(dec.GetInt32())
	fs.InodeBlocks = uint64(dec.GetInt32())
	fs.Inodes = uint64(dec.GetInt32())
	return fs
}

// Validate checks the header counts against each other and against the
// size of the device the header was read from.
func (fs *FsSuper) Validate(devsz uint64) error {
	if fs.Magic != common.MAGIC {
		return fmt.Errorf("%w: bad magic %#x", ErrCorrupt, fs.Magic)
	}
	if fs.Blocks == 0 {
		return fmt.Errorf("%w: zero blocks", ErrCorrupt)
	}
	if fs.Blocks > devsz {
		return fmt.Errorf("%w: %d blocks on a %d-block device", ErrCorrupt, fs.Blocks, devsz)
	}
	if fs.InodeBlocks != NInodeBlk(fs.Blocks) {
		return fmt.Errorf("%w: %d inode blocks, expected %d", ErrCorrupt,
			fs.InodeBlocks, NInodeBlk(fs.Blocks))
	}
	if fs.Inodes == 0 || fs.Inodes%common.INODEBLK != 0 {
		return fmt.Errorf("%w: %d inodes", ErrCorrupt, fs.Inodes)
	}
	if fs.Inodes != fs.InodeBlocks*common.INODEBLK {
		return fmt.Errorf("%w: %d inodes in %d inode blocks", ErrCorrupt,
			fs.Inodes, fs.InodeBlocks)
	}
	if fs.DataStart() >= fs.MaxBnum() {
		return fmt.Errorf("%w: no data blocks after %d inode blocks", ErrCorrupt,
			fs.InodeBlocks)
	}
	return nil
}

func (fs *FsSuper) InodeStart() common.Bnum {
	return common.SUPERBNUM + 1
}

func (fs *FsSuper) DataStart() common.Bnum {
	return fs.InodeStart() + common.Bnum(fs.InodeBlocks)
}

func (fs *FsSuper) MaxBnum() common.Bnum {
	return common.Bnum(fs.Blocks)
}

func (fs *FsSuper) NInode() common.Inum {
	return common.Inum(fs.Inodes)
}

// Inum2Blk returns the inode-table block holding inum and the byte offset
// of its record within that block.
func (fs *FsSuper) Inum2Blk(inum common.Inum) (common.Bnum, uint64) {
	blk := fs.InodeStart() + common.Bnum(uint64(inum)/common.INODEBLK)
	off := (uint64(inum) % common.INODEBLK) * common.INODESZ
	return blk, off
}

// ValidBnum reports whether bn may be a data or pointer block.
func (fs *FsSuper) ValidBnum(bn common.Bnum) bool {
	return bn >= fs.DataStart() && bn < fs.MaxBnum()
}
