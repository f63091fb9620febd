package common

import (
	"github.com/tchajed/goose/machine/disk"
)

const (
	MAGIC uint32 = 0xf0f03410

	INODESZ  uint64 = 36 // on-disk size
	INODEBLK uint64 = 113

	NDIRECT  uint64 = 5
	NBLKBLK  uint64 = disk.BlockSize / 4 // # blkno per block
	PTRSZ    uint64 = 4
	SUPERSZ  uint64 = 16
	NICACHE  uint64 = 8
	PCTINODE uint64 = 10 // % of the disk reserved for inodes
)

type Inum uint64
type Bnum = uint64

const (
	NULLBNUM  Bnum = 0
	SUPERBNUM Bnum = 0
)

// MaxFileSize is the largest size an inode can describe: the block
// capacity of the pointers, capped by the 32-bit size field.
func MaxFileSize() uint64 {
	nblk := NDIRECT + NBLKBLK + NBLKBLK*NBLKBLK
	max := nblk * disk.BlockSize
	if max > uint64(^uint32(0)) {
		return uint64(^uint32(0))
	}
	return max
}
