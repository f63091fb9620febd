package inode

import (
	"fmt"

	"github.com/tchajed/goose/machine"
	"github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-sfs/common"
)

// Inode is the in-memory copy of an on-disk inode record. It is a plain
// value: copying it copies the pointer arrays.
type Inode struct {
	Inum common.Inum

	// the on-disk inode:
	Valid     bool
	Size      uint64
	Direct    [common.NDIRECT]common.Bnum
	Indirect  common.Bnum
	DIndirect common.Bnum
}

func MkInode(inum common.Inum) Inode {
	return Inode{Inum: inum, Valid: true}
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d v %t sz %d d %v ind %d dind %d", ip.Inum,
		ip.Valid, ip.Size, ip.Direct, ip.Indirect, ip.DIndirect)
}

// NBlocks is the number of file blocks covered by Size.
func (ip *Inode) NBlocks() uint64 {
	return (ip.Size + disk.BlockSize - 1) / disk.BlockSize
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	var valid uint32
	if ip.Valid {
		valid = 1
	}
	enc.PutInt32(valid)
	enc.PutInt32(uint32(ip.Size))
	for _, bn := range ip.Direct {
		enc.PutInt32(uint32(bn))
	}
	enc.PutInt32(uint32(ip.Indirect))
	enc.PutInt32(uint32(ip.DIndirect))
	return enc.Finish()
}

func Decode(rec []byte, inum common.Inum) Inode {
	dec := marshal.NewDec(rec)
	ip := Inode{Inum: inum}
	ip.Valid = dec.GetInt32() == 1
	ip.Size = uint64(dec.GetInt32())
	for i := range ip.Direct {
		ip.Direct[i] = common.Bnum(dec.GetInt32())
	}
	ip.Indirect = common.Bnum(dec.GetInt32())
	ip.DIndirect = common.Bnum(dec.GetInt32())
	return ip
}

// Get decodes the record at byte offset off of an inode-table block.
func Get(blk disk.Block, off uint64, inum common.Inum) Inode {
	return Decode(blk[off:off+common.INODESZ], inum)
}

// Put encodes ip into the record at byte offset off of an inode-table
// block, leaving the other records untouched.
func Put(blk disk.Block, off uint64, ip *Inode) {
	copy(blk[off:off+common.INODESZ], ip.Encode())
}

// A pointer block is an array of NBLKBLK little-endian 32-bit block
// numbers.

func PtrGet(blk disk.Block, slot uint64) common.Bnum {
	off := slot * common.PTRSZ
	return common.Bnum(machine.UInt32Get(blk[off : off+common.PTRSZ]))
}

func PtrPut(blk disk.Block, slot uint64, bn common.Bnum) {
	off := slot * common.PTRSZ
	machine.UInt32Put(blk[off:off+common.PTRSZ], uint32(bn))
}

// DecodePtrs returns every slot of a pointer block, including zeros.
func DecodePtrs(blk disk.Block) []common.Bnum {
	bns := make([]common.Bnum, common.NBLKBLK)
	for i := range bns {
		bns[i] = PtrGet(blk, uint64(i))
	}
	return bns
}

func EncodePtrs(bns []common.Bnum) disk.Block {
	if uint64(len(bns)) > common.NBLKBLK {
		panic("EncodePtrs: too many pointers")
	}
	blk := make(disk.Block, disk.BlockSize)
	for i, bn := range bns {
		PtrPut(blk, uint64(i), bn)
	}
	return blk
}
