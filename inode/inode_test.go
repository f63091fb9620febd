package inode

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-sfs/common"
)

func TestEncodeLayout(t *testing.T) {
	assert := assert.New(t)
	ip := MkInode(7)
	ip.Size = 11
	ip.Direct = [common.NDIRECT]common.Bnum{11, 12, 0, 0, 15}
	ip.Indirect = 20
	ip.DIndirect = 21

	rec := ip.Encode()
	assert.Equal(int(common.INODESZ), len(rec))
	le := binary.LittleEndian
	assert.Equal(uint32(1), le.Uint32(rec[0:]))
	assert.Equal(uint32(11), le.Uint32(rec[4:]))
	assert.Equal(uint32(11), le.Uint32(rec[8:]))
	assert.Equal(uint32(15), le.Uint32(rec[24:]))
	assert.Equal(uint32(20), le.Uint32(rec[28:]))
	assert.Equal(uint32(21), le.Uint32(rec[32:]))

	assert.Equal(ip, Decode(rec, 7))
}

func TestRecordsShareBlock(t *testing.T) {
	assert := assert.New(t)
	blk := make(disk.Block, disk.BlockSize)
	a := MkInode(0)
	a.Size = 1
	b := MkInode(112)
	b.Size = 2
	Put(blk, 0, &a)
	Put(blk, 112*common.INODESZ, &b)

	assert.Equal(a, Get(blk, 0, 0))
	assert.Equal(b, Get(blk, 112*common.INODESZ, 112))
	empty := Get(blk, common.INODESZ, 1)
	assert.False(empty.Valid)
	assert.Equal(uint64(0), empty.Size)
}

func TestInodesFitInBlock(t *testing.T) {
	assert.True(t, common.INODEBLK*common.INODESZ <= disk.BlockSize)
}

func TestPtrs(t *testing.T) {
	assert := assert.New(t)
	bns := []common.Bnum{5, 0, 4000000}
	blk := EncodePtrs(bns)
	assert.Equal(int(disk.BlockSize), len(blk))
	assert.Equal(common.Bnum(4000000), PtrGet(blk, 2))
	assert.Equal(uint32(5), binary.LittleEndian.Uint32(blk[0:]))

	all := DecodePtrs(blk)
	assert.Equal(int(common.NBLKBLK), len(all))
	assert.Equal(bns, all[:3])
	assert.Equal(common.Bnum(0), all[common.NBLKBLK-1])

	PtrPut(blk, common.NBLKBLK-1, 9)
	assert.Equal(common.Bnum(9), PtrGet(blk, common.NBLKBLK-1))

	assert.Panics(func() { EncodePtrs(make([]common.Bnum, common.NBLKBLK+1)) })
}

func TestNBlocks(t *testing.T) {
	ip := MkInode(0)
	assert.Equal(t, uint64(0), ip.NBlocks())
	ip.Size = 1
	assert.Equal(t, uint64(1), ip.NBlocks())
	ip.Size = disk.BlockSize + 1
	assert.Equal(t, uint64(2), ip.NBlocks())
}
