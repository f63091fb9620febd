package super

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-sfs/common"
)

func TestNInodeBlk(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(10), NInodeBlk(100))
	assert.Equal(uint64(1), NInodeBlk(1))
	assert.Equal(uint64(1), NInodeBlk(10))
	assert.Equal(uint64(2), NInodeBlk(11))
	assert.Equal(uint64(3), NInodeBlk(30))
	assert.Equal(uint64(103), NInodeBlk(1024))
}

func TestMkFsSuper(t *testing.T) {
	fs := MkFsSuper(100)
	assert.Equal(t, common.MAGIC, fs.Magic)
	assert.Equal(t, uint64(10), fs.InodeBlocks)
	assert.Equal(t, uint64(1130), fs.Inodes)
	assert.Equal(t, common.Bnum(1), fs.InodeStart())
	assert.Equal(t, common.Bnum(11), fs.DataStart())
	assert.NoError(t, fs.Validate(100))
}

func TestEncodeLayout(t *testing.T) {
	assert := assert.New(t)
	blk := MkFsSuper(200).Encode()
	assert.Equal(4096, len(blk))
	assert.Equal(common.MAGIC, binary.LittleEndian.Uint32(blk[0:4]))
	assert.Equal(uint32(200), binary.LittleEndian.Uint32(blk[4:8]))
	assert.Equal(uint32(20), binary.LittleEndian.Uint32(blk[8:12]))
	assert.Equal(uint32(20*113), binary.LittleEndian.Uint32(blk[12:16]))

	fs := Decode(blk)
	assert.Equal(MkFsSuper(200), fs)
}

func TestValidate(t *testing.T) {
	bad := []*FsSuper{
		{Magic: 0xdeadbeef, Blocks: 100, InodeBlocks: 10, Inodes: 1130},
		{Magic: common.MAGIC, Blocks: 0, InodeBlocks: 0, Inodes: 113},
		{Magic: common.MAGIC, Blocks: 100, InodeBlocks: 9, Inodes: 1017},
		{Magic: common.MAGIC, Blocks: 100, InodeBlocks: 10, Inodes: 0},
		{Magic: common.MAGIC, Blocks: 100, InodeBlocks: 10, Inodes: 1131},
		{Magic: common.MAGIC, Blocks: 100, InodeBlocks: 10, Inodes: 113},
		{Magic: common.MAGIC, Blocks: 200, InodeBlocks: 20, Inodes: 2260},
		{Magic: common.MAGIC, Blocks: 1, InodeBlocks: 1, Inodes: 113},
		{Magic: common.MAGIC, Blocks: 2, InodeBlocks: 1, Inodes: 113},
	}
	for _, fs := range bad {
		err := fs.Validate(100)
		assert.True(t, errors.Is(err, ErrCorrupt), "%v: %v", fs, err)
	}
}

func TestInum2Blk(t *testing.T) {
	fs := MkFsSuper(100)
	blk, off := fs.Inum2Blk(0)
	assert.Equal(t, common.Bnum(1), blk)
	assert.Equal(t, uint64(0), off)

	blk, off = fs.Inum2Blk(114)
	assert.Equal(t, common.Bnum(2), blk)
	assert.Equal(t, uint64(36), off)

	blk, off = fs.Inum2Blk(1129)
	assert.Equal(t, common.Bnum(10), blk)
	assert.Equal(t, uint64(112*36), off)
}

func TestValidBnum(t *testing.T) {
	fs := MkFsSuper(100)
	assert.False(t, fs.ValidBnum(0))
	assert.False(t, fs.ValidBnum(10))
	assert.True(t, fs.ValidBnum(11))
	assert.True(t, fs.ValidBnum(99))
	assert.False(t, fs.ValidBnum(100))
}
