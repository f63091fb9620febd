package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-sfs/common"
)

func TestBlockAlloc(t *testing.T) {
	assert := assert.New(t)
	a := MkBlockAlloc(11, 16)

	assert.Equal(uint64(5), a.NumFree(), "only data blocks should be free")
	for bn := common.Bnum(0); bn < 11; bn++ {
		assert.True(a.IsUsed(bn), "metadata block %d", bn)
	}

	n, err := a.AllocOrValidate(0)
	require.NoError(t, err)
	assert.Equal(common.Bnum(11), n, "lowest data block first")

	a.MarkUsed(12)
	n2, err := a.AllocOrValidate(0)
	require.NoError(t, err)
	assert.Equal(common.Bnum(13), n2, "should not allocate something marked used")
	assert.Equal(uint64(2), a.NumFree())

	a.Release(n)
	assert.False(a.IsUsed(n))
	n3, err := a.AllocOrValidate(0)
	require.NoError(t, err)
	assert.Equal(n, n3, "released block is reused")
}

func TestValidateExisting(t *testing.T) {
	assert := assert.New(t)
	a := MkBlockAlloc(2, 8)
	free := a.NumFree()

	n, err := a.AllocOrValidate(5)
	assert.NoError(err)
	assert.Equal(common.Bnum(5), n)
	assert.Equal(free, a.NumFree(), "validation does not allocate")

	n, err = a.AllocOrValidate(8)
	assert.NoError(err)
	assert.Equal(common.Bnum(2), n, "out-of-range number allocates")
}

func TestBlockAllocFull(t *testing.T) {
	a := MkBlockAlloc(3, 5)
	_, err := a.AllocOrValidate(0)
	require.NoError(t, err)
	_, err = a.AllocOrValidate(0)
	require.NoError(t, err)
	_, err = a.AllocOrValidate(0)
	assert.Equal(t, ErrDiskFull, err)
}

func TestReleaseZero(t *testing.T) {
	a := MkBlockAlloc(3, 5)
	free := a.NumFree()
	a.Release(0)
	assert.Equal(t, free, a.NumFree())
	assert.True(t, a.IsUsed(0))
	assert.Panics(t, func() { a.Release(1) })
}

func TestInodeTable(t *testing.T) {
	assert := assert.New(t)
	it := MkInodeTable(3)
	assert.Equal(common.Inum(3), it.Len())

	seen := make(map[common.Inum]bool)
	for i := 0; i < 3; i++ {
		inum, err := it.AllocInum()
		require.NoError(t, err)
		assert.Equal(common.Inum(i), inum)
		assert.False(seen[inum])
		seen[inum] = true
	}
	_, err := it.AllocInum()
	assert.Equal(ErrDiskFull, err)
	assert.Equal(uint64(0), it.NumFree())

	it.ReleaseInum(1)
	assert.False(it.IsUsed(1))
	inum, err := it.AllocInum()
	assert.NoError(err)
	assert.Equal(common.Inum(1), inum)

	assert.False(it.IsUsed(99))
}
