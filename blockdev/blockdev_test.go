package blockdev

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkblock(b byte) []byte {
	data := make([]byte, BlockSize)
	for i := range data {
		data[i] = b
	}
	return data
}

func TestReadWrite(t *testing.T) {
	assert := assert.New(t)
	d := NewMem(4)
	assert.Equal(uint64(4), d.Size())

	d.Write(2, mkblock(7))
	assert.Equal(mkblock(7), d.Read(2))
	assert.Equal(mkblock(0), d.Read(1))

	assert.Equal(uint32(2), d.Reads())
	assert.Equal(uint32(1), d.Writes())
}

func TestOutOfBounds(t *testing.T) {
	d := NewMem(2)
	assert.Panics(t, func() { d.Read(2) })
	assert.Panics(t, func() { d.Write(5, mkblock(1)) })
	assert.Panics(t, func() { d.Write(0, []byte{1, 2, 3}) })
}

func TestMountState(t *testing.T) {
	assert := assert.New(t)
	d := NewMem(2)
	assert.False(d.Mounted())
	d.Mount()
	assert.True(d.Mounted())
	assert.Equal(uint32(1), d.Mounts())
	d.Unmount()
	assert.False(d.Mounted())
}

func TestStats(t *testing.T) {
	d := NewMem(2)
	d.Read(0)
	d.Barrier()
	buf := new(bytes.Buffer)
	d.WriteStats(buf)
	assert.Contains(t, buf.String(), "disk.Read")
	assert.Contains(t, buf.String(), "disk.Barrier")

	d.ResetStats()
	assert.Equal(t, uint32(0), d.Reads())
}

func TestFileDevice(t *testing.T) {
	tmpdir := "/dev/shm"
	f, err := os.Stat(tmpdir)
	if !(err == nil && f.IsDir()) {
		tmpdir = os.TempDir()
	}
	n := filepath.Join(tmpdir, "sfs"+strconv.FormatUint(rand.Uint64(), 16)+".img")
	defer os.Remove(n)

	d, err := NewFile(n, 8)
	require.NoError(t, err)
	d.Write(3, mkblock(0xab))
	d.Barrier()
	d.Close()

	d, err = NewFile(n, 8)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, mkblock(0xab), d.Read(3))
}
