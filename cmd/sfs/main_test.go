package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-sfs/blockdev"
	"github.com/mit-pdos/go-sfs/config"
	"github.com/mit-pdos/go-sfs/sfs"
)

func mkVolume(t *testing.T, sz uint64) *sfs.Volume {
	dev := blockdev.NewMem(sz)
	require.NoError(t, sfs.Format(dev))
	v, err := sfs.Mount(dev)
	require.NoError(t, err)
	return v
}

func TestCopyInOut(t *testing.T) {
	v := mkVolume(t, 200)
	defer v.Unmount()
	inum, err := v.Create()
	require.NoError(t, err)

	data := bytes.Repeat([]byte("0123456789abcdef"), 1000)
	n, err := copyin(v, inum, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), n)

	out := new(bytes.Buffer)
	n, err = copyout(v, inum, out)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), n)
	assert.Equal(t, data, out.Bytes())
}

func TestCopyInFull(t *testing.T) {
	v := mkVolume(t, 10)
	defer v.Unmount()
	inum, err := v.Create()
	require.NoError(t, err)

	// 8 data blocks: 5 direct, 1 indirect, 2 more
	data := make([]byte, 10*blockdev.BlockSize)
	n, err := copyin(v, inum, bytes.NewReader(data))
	assert.True(t, errors.Is(err, sfs.ErrDiskFull), "%v", err)
	assert.Equal(t, 7*blockdev.BlockSize, n)
}

func TestOpenImage(t *testing.T) {
	cfg = &config.Config{}
	path := filepath.Join(t.TempDir(), "disk.img")
	img, err := openImage(path, 50)
	require.NoError(t, err)

	_, err = openImage(path, 50)
	assert.Error(t, err, "image is locked")

	require.NoError(t, sfs.Format(img.dev))
	img.close()
	assert.Equal(t, uint64(50), imageBlocks(path, 10))

	img, err = openImage(path, imageBlocks(path, 10))
	require.NoError(t, err)
	defer img.close()
	v, err := sfs.Mount(img.dev)
	require.NoError(t, err)
	v.Unmount()
}

func TestImageBlocksMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.img")
	assert.Equal(t, uint64(77), imageBlocks(path, 77))
	require.NoError(t, ioutil.WriteFile(path, nil, 0644))
	assert.Equal(t, uint64(77), imageBlocks(path, 77))
}
