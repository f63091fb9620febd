// Package blockdev is the block device a volume lives on: a goose disk plus
// a mounted flag and per-operation counters.
package blockdev

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-sfs/util/stats"
)

const BlockSize uint64 = disk.BlockSize

const (
	readOp int = iota
	writeOp
	barrierOp
	mountOp
)

var opNames = []string{"disk.Read", "disk.Write", "disk.Barrier", "disk.Mount"}

type Device struct {
	d disk.Disk

	mu      *sync.Mutex // protects mounted
	mounted bool

	ops *stats.Set
}

// assert that Device implements disk.Disk
var _ disk.Disk = &Device{}

func New(d disk.Disk) *Device {
	return &Device{
		d:   d,
		mu:  new(sync.Mutex),
		ops: stats.NewSet(opNames),
	}
}

// NewMem returns a device backed by an in-memory disk of sz blocks.
func NewMem(sz uint64) *Device {
	return New(disk.NewMemDisk(sz))
}

// NewFile opens (creating if needed) a disk image of sz blocks.
func NewFile(path string, sz uint64) (*Device, error) {
	d, err := disk.NewFileDisk(path, sz)
	if err != nil {
		return nil, fmt.Errorf("open disk image %s: %w", path, err)
	}
	return New(d), nil
}

func (d *Device) ReadTo(a uint64, b disk.Block) {
	defer d.ops.Record(readOp, time.Now())
	if a >= d.d.Size() {
		panic(fmt.Errorf("out-of-bounds read at %v", a))
	}
	d.d.ReadTo(a, b)
}

func (d *Device) Read(a uint64) disk.Block {
	buf := make(disk.Block, BlockSize)
	d.ReadTo(a, buf)
	return buf
}

func (d *Device) Write(a uint64, b disk.Block) {
	defer d.ops.Record(writeOp, time.Now())
	if uint64(len(b)) != BlockSize {
		panic(fmt.Errorf("v is not block-sized (%d bytes)", len(b)))
	}
	if a >= d.d.Size() {
		panic(fmt.Errorf("out-of-bounds write at %v", a))
	}
	d.d.Write(a, b)
}

func (d *Device) Barrier() {
	defer d.ops.Record(barrierOp, time.Now())
	d.d.Barrier()
}

// Size reports how big the device is, in blocks
func (d *Device) Size() uint64 {
	return d.d.Size()
}

func (d *Device) Close() {
	d.d.Close()
}

// Mount marks the device as holding a mounted volume.
func (d *Device) Mount() {
	defer d.ops.Record(mountOp, time.Now())
	d.mu.Lock()
	d.mounted = true
	d.mu.Unlock()
}

func (d *Device) Unmount() {
	d.mu.Lock()
	d.mounted = false
	d.mu.Unlock()
}

func (d *Device) Mounted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mounted
}

func (d *Device) Reads() uint32 {
	return d.ops.Count(readOp)
}

func (d *Device) Writes() uint32 {
	return d.ops.Count(writeOp)
}

func (d *Device) Mounts() uint32 {
	return d.ops.Count(mountOp)
}

func (d *Device) WriteStats(w io.Writer) {
	d.ops.WriteTable(w)
}

func (d *Device) ResetStats() {
	d.ops.Reset()
}
