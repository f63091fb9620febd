package sfs

import (
	"fmt"
	"io"
	"time"
)

const (
	CREATE int = iota
	REMOVE
	STAT
	READ
	WRITE
	NUM_OPS
)

var opNames = []string{
	"CREATE",
	"REMOVE",
	"STAT",
	"READ",
	"WRITE",
}

func (v *Volume) recordOp(op int, start time.Time) {
	v.ops.Record(op, start)
}

func (v *Volume) OpCount(op int) uint32 {
	return v.ops.Count(op)
}

func (v *Volume) WriteOpStats(w io.Writer) {
	v.ops.WriteTable(w)
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.mounted {
		hits, misses := v.icache.Stats()
		fmt.Fprintf(w, "inode cache: %d hits, %d misses\n", hits, misses)
	}
}

func (v *Volume) ResetOpStats() {
	v.ops.Reset()
}
