// package stats counts operations and their latencies
package stats

import (
	"bytes"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rodaine/table"
)

type Op struct {
	count uint32
	nanos uint64
}

func (op *Op) Record(start time.Time) {
	atomic.AddUint32(&op.count, 1)
	dur := time.Since(start)
	atomic.AddUint64(&op.nanos, uint64(dur.Nanoseconds()))
}

func (op *Op) Count() uint32 {
	return atomic.LoadUint32(&op.count)
}

func (op *Op) Reset() {
	atomic.StoreUint32(&op.count, 0)
	atomic.StoreUint64(&op.nanos, 0)
}

func (op Op) MicrosPerOp() float64 {
	if op.count == 0 {
		return 0
	}
	return float64(op.nanos) / float64(op.count) / 1e3
}

// Set is a fixed group of named counters, indexed by the caller's op
// constants.
type Set struct {
	names []string
	ops   []Op
}

func NewSet(names []string) *Set {
	return &Set{names: names, ops: make([]Op, len(names))}
}

func (s *Set) Record(op int, start time.Time) {
	s.ops[op].Record(start)
}

func (s *Set) Count(op int) uint32 {
	return s.ops[op].Count()
}

func (s *Set) Reset() {
	for i := range s.ops {
		s.ops[i].Reset()
	}
}

func (s *Set) WriteTable(w io.Writer) {
	WriteTable(s.names, s.ops, w)
}

func WriteTable(names []string, ops []Op, w io.Writer) {
	if len(names) != len(ops) {
		panic("mismatched names and ops lists")
	}
	tbl := table.New("op", "count", "us")
	tbl.WithWriter(w)
	var totalOp Op
	for i, name := range names {
		op := Op{
			count: atomic.LoadUint32(&ops[i].count),
			nanos: atomic.LoadUint64(&ops[i].nanos),
		}
		totalOp.count += op.count
		totalOp.nanos += op.nanos
		micros := fmt.Sprintf("%0.1f us/op", op.MicrosPerOp())
		tbl.AddRow(name, op.count, micros)
	}
	totalMicros := float64(totalOp.nanos) / 1e3
	tbl.AddRow("total", totalOp.count, fmt.Sprintf("%0.1f us", totalMicros))
	tbl.Print()
}

func FormatTable(names []string, ops []Op) string {
	buf := new(bytes.Buffer)
	WriteTable(names, ops, buf)
	return buf.String()
}
