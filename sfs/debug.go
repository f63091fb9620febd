package sfs

import (
	"fmt"
	"io"
	"strings"

	"github.com/rodaine/table"

	"github.com/mit-pdos/go-sfs/blockdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/inode"
	"github.com/mit-pdos/go-sfs/super"
)

func joinBnums(bns []common.Bnum) string {
	var s []string
	for _, bn := range bns {
		if bn != common.NULLBNUM {
			s = append(s, fmt.Sprint(bn))
		}
	}
	return strings.Join(s, " ")
}

// Debug prints the superblock of dev and every valid inode with the
// blocks it points to. dev does not need to be mounted, and the dump
// reads only blocks that exist on dev.
func Debug(dev *blockdev.Device, w io.Writer) {
	fs := super.Decode(dev.Read(common.SUPERBNUM))
	fmt.Fprintf(w, "SuperBlock:\n")
	if fs.Magic == common.MAGIC {
		fmt.Fprintf(w, "    magic number is valid\n")
	} else {
		fmt.Fprintf(w, "    magic number is not valid\n")
	}
	fmt.Fprintf(w, "    %d blocks\n", fs.Blocks)
	fmt.Fprintf(w, "    %d inode blocks\n", fs.InodeBlocks)
	fmt.Fprintf(w, "    %d inodes\n", fs.Inodes)
	if fs.Magic != common.MAGIC {
		return
	}

	readPtrs := func(bn common.Bnum) []common.Bnum {
		if bn == common.NULLBNUM || bn >= dev.Size() {
			return nil
		}
		return inode.DecodePtrs(dev.Read(bn))
	}

	tbl := table.New("inode", "size", "nblk", "direct", "indirect", "dindirect")
	tbl.WithWriter(w)
	for i := uint64(0); i < fs.InodeBlocks && fs.InodeStart()+i < dev.Size(); i++ {
		blk := dev.Read(fs.InodeStart() + i)
		for j := uint64(0); j < common.INODEBLK; j++ {
			ip := inode.Get(blk, j*common.INODESZ, common.Inum(i*common.INODEBLK+j))
			if !ip.Valid {
				continue
			}
			ind := ""
			if ip.Indirect != common.NULLBNUM {
				ind = fmt.Sprintf("%d: %s", ip.Indirect, joinBnums(readPtrs(ip.Indirect)))
			}
			dind := ""
			if ip.DIndirect != common.NULLBNUM {
				var parts []string
				for _, bn := range readPtrs(ip.DIndirect) {
					if bn != common.NULLBNUM {
						parts = append(parts, fmt.Sprintf("[%d: %s]", bn, joinBnums(readPtrs(bn))))
					}
				}
				dind = fmt.Sprintf("%d: %s", ip.DIndirect, strings.Join(parts, " "))
			}
			tbl.AddRow(ip.Inum, ip.Size, ip.NBlocks(), joinBnums(ip.Direct[:]), ind, dind)
		}
	}
	tbl.Print()
}

// ranges renders the set members of [0, n) as "a-b c e-f".
func ranges(isSet func(uint64) bool, n uint64) string {
	var s []string
	for i := uint64(0); i < n; {
		if !isSet(i) {
			i++
			continue
		}
		j := i
		for j+1 < n && isSet(j+1) {
			j++
		}
		if i == j {
			s = append(s, fmt.Sprint(i))
		} else {
			s = append(s, fmt.Sprintf("%d-%d", i, j))
		}
		i = j + 1
	}
	return strings.Join(s, " ")
}

type Usage struct {
	Blocks     uint64
	FreeBlocks uint64
	Inodes     uint64
	FreeInodes uint64
}

func (v *Volume) Usage() (Usage, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return Usage{}, ErrNotMounted
	}
	return Usage{
		Blocks:     v.Super.Blocks,
		FreeBlocks: v.balloc.NumFree(),
		Inodes:     v.Super.Inodes,
		FreeInodes: v.itable.NumFree(),
	}, nil
}

// WriteBitmaps prints which blocks and inode slots are in use.
func (v *Volume) WriteBitmaps(w io.Writer) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return ErrNotMounted
	}
	tbl := table.New("bitmap", "used", "free", "in use")
	tbl.WithWriter(w)
	nblk := v.balloc.Max()
	free := v.balloc.NumFree()
	tbl.AddRow("blocks", nblk-free, free, ranges(func(n uint64) bool {
		return v.balloc.IsUsed(common.Bnum(n))
	}, nblk))
	ninode := v.Super.Inodes
	free = v.itable.NumFree()
	tbl.AddRow("inodes", ninode-free, free, ranges(func(n uint64) bool {
		return v.itable.IsUsed(common.Inum(n))
	}, ninode))
	tbl.Print()
	return nil
}
