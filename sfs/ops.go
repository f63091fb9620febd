package sfs

import (
	"fmt"
	"time"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/inode"
)

// Create allocates an empty inode and returns its number.
func (v *Volume) Create() (common.Inum, error) {
	defer v.recordOp(CREATE, time.Now())
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return 0, ErrNotMounted
	}
	inum, err := v.itable.AllocInum()
	if err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	v.lockInode(inum)
	defer v.unlockInode(inum)

	ip := inode.MkInode(inum)
	v.saveInode(&ip)
	util.DPrintf(1, "Create -> # %v\n", inum)
	return inum, nil
}

// Remove releases every block inode inum owns and frees the inode.
func (v *Volume) Remove(inum common.Inum) error {
	defer v.recordOp(REMOVE, time.Now())
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return ErrNotMounted
	}
	v.lockInode(inum)
	defer v.unlockInode(inum)

	ip, err := v.loadInode(inum)
	if err != nil {
		return err
	}
	util.DPrintf(1, "Remove %v\n", &ip)
	for _, bn := range ip.Direct {
		v.indfree(bn, 0)
	}
	v.indfree(ip.Indirect, 1)
	v.indfree(ip.DIndirect, NINDLEVEL)

	// the slot is reused only after the cleared record is on disk
	ip = inode.Inode{Inum: inum}
	v.saveInode(&ip)
	v.itable.ReleaseInum(inum)
	return nil
}

// Stat returns the size of inode inum in bytes.
func (v *Volume) Stat(inum common.Inum) (uint64, error) {
	defer v.recordOp(STAT, time.Now())
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.mounted {
		return 0, ErrNotMounted
	}
	v.lockInode(inum)
	defer v.unlockInode(inum)

	ip, err := v.loadInode(inum)
	if err != nil {
		return 0, err
	}
	return ip.Size, nil
}
