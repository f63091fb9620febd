package sfs

import (
	"errors"

	"github.com/mit-pdos/go-sfs/alloc"
	"github.com/mit-pdos/go-sfs/super"
)

var (
	ErrNotMounted        = errors.New("volume not mounted")
	ErrAlreadyMounted    = errors.New("device already mounted")
	ErrFormatConflict    = errors.New("cannot format a mounted device")
	ErrCorruptSuperblock = super.ErrCorrupt
	ErrInvalidInum       = errors.New("inode number out of range")
	ErrNotAllocated      = errors.New("inode not allocated")
	ErrDiskFull          = alloc.ErrDiskFull
	ErrFileTooBig        = errors.New("file too big")
	ErrDeviceTooSmall    = errors.New("device too small")
	ErrDeviceTooLarge    = errors.New("device too large")
)
