package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-sfs/blockdev"
	"github.com/mit-pdos/go-sfs/common"
	"github.com/mit-pdos/go-sfs/config"
	"github.com/mit-pdos/go-sfs/sfs"
)

var cfg *config.Config

// image is an open disk image, exclusively locked against other sfs
// processes for as long as it is open.
type image struct {
	lock *os.File
	dev  *blockdev.Device
}

func imageBlocks(path string, dflt uint64) uint64 {
	st, err := os.Stat(path)
	if err != nil || st.Size() == 0 {
		return dflt
	}
	return uint64(st.Size()) / blockdev.BlockSize
}

func openImage(path string, blocks uint64) (*image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking image %s (in use?): %w", path, err)
	}
	dev, err := blockdev.NewFile(path, blocks)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &image{lock: f, dev: dev}, nil
}

func (img *image) close() {
	if cfg.Stats {
		img.dev.WriteStats(os.Stderr)
	}
	img.dev.Close()
	unix.Flock(int(img.lock.Fd()), unix.LOCK_UN)
	img.lock.Close()
}

// withDevice opens the configured image. An existing image keeps its
// size; a new one gets cfg.Blocks blocks.
func withDevice(f func(*blockdev.Device, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		img, err := openImage(cfg.Image, imageBlocks(cfg.Image, cfg.Blocks))
		if err != nil {
			return err
		}
		defer img.close()
		return f(img.dev, ctx)
	}
}

func withVolume(f func(*sfs.Volume, *cli.Context) error) cli.ActionFunc {
	return withDevice(func(dev *blockdev.Device, ctx *cli.Context) error {
		v, err := sfs.Mount(dev)
		if err != nil {
			return fmt.Errorf("mounting %s: %w", cfg.Image, err)
		}
		defer func() {
			if cfg.Stats {
				v.WriteOpStats(os.Stderr)
			}
			v.Unmount()
		}()
		return f(v, ctx)
	})
}

func uintArg(ctx *cli.Context, i int, name string) (uint64, error) {
	s := ctx.Args().Get(i)
	if s == "" {
		return 0, fmt.Errorf("missing argument %s", name)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	return n, nil
}

func inumArg(ctx *cli.Context) (common.Inum, error) {
	n, err := uintArg(ctx, 0, "INUM")
	return common.Inum(n), err
}

// copyout streams inode inum to w one block at a time.
func copyout(v *sfs.Volume, inum common.Inum, w io.Writer) (uint64, error) {
	buf := make([]byte, blockdev.BlockSize)
	var off uint64
	for {
		n, err := v.Read(inum, off, buf)
		if err != nil {
			return off, err
		}
		if n == 0 {
			return off, nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return off, fmt.Errorf("writing output: %w", err)
		}
		off += n
	}
}

// copyin writes all of r into inode inum starting at offset 0.
func copyin(v *sfs.Volume, inum common.Inum, r io.Reader) (uint64, error) {
	buf := make([]byte, blockdev.BlockSize)
	var off uint64
	for {
		m, rerr := io.ReadFull(r, buf)
		if m > 0 {
			n, err := v.Write(inum, off, buf[:m])
			off += n
			if err != nil {
				return off, err
			}
			if n < uint64(m) {
				return off, fmt.Errorf("short write at offset %d: %w", off, sfs.ErrDiskFull)
			}
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			return off, nil
		}
		if rerr != nil {
			return off, fmt.Errorf("reading input: %w", rerr)
		}
	}
}

func main() {
	app := cli.App{
		Name:  "sfs",
		Usage: "inspect and modify a simple file system image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "disk image file",
			},
			&cli.Uint64Flag{
				Name:  "blocks",
				Usage: "image size in blocks when creating a new image",
			},
			&cli.Uint64Flag{
				Name:  "debug",
				Usage: "debug level (higher is more verbose)",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "dump stats to stderr at end",
			},
		},
		Before: func(ctx *cli.Context) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if ctx.IsSet("image") {
				c.Image = ctx.String("image")
			}
			if ctx.IsSet("blocks") {
				c.Blocks = ctx.Uint64("blocks")
			}
			if ctx.IsSet("debug") {
				c.Debug = ctx.Uint64("debug")
			}
			if ctx.IsSet("stats") {
				c.Stats = ctx.Bool("stats")
			}
			util.Debug = c.Debug
			cfg = c
			return nil
		},
		Commands: []*cli.Command{{
			Name:        "format",
			Aliases:     []string{"mkfs"},
			Description: "write an empty file system to the image, creating it if needed",
			Action: withDevice(func(dev *blockdev.Device, ctx *cli.Context) error {
				if err := sfs.Format(dev); err != nil {
					return err
				}
				log.Printf("formatted %s: %d blocks", cfg.Image, dev.Size())
				return nil
			}),
		}, {
			Name:        "debug",
			Description: "print the superblock and every valid inode",
			Action: withDevice(func(dev *blockdev.Device, ctx *cli.Context) error {
				sfs.Debug(dev, os.Stdout)
				return nil
			}),
		}, {
			Name:        "create",
			Description: "allocate an empty inode and print its number",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				inum, err := v.Create()
				if err != nil {
					return err
				}
				fmt.Println(inum)
				return nil
			}),
		}, {
			Name:        "remove",
			Aliases:     []string{"rm"},
			ArgsUsage:   "INUM",
			Description: "free an inode and its blocks",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				inum, err := inumArg(ctx)
				if err != nil {
					return err
				}
				return v.Remove(inum)
			}),
		}, {
			Name:        "stat",
			ArgsUsage:   "INUM",
			Description: "print the size of an inode",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				inum, err := inumArg(ctx)
				if err != nil {
					return err
				}
				sz, err := v.Stat(inum)
				if err != nil {
					return err
				}
				fmt.Printf("%d bytes\n", sz)
				return nil
			}),
		}, {
			Name:        "cat",
			ArgsUsage:   "INUM",
			Description: "copy an inode's contents to stdout",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				inum, err := inumArg(ctx)
				if err != nil {
					return err
				}
				_, err = copyout(v, inum, os.Stdout)
				return err
			}),
		}, {
			Name:        "copyout",
			ArgsUsage:   "INUM FILE",
			Description: "copy an inode's contents to a host file",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				inum, err := inumArg(ctx)
				if err != nil {
					return err
				}
				path := ctx.Args().Get(1)
				if path == "" {
					return fmt.Errorf("missing argument FILE")
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				defer f.Close()
				n, err := copyout(v, inum, f)
				if err != nil {
					return err
				}
				log.Printf("%d bytes copied", n)
				return nil
			}),
		}, {
			Name:        "copyin",
			ArgsUsage:   "FILE INUM",
			Description: "copy a host file into an inode",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				path := ctx.Args().Get(0)
				if path == "" {
					return fmt.Errorf("missing argument FILE")
				}
				n, err := uintArg(ctx, 1, "INUM")
				if err != nil {
					return err
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				defer f.Close()
				cnt, err := copyin(v, common.Inum(n), f)
				log.Printf("%d bytes copied", cnt)
				return err
			}),
		}, {
			Name:        "write",
			ArgsUsage:   "INUM OFFSET",
			Description: "write stdin into an inode at an offset",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				inum, err := inumArg(ctx)
				if err != nil {
					return err
				}
				off, err := uintArg(ctx, 1, "OFFSET")
				if err != nil {
					return err
				}
				data, err := ioutil.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				n, err := v.Write(inum, off, data)
				if err != nil {
					return err
				}
				fmt.Printf("%d bytes written\n", n)
				return nil
			}),
		}, {
			Name:        "bitmaps",
			Description: "print the blocks and inodes in use",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				return v.WriteBitmaps(os.Stdout)
			}),
		}, {
			Name:        "usage",
			Aliases:     []string{"df"},
			Description: "print free and used blocks and inodes",
			Action: withVolume(func(v *sfs.Volume, ctx *cli.Context) error {
				u, err := v.Usage()
				if err != nil {
					return err
				}
				fmt.Printf("%d/%d blocks free, %d/%d inodes free\n",
					u.FreeBlocks, u.Blocks, u.FreeInodes, u.Inodes)
				return nil
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
