// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package partition provides read access to ext4 file systems stored on
// block devices or disk images.
package partition

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/dsoprea/go-ext4"
)

// Partition represents an ext4 partition, it implements [fs.FS] and
// [fs.ReadFileFS].
type Partition struct {
	// Device is the underlying block device or disk image
	Device io.ReaderAt
	// Offset is the partition start within Device
	Offset int64
	// Size is the partition size
	Size int64

	off int64
}

// Open returns the partition starting at offset within a device of the
// argument size.
func Open(dev io.ReaderAt, offset int64, size int64) (*Partition, error) {
	if offset < 0 || size <= offset {
		return nil, fmt.Errorf("invalid partition offset %d (size %d)", offset, size)
	}

	d := &Partition{
		Device: dev,
		Offset: offset,
		Size:   size - offset,
	}

	if _, err := d.superblock(); err != nil {
		return nil, fmt.Errorf("invalid ext4 partition, %v", err)
	}

	return d, nil
}

func (d *Partition) superblock() (sb *ext4.Superblock, err error) {
	if _, err = d.Seek(ext4.Superblock0Offset, io.SeekStart); err != nil {
		return
	}

	return ext4.NewSuperblockWithReader(d)
}

func (d *Partition) getBlockGroupDescriptor(inode int) (bgd *ext4.BlockGroupDescriptor, err error) {
	sb, err := d.superblock()

	if err != nil {
		return
	}

	bgdl, err := ext4.NewBlockGroupDescriptorListWithReadSeeker(d, sb)

	if err != nil {
		return
	}

	return bgdl.GetWithAbsoluteInode(inode)
}

// Read implements [io.Reader] within the partition boundaries.
func (d *Partition) Read(p []byte) (n int, err error) {
	if d.off >= d.Size {
		return 0, io.EOF
	}

	if rem := d.Size - d.off; int64(len(p)) > rem {
		p = p[:rem]
	}

	n, err = d.Device.ReadAt(p, d.Offset+d.off)
	d.off += int64(n)

	if err == io.EOF && n > 0 {
		err = nil
	}

	return
}

// Seek implements [io.Seeker] relative to the partition start.
func (d *Partition) Seek(offset int64, whence int) (int64, error) {
	var off int64

	switch whence {
	case io.SeekStart:
		off = offset
	case io.SeekCurrent:
		off = d.off + offset
	case io.SeekEnd:
		off = d.Size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}

	if off < 0 || off > d.Size {
		return 0, fmt.Errorf("invalid offset %d (%d)", off, offset)
	}

	d.off = off

	return off, nil
}

func (d *Partition) lookup(fullPath string) (inodeNumber int, err error) {
	fullPath = strings.Trim(fullPath, "/")
	path := strings.Split(fullPath, "/")

	bgd, err := d.getBlockGroupDescriptor(ext4.InodeRootDirectory)

	if err != nil {
		return
	}

	dw, err := ext4.NewDirectoryWalk(d, bgd, ext4.InodeRootDirectory)

	if err != nil {
		return
	}

	var i int

	for {
		p, de, err := dw.Next()

		if err == io.EOF {
			break
		} else if err != nil {
			return 0, err
		}

		deInode := int(de.Data().Inode)

		switch {
		case p == fullPath:
			return deInode, nil
		case p == path[i] && i < len(path)-1:
			if bgd, err = d.getBlockGroupDescriptor(deInode); err != nil {
				return 0, err
			}

			if dw, err = ext4.NewDirectoryWalk(d, bgd, deInode); err != nil {
				return 0, err
			}

			fullPath = strings.Join(path[i+1:], "/")
			i += 1
		}
	}

	return 0, fs.ErrNotExist
}

// ReadFile returns the contents of the named file.
func (d *Partition) ReadFile(name string) (buf []byte, err error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}

	inodeNumber, err := d.lookup(name)

	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}

	bgd, err := d.getBlockGroupDescriptor(inodeNumber)

	if err != nil {
		return
	}

	inode, err := ext4.NewInodeWithReadSeeker(bgd, d, inodeNumber)

	if err != nil {
		return
	}

	en := ext4.NewExtentNavigatorWithReadSeeker(d, inode)
	r := ext4.NewInodeReader(en)

	return io.ReadAll(r)
}

// Open implements [fs.FS], file contents are read entirely on open.
func (d *Partition) Open(name string) (fs.File, error) {
	buf, err := d.ReadFile(name)

	if err != nil {
		var pathErr *fs.PathError

		if errors.As(err, &pathErr) {
			pathErr.Op = "open"
			return nil, pathErr
		}

		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	return newFile(name, buf), nil
}
