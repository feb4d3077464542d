// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package partition

import (
	"bytes"
	"io/fs"
	"path"
	"time"
)

type file struct {
	*bytes.Reader
	info fileInfo
}

type fileInfo struct {
	name string
	size int64
}

func newFile(name string, buf []byte) *file {
	return &file{
		Reader: bytes.NewReader(buf),
		info: fileInfo{
			name: path.Base(name),
			size: int64(len(buf)),
		},
	}
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() fs.FileMode  { return 0444 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }
