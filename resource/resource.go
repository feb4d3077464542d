// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package resource implements a registry of named physical address
// intervals, supporting merge-on-insert of used regions and computation of
// the free gaps left within a memory bank.
package resource

import (
	"errors"
	"fmt"
	"math"
)

// Names assigned to intervals created by the registry.
const (
	// JoinName is assigned to intervals resulting from a merge.
	JoinName = "join"
	// GapName is the default name assigned to free gaps.
	GapName = "ELF buffer"
)

// ErrInvalid is returned when constructing an empty or inverted interval.
var ErrInvalid = errors.New("invalid resource")

// Resource represents a named physical address interval, both ends are
// inclusive.
type Resource struct {
	Name  string
	Start uint64
	End   uint64

	// Children represents nested reservations
	Children []*Resource
}

// New returns a resource spanning from start to end (inclusive).
func New(name string, start uint64, end uint64) (*Resource, error) {
	if end < start {
		return nil, fmt.Errorf("%w: %s end %#x before start %#x", ErrInvalid, name, end, start)
	}

	if start == 0 && end == math.MaxUint64 {
		return nil, fmt.Errorf("%w: %s spans the whole address space", ErrInvalid, name)
	}

	return &Resource{Name: name, Start: start, End: end}, nil
}

// Sized returns a resource of size bytes starting at start.
func Sized(name string, start uint64, size uint64) (*Resource, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: %s has zero size", ErrInvalid, name)
	}

	end := start + size - 1

	if end < start {
		return nil, fmt.Errorf("%w: %s wraps the address space", ErrInvalid, name)
	}

	return New(name, start, end)
}

// Size returns the interval length in bytes.
func (r *Resource) Size() uint64 {
	return r.End - r.Start + 1
}

// Overlaps returns whether the two intervals share at least one address.
func (r *Resource) Overlaps(o *Resource) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// Adjacent returns whether one interval begins right after the other ends.
func (r *Resource) Adjacent(o *Resource) bool {
	if r.End != math.MaxUint64 && r.End+1 == o.Start {
		return true
	}

	return o.End != math.MaxUint64 && o.End+1 == r.Start
}

// Contains returns whether o lies entirely within r.
func (r *Resource) Contains(o *Resource) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// Request adds a child reservation, failing if it falls outside r or
// overlaps an existing child.
func (r *Resource) Request(name string, start uint64, size uint64) (child *Resource, err error) {
	if child, err = Sized(name, start, size); err != nil {
		return
	}

	if !r.Contains(child) {
		return nil, fmt.Errorf("%s %s outside of %s", name, child.bounds(), r)
	}

	for _, c := range r.Children {
		if c.Overlaps(child) {
			return nil, fmt.Errorf("%s %s conflicts with %s", name, child.bounds(), c)
		}
	}

	r.Children = append(r.Children, child)

	return
}

// Release removes a child reservation previously returned by Request.
func (r *Resource) Release(child *Resource) {
	for i, c := range r.Children {
		if c == child {
			r.Children = append(r.Children[:i], r.Children[i+1:]...)
			return
		}
	}
}

func (r *Resource) bounds() string {
	return fmt.Sprintf("%#08x-%#08x", r.Start, r.End)
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s (%s)", r.bounds(), r.Name)
}

// Largest returns the biggest interval, the first one is returned when more
// than one share the same size.
func Largest(rs []*Resource) (l *Resource) {
	for _, r := range rs {
		if l == nil || r.Size() > l.Size() {
			l = r
		}
	}

	return
}
