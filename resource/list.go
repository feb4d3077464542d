// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package resource

import (
	"sort"
)

// List represents an ordered set of non-overlapping, non-adjacent intervals.
type List struct {
	entries []*Resource
}

// Insert adds a copy of the argument interval to the list, coalescing it
// with every overlapping or adjacent entry. Coalesced entries are renamed
// [JoinName].
func (l *List) Insert(r *Resource) {
	m := &Resource{
		Name:  r.Name,
		Start: r.Start,
		End:   r.End,
	}

	kept := l.entries[:0:0]

	for _, e := range l.entries {
		if !e.Overlaps(m) && !e.Adjacent(m) {
			kept = append(kept, e)
			continue
		}

		m.Start = min(m.Start, e.Start)
		m.End = max(m.End, e.End)
		m.Name = JoinName
	}

	i := sort.Search(len(kept), func(i int) bool {
		return kept[i].Start > m.Start
	})

	kept = append(kept, nil)
	copy(kept[i+1:], kept[i:])
	kept[i] = m

	l.entries = kept
}

// Entries returns the list intervals in ascending order.
func (l *List) Entries() []*Resource {
	return l.entries
}

// Len returns the number of intervals in the list.
func (l *List) Len() int {
	return len(l.entries)
}

// Gaps returns the portions of bank not covered by any list entry, each one
// named after the argument name.
func (l *List) Gaps(bank *Resource, name string) (gaps []*Resource) {
	cur := bank.Start

	for _, e := range l.entries {
		if e.End < cur {
			continue
		}

		if e.Start > bank.End {
			break
		}

		if e.Start > cur {
			gaps = append(gaps, &Resource{Name: name, Start: cur, End: e.Start - 1})
		}

		if e.End >= bank.End {
			return
		}

		cur = e.End + 1
	}

	gaps = append(gaps, &Resource{Name: name, Start: cur, End: bank.End})

	return
}
