// Package cpuset provides a canonical, comparable representation of a set
// of logical CPU ids, including parsing and formatting of the kernel's
// compressed cpulist range notation (e.g. "0-3,8-11").
package cpuset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Set is an ordered set of logical CPU ids. The zero value is the empty set.
type Set struct {
	ids []int
}

// New creates a Set from the given ids. Duplicates are collapsed.
func New(ids ...int) Set {
	seen := make(map[int]struct{}, len(ids))
	sorted := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)
	return Set{ids: sorted}
}

// Parse expands kernel cpulist notation into a Set. An empty or
// whitespace-only string yields the empty set.
func Parse(list string) (Set, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return Set{}, nil
	}

	var ids []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parseID(lo)
			if err != nil {
				return Set{}, fmt.Errorf("invalid cpulist range %q: %v", part, err)
			}
			end, err := parseID(hi)
			if err != nil {
				return Set{}, fmt.Errorf("invalid cpulist range %q: %v", part, err)
			}
			if end < start {
				return Set{}, fmt.Errorf("invalid cpulist range %q: end before start", part)
			}
			for id := start; id <= end; id++ {
				ids = append(ids, id)
			}
			continue
		}

		id, err := parseID(part)
		if err != nil {
			return Set{}, fmt.Errorf("invalid cpulist entry %q: %v", part, err)
		}
		ids = append(ids, id)
	}

	return New(ids...), nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("negative cpu id %d", id)
	}
	return id, nil
}

// String formats the set in canonical cpulist notation, collapsing
// consecutive ids into ranges.
func (s Set) String() string {
	if len(s.ids) == 0 {
		return ""
	}

	var b strings.Builder
	start := s.ids[0]
	prev := s.ids[0]

	flush := func(end int) {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == end {
			b.WriteString(strconv.Itoa(start))
		} else {
			b.WriteString(strconv.Itoa(start))
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(end))
		}
	}

	for _, id := range s.ids[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush(prev)
		start, prev = id, id
	}
	flush(prev)

	return b.String()
}

// IDs returns the member ids in ascending order.
func (s Set) IDs() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

// Size returns the number of ids in the set.
func (s Set) Size() int {
	return len(s.ids)
}

// Contains reports whether id is a member of the set.
func (s Set) Contains(id int) bool {
	i := sort.SearchInts(s.ids, id)
	return i < len(s.ids) && s.ids[i] == id
}

// Equal reports whether two sets contain exactly the same ids.
func (s Set) Equal(o Set) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for i, id := range s.ids {
		if o.ids[i] != id {
			return false
		}
	}
	return true
}

// Union returns the set of ids present in either set.
func (s Set) Union(o Set) Set {
	return New(append(s.IDs(), o.ids...)...)
}

// Difference returns the ids of s that are not in o.
func (s Set) Difference(o Set) Set {
	var out []int
	for _, id := range s.ids {
		if !o.Contains(id) {
			out = append(out, id)
		}
	}
	return New(out...)
}
