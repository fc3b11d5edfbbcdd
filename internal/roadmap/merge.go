package roadmap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// New builds an in-memory table from rows produced by the roadmap builder.
// Programmatic tables carry every essential column by construction.
func New(rows []Row) *Table {
	t := &Table{Rows: rows, present: make(map[string]bool, len(columnAliases))}
	for canonical := range columnAliases {
		t.present[canonical] = true
	}
	return t
}

// ParseWeeks parses a week selector: a single week ("5"), a comma list
// ("1,3,5"), an inclusive range ("2-6"), or combinations. "all" (or empty)
// returns nil, meaning no filter.
func ParseWeeks(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	set := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, err := strconv.Atoi(strings.TrimSpace(a))
			if err != nil {
				return nil, fmt.Errorf("bad week range %q", part)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("bad week range %q", part)
			}
			if hi < lo {
				return nil, fmt.Errorf("bad week range %q", part)
			}
			for w := lo; w <= hi; w++ {
				set[w] = struct{}{}
			}
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad week %q", part)
		}
		set[w] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Ints(out)
	return out, nil
}

// MergeWeeks copies scored rows for the selected weeks into the base table by
// (week, team, opponent) key, leaving every other week's previously computed
// values untouched. A nil selector replaces everything.
func MergeWeeks(base, scored *Table, weeks []int) {
	if weeks == nil {
		base.Rows = scored.Rows
		return
	}
	want := make(map[int]struct{}, len(weeks))
	for _, w := range weeks {
		want[w] = struct{}{}
	}
	byKey := make(map[Key]int, len(scored.Rows))
	for i := range scored.Rows {
		byKey[scored.Rows[i].Key()] = i
	}
	for i := range base.Rows {
		if _, ok := want[base.Rows[i].Week]; !ok {
			continue
		}
		if j, ok := byKey[base.Rows[i].Key()]; ok {
			extra := base.Rows[i].Extra
			base.Rows[i] = scored.Rows[j]
			if base.Rows[i].Extra == nil {
				base.Rows[i].Extra = extra
			}
		}
	}
}
