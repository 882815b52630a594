package results

import "sort"

// Diff is the set difference between two runs. Additions and Removals are
// disjoint and sorted.
type Diff struct {
	Additions []string
	Removals  []string
}

// Compare returns current − previous and previous − current.
func Compare(current []string, previous map[string]struct{}) Diff {
	cur := make(map[string]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}

	var d Diff
	for id := range cur {
		if _, ok := previous[id]; !ok {
			d.Additions = append(d.Additions, id)
		}
	}
	for id := range previous {
		if _, ok := cur[id]; !ok {
			d.Removals = append(d.Removals, id)
		}
	}
	sort.Strings(d.Additions)
	sort.Strings(d.Removals)
	return d
}

// Lines renders the diff as "+ id" / "- id". onlyNew hides removals from the
// output without changing the diff itself.
func (d Diff) Lines(onlyNew bool) []string {
	lines := make([]string, 0, len(d.Additions)+len(d.Removals))
	for _, id := range d.Additions {
		lines = append(lines, "+ "+id)
	}
	if !onlyNew {
		for _, id := range d.Removals {
			lines = append(lines, "- "+id)
		}
	}
	return lines
}

// Empty reports whether Lines(onlyNew) would render nothing.
func (d Diff) Empty(onlyNew bool) bool {
	return len(d.Additions) == 0 && (onlyNew || len(d.Removals) == 0)
}
