package linecard

import (
	"cmp"
	"slices"
	"strings"
)

// FilterRecords keeps records listed in c.Region (case-insensitive) and,
// when c.State is set, sold in that state. Input order is preserved.
func FilterRecords(records []Record, c Criteria) []Record {
	state := strings.ToLower(strings.TrimSpace(c.State))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !matchesRegion(r, c.Region) {
			continue
		}
		if state != "" && !slices.Contains(r.States(), state) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesRegion(r Record, region string) bool {
	region = strings.TrimSpace(region)
	for _, reg := range r.Regions() {
		if strings.EqualFold(reg, region) {
			return true
		}
	}
	return false
}

// GroupRecords clusters records by Parent(). A record whose name equals
// its parent fills the parent slot; others are appended as children in
// input order. Clusters are sorted by key, case-insensitively.
func GroupRecords(records []Record) Grouped {
	g, _ := groupRecords(records)
	return g
}

// slotConflict records a parent slot claimed twice; the later record wins.
type slotConflict struct {
	Key      string
	Replaced Record
	Winner   Record
}

func groupRecords(records []Record) (Grouped, []slotConflict) {
	index := make(map[string]int)
	var clusters Grouped
	var conflicts []slotConflict

	for _, r := range records {
		key := r.Parent()
		i, ok := index[key]
		if !ok {
			i = len(clusters)
			index[key] = i
			clusters = append(clusters, Cluster{Key: key})
		}
		c := &clusters[i]
		if r.IsParent() {
			if c.Parent != nil {
				conflicts = append(conflicts, slotConflict{Key: key, Replaced: *c.Parent, Winner: r})
			}
			rec := r
			c.Parent = &rec
			continue
		}
		c.Children = append(c.Children, r)
	}

	slices.SortStableFunc(clusters, func(a, b Cluster) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Key), strings.ToLower(b.Key)),
			strings.Compare(a.Key, b.Key),
		)
	})
	return clusters, conflicts
}
