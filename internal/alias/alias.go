// Package alias maps department and program abbreviations to their full names.
//
// A cluster is an abbreviation plus every full name it stands for. Matching any
// member of a cluster pulls in the whole cluster, so "資工" and "資訊工程學系"
// find each other in both directions.
package alias

import (
	"strings"

	"github.com/garyellow/nchu-course-helper/internal/sliceutil"
	"github.com/garyellow/nchu-course-helper/internal/stringutil"
)

// tokenDelimiters split department text into base tokens (whitespace is always a delimiter).
const tokenDelimiters = "、,，/／()（）"

// Cluster is one abbreviation and the full names it expands to.
type Cluster struct {
	Abbr      string
	FullNames []string
}

// members returns the abbreviation followed by all full names.
func (c Cluster) members() []string {
	out := make([]string, 0, len(c.FullNames)+1)
	out = append(out, c.Abbr)
	return append(out, c.FullNames...)
}

type foldedCluster struct {
	abbr      string
	fullNames []string
}

// Table is a read-only, ordered list of clusters.
// It is safe for concurrent use.
type Table struct {
	clusters []Cluster
	folded   []foldedCluster

	// groups maps every lower-cased cluster member to the members of all
	// clusters linked to it through shared members.
	groups map[string][]string
}

// New builds a table from clusters. Clusters sharing an abbreviation are merged,
// keeping first-seen order for both clusters and full names.
func New(clusters []Cluster) *Table {
	index := make(map[string]int, len(clusters))
	merged := make([]Cluster, 0, len(clusters))

	for _, c := range clusters {
		abbr := strings.TrimSpace(c.Abbr)
		if abbr == "" {
			continue
		}
		if i, ok := index[abbr]; ok {
			merged[i].FullNames = append(merged[i].FullNames, c.FullNames...)
			continue
		}
		index[abbr] = len(merged)
		merged = append(merged, Cluster{Abbr: abbr, FullNames: append([]string(nil), c.FullNames...)})
	}

	t := &Table{
		clusters: merged,
		folded:   make([]foldedCluster, len(merged)),
	}
	for i := range t.clusters {
		names := make([]string, 0, len(t.clusters[i].FullNames))
		for _, n := range t.clusters[i].FullNames {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		t.clusters[i].FullNames = sliceutil.Deduplicate(names, func(s string) string { return s })

		t.folded[i].abbr = strings.ToLower(t.clusters[i].Abbr)
		for _, n := range t.clusters[i].FullNames {
			t.folded[i].fullNames = append(t.folded[i].fullNames, strings.ToLower(n))
		}
	}
	t.groups = t.buildGroups()
	return t
}

// buildGroups joins clusters that share a member (case-insensitive) and
// indexes each joined group by all of its members.
func (t *Table) buildGroups() map[string][]string {
	parent := make([]int, len(t.clusters))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[string]int)
	for i, fc := range t.folded {
		for _, m := range append([]string{fc.abbr}, fc.fullNames...) {
			if j, ok := owner[m]; ok {
				parent[find(i)] = find(j)
				continue
			}
			owner[m] = i
		}
	}

	members := make(map[int][]string)
	for i := range t.clusters {
		root := find(i)
		members[root] = append(members[root], t.clusters[i].members()...)
	}

	groups := make(map[string][]string, len(owner))
	for m, i := range owner {
		groups[m] = members[find(i)]
	}
	return groups
}

// Clusters returns a copy of the table contents.
func (t *Table) Clusters() []Cluster {
	out := make([]Cluster, len(t.clusters))
	for i, c := range t.clusters {
		out[i] = Cluster{Abbr: c.Abbr, FullNames: append([]string(nil), c.FullNames...)}
	}
	return out
}

// Len returns the number of clusters.
func (t *Table) Len() int {
	return len(t.clusters)
}

// Tokens splits raw department text into base tokens and adds every cluster whose
// abbreviation or any full name occurs in raw. Empty input yields an empty set.
func (t *Table) Tokens(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return set
	}

	for _, tok := range stringutil.SplitAny(raw, tokenDelimiters) {
		set[tok] = struct{}{}
	}

	lowered := strings.ToLower(raw)
	for i, fc := range t.folded {
		if strings.Contains(lowered, fc.abbr) || containsAny(lowered, fc.fullNames) {
			t.addCluster(set, i)
		}
	}
	return set
}

// Expand returns the query term itself plus its related clusters. A term that
// is exactly a cluster member expands to the members of every cluster sharing a
// member with it, so an abbreviation and each of its full names expand
// identically. Any other term pulls in every cluster where the abbreviation and
// the term contain one another, or a full name and the term contain one another.
// Empty input yields an empty set.
func (t *Table) Expand(term string) map[string]struct{} {
	set := make(map[string]struct{})
	q := strings.TrimSpace(term)
	if q == "" {
		return set
	}
	set[q] = struct{}{}

	lq := strings.ToLower(q)
	if group, ok := t.groups[lq]; ok {
		for _, m := range group {
			set[m] = struct{}{}
		}
		return set
	}
	for i, fc := range t.folded {
		if related(lq, fc.abbr) || relatedAny(lq, fc.fullNames) {
			t.addCluster(set, i)
		}
	}
	return set
}

func (t *Table) addCluster(set map[string]struct{}, i int) {
	for _, m := range t.clusters[i].members() {
		set[m] = struct{}{}
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// related reports whether a and b contain one another.
func related(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func relatedAny(q string, names []string) bool {
	for _, n := range names {
		if related(q, n) {
			return true
		}
	}
	return false
}
