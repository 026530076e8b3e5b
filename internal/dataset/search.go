package dataset

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips diacritics so "cote" matches "Côte d'Ivoire".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.TrimSpace(out))
}

// Index supports lookup and name search over a merged record set.
// It is immutable once built and safe for concurrent reads.
type Index struct {
	records []CountryRecord
	byCode  map[string]int
	folded  []string
}

// NewIndex builds an Index over records.
func NewIndex(records []CountryRecord) *Index {
	idx := &Index{
		records: records,
		byCode:  make(map[string]int, len(records)),
		folded:  make([]string, len(records)),
	}
	for i, r := range records {
		idx.byCode[r.ISO3] = i
		idx.folded[i] = fold(r.Name)
	}
	return idx
}

// Records returns every record in ISO-3 order.
func (x *Index) Records() []CountryRecord {
	return x.records
}

// Len returns the number of records.
func (x *Index) Len() int {
	return len(x.records)
}

// Get returns the record for an ISO-3 code in any letter case.
func (x *Index) Get(iso3 string) (CountryRecord, bool) {
	i, ok := x.byCode[strings.ToUpper(strings.TrimSpace(iso3))]
	if !ok {
		return CountryRecord{}, false
	}
	return x.records[i], true
}

// Search returns records whose name or code matches query, best matches
// first: exact code, name prefix, word prefix, then substring. An empty
// query returns every record by name. limit <= 0 means no limit.
func (x *Index) Search(query string, limit int) []CountryRecord {
	q := fold(query)

	type hit struct {
		i    int
		rank int
	}
	var hits []hit
	for i, r := range x.records {
		rank, ok := matchRank(q, r.ISO3, x.folded[i])
		if ok {
			hits = append(hits, hit{i: i, rank: rank})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].rank != hits[b].rank {
			return hits[a].rank < hits[b].rank
		}
		return x.folded[hits[a].i] < x.folded[hits[b].i]
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]CountryRecord, len(hits))
	for i, h := range hits {
		out[i] = x.records[h.i]
	}
	return out
}

func matchRank(q, iso3, name string) (int, bool) {
	switch {
	case q == "":
		return 0, true
	case strings.EqualFold(q, iso3):
		return 0, true
	case strings.HasPrefix(name, q):
		return 1, true
	case strings.Contains(name, " "+q):
		return 2, true
	case strings.Contains(name, q):
		return 3, true
	}
	return 0, false
}
