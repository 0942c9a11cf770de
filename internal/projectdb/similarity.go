package projectdb

import (
	"fmt"
	"math"
	"sort"
)

// Similarity scores how alike two project contexts are, in [0,1].
// Numeric attributes compare by normalized distance, everything else by
// exact match. Attributes missing from the candidate count as zero. The
// score averages over the query's attributes; an empty query scores 0.
func Similarity(query, candidate map[string]any) float64 {
	if len(query) == 0 {
		return 0
	}
	var sum float64
	for key, qv := range query {
		cv, ok := candidate[key]
		if !ok {
			continue
		}
		sum += attributeSimilarity(qv, cv)
	}
	return sum / float64(len(query))
}

func attributeSimilarity(a, b any) float64 {
	af, aNum := asNumber(a)
	bf, bNum := asNumber(b)
	if aNum && bNum {
		diff := math.Abs(af - bf)
		scale := math.Max(math.Abs(af), math.Max(math.Abs(bf), 1))
		s := 1 - diff/scale
		if s < 0 {
			return 0
		}
		return s
	}
	if aNum != bNum {
		return 0
	}
	if fmt.Sprint(a) == fmt.Sprint(b) {
		return 1
	}
	return 0
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// rankSimilar filters records by tool, scores them against the query
// attributes and returns the top k. Zero-similarity records are dropped,
// ties go to the more recently updated record.
func rankSimilar(records []*ProjectRecord, tool string, attrs map[string]any, k int) []Match {
	if k <= 0 || len(attrs) == 0 {
		return nil
	}
	var matches []Match
	for _, rec := range records {
		if rec.Tool != tool {
			continue
		}
		s := Similarity(attrs, rec.Context)
		if s <= 0 {
			continue
		}
		matches = append(matches, Match{Record: rec, Similarity: s})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Record.UpdatedAt.After(matches[j].Record.UpdatedAt)
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
