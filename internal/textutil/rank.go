package textutil

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// minTokenSimilarity is the cosine score a title needs to be offered when it
// is not a fuzzy subsequence match.
const minTokenSimilarity = 0.5

// RankTitles returns indices into titles ordered by how closely each title
// matches query. Subsequence matches come first, closest edit distance
// first; titles sharing enough words follow. Titles that match neither way
// are omitted. A limit <= 0 returns every match.
func RankTitles(query string, titles []string, limit int) []int {
	normQuery := NormalizeTitle(query)
	if normQuery == "" || len(titles) == 0 {
		return nil
	}

	normalized := make([]string, len(titles))
	for i, title := range titles {
		normalized[i] = NormalizeTitle(title)
	}

	seen := make(map[int]struct{})
	var out []int
	add := func(idx int) bool {
		if _, ok := seen[idx]; ok {
			return true
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
		return limit <= 0 || len(out) < limit
	}

	ranks := fuzzy.RankFind(normQuery, normalized)
	sort.Stable(ranks)
	for _, rank := range ranks {
		if !add(rank.OriginalIndex) {
			return out
		}
	}

	queryPrint := NewFingerprint(query)
	if queryPrint == nil {
		return out
	}
	type scored struct {
		idx   int
		score float64
	}
	var byTokens []scored
	for i, title := range titles {
		if _, ok := seen[i]; ok {
			continue
		}
		if score := CosineSimilarity(queryPrint, NewFingerprint(title)); score >= minTokenSimilarity {
			byTokens = append(byTokens, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(byTokens, func(a, b int) bool { return byTokens[a].score > byTokens[b].score })
	for _, s := range byTokens {
		if !add(s.idx) {
			break
		}
	}
	return out
}
