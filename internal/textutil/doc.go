// Package textutil provides title normalization and approximate title
// matching.
//
// Titles are folded to a comparable form (NFKC, diacritics removed,
// lowercased, punctuation collapsed to single spaces) before matching.
// RankTitles combines subsequence fuzzy matching with a token cosine
// fallback so both typos and reordered words find their target.
package textutil
