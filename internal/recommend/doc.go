// Package recommend ranks catalog entries by precomputed similarity.
//
// A Recommender resolves a title to its catalog position, orders the
// matching similarity row by descending score with ties kept in catalog
// order, skips the queried entry itself, and returns the leading entries
// mapped back to title and TMDB id.
package recommend
