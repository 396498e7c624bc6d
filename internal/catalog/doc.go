// Package catalog loads the precomputed recommendation dataset.
//
// A Dataset bundles the ordered movie catalog with its square similarity
// matrix. Both are produced offline; this package only reads them, from
// either a JSON document or a SQLite database built by Import, and hands out
// an immutable handle that every other component shares without locking.
package catalog
