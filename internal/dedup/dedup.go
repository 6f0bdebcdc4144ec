// Package dedup implements identity-key extraction and set-based
// novelty filtering. The same mechanism serves in-batch trade
// deduplication (key = deal id) and store-level novelty checks
// (key = external transaction or request id).
package dedup

import "strings"

// keySeparator joins the parts of a composite key.
const keySeparator = "|"

// KeySet tracks identity keys that have already been accepted.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from already-known keys, normalizing each
// the same way FilterNovel does.
func NewKeySet(keys ...string) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		if normalized := normalizePart(k); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

// Has reports whether the normalized key is already present.
func (s KeySet) Has(key string) bool {
	_, ok := s[normalizePart(key)]
	return ok
}

// Add records a key, reporting whether it was novel. Empty keys are
// never novel.
func (s KeySet) Add(key string) bool {
	normalized := normalizePart(key)
	if normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return false
	}
	s[normalized] = struct{}{}
	return true
}

// FilterNovel returns the rows whose composite key over the selected
// column indices is non-empty and not yet in the set. The set is
// mutated in place to include accepted keys, so repeated calls
// continue the same dedup pass.
func FilterNovel(existing KeySet, rows [][]string, keyColumns []int) [][]string {
	var novel [][]string
	for _, row := range rows {
		key := CompositeKey(row, keyColumns)
		if existing.Add(key) {
			novel = append(novel, row)
		}
	}
	return novel
}

// CompositeKey builds the identity key for a row: the selected columns
// upper-trimmed and joined with a separator. Out-of-range indices
// contribute empty parts.
func CompositeKey(row []string, keyColumns []int) string {
	parts := make([]string, 0, len(keyColumns))
	for _, idx := range keyColumns {
		if idx >= 0 && idx < len(row) {
			parts = append(parts, normalizePart(row[idx]))
		} else {
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, keySeparator)
}

func normalizePart(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
