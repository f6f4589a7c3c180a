// Package index implements the secondary hash indexes that map a product or
// customer id to the set of transaction ids filed under it. Indexes hold no
// transaction data, only ids; they are a pure lookup accelerant over the
// store that owns the records.
package index

// Index maps a key to the set of transaction ids filed under it. All
// operations are O(1) amortized. An Index is not safe for concurrent use;
// the owning store serializes access.
type Index struct {
	buckets map[string]map[string]struct{}
}

// New creates an empty index
func New() *Index {
	return &Index{buckets: make(map[string]map[string]struct{})}
}

// Add files id under key, creating the bucket if absent.
func (ix *Index) Add(key, id string) {
	bucket, ok := ix.buckets[key]
	if !ok {
		bucket = make(map[string]struct{})
		ix.buckets[key] = bucket
	}
	bucket[id] = struct{}{}
}

// Remove unfiles id from key's bucket. The bucket is deleted entirely once
// empty so that stale keys never accumulate.
func (ix *Index) Remove(key, id string) {
	bucket, ok := ix.buckets[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(ix.buckets, key)
	}
}

// Lookup returns the id set filed under key, or nil if the key is absent.
// The returned set is shared with the index and must not be modified.
func (ix *Index) Lookup(key string) map[string]struct{} {
	return ix.buckets[key]
}

// Contains reports whether id is filed under key.
func (ix *Index) Contains(key, id string) bool {
	_, ok := ix.buckets[key][id]
	return ok
}

// DistinctKeys returns the number of keys with a non-empty bucket.
func (ix *Index) DistinctKeys() int {
	return len(ix.buckets)
}
