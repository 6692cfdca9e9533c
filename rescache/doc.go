// Package rescache provides a byte-budgeted LRU cache for GPU resources
// that are expensive to recreate every frame, such as multisample color
// targets.
//
// Entries are pinned while in use. Only unpinned entries count as
// purgeable and only they are evicted when the cache exceeds its budget.
// Evicted values are handed to an OnEvict callback, which typically
// destroys the underlying GPU object.
//
//	c := rescache.New[Key, *Target](64<<20, func(k Key, t *Target) { t.Destroy() })
//	t, err := c.Acquire(key, func() (*Target, uint64, error) { return newTarget(key) })
//	if err != nil {
//	    return err
//	}
//	defer c.Release(key)
//
// Cache satisfies surfacepool.ResourceCache, so a pool can report its usage
// next to surface statistics.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package rescache
