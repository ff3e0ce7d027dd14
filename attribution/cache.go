package attribution

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tagpatrol/tagpatrol/types"
	"go.etcd.io/bbolt"
)

var bucketProvenance = []byte("provenance")

// Cache persists resolved provenance between runs so repeated daemon cycles
// do not hammer CloudTrail for the same resources.
type Cache struct {
	db  *bbolt.DB
	ttl time.Duration
}

type cacheEntry struct {
	Provenance types.Provenance `json:"provenance"`
	CachedAt   time.Time        `json:"cached_at"`
}

// OpenCache opens or creates the cache at path. Entries older than ttl are
// treated as misses.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open provenance cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProvenance)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns cached provenance for a resource name, if fresh
func (c *Cache) Get(name string) (types.Provenance, bool) {
	var entry cacheEntry
	found := false

	_ = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProvenance).Get([]byte(name))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})

	if !found {
		return types.Provenance{}, false
	}
	if c.ttl > 0 && time.Since(entry.CachedAt) > c.ttl {
		return types.Provenance{}, false
	}
	return entry.Provenance, true
}

// Put stores provenance for a resource name
func (c *Cache) Put(name string, p types.Provenance) error {
	data, err := json.Marshal(cacheEntry{Provenance: p, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProvenance).Put([]byte(name), data)
	})
}

// Close releases the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}
