package cache

import (
	"sync"
	"time"
)

// Tagged wraps a Store with a tag manager: "set(key, value,
// tags, ttl) records the tag→key and key→tag many-to-many; invalidateTag(t)
// deletes every key tagged t and cleans the reverse index." The invariant
// this must hold ( property 3): after InvalidateTag(t), Has(k) is
// false for every key that was tagged t, even if other tags also reference
// k.
type Tagged struct {
	store Store

	mu        sync.Mutex
	tagToKeys map[string]map[string]struct{}
	keyToTags map[string]map[string]struct{}
}

func NewTagged(store Store) *Tagged {
	return &Tagged{
		store:     store,
		tagToKeys: make(map[string]map[string]struct{}),
		keyToTags: make(map[string]map[string]struct{}),
	}
}

func (t *Tagged) Get(key string) ([]byte, bool) { return t.store.Get(key) }
func (t *Tagged) Has(key string) bool           { return t.store.Has(key) }

// Set stores value under key with the given tags and ttl, updating both
// halves of the tag index.
func (t *Tagged) Set(key string, value []byte, tags []string, ttl time.Duration) error {
	if err := t.store.Set(key, value, ttl); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// a re-Set under the same key first drops its old tag memberships so
	// stale tag->key entries don't linger for a key whose tag set shrank.
	t.forgetKeyLocked(key)

	if len(tags) == 0 {
		return nil
	}
	keyTags := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if t.tagToKeys[tag] == nil {
			t.tagToKeys[tag] = make(map[string]struct{})
		}
		t.tagToKeys[tag][key] = struct{}{}
		keyTags[tag] = struct{}{}
	}
	t.keyToTags[key] = keyTags
	return nil
}

// Delete removes key from the underlying store and every tag list it
// appeared in delete invariant.
func (t *Tagged) Delete(key string) error {
	if err := t.store.Delete(key); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forgetKeyLocked(key)
	return nil
}

func (t *Tagged) forgetKeyLocked(key string) {
	for tag := range t.keyToTags[key] {
		delete(t.tagToKeys[tag], key)
		if len(t.tagToKeys[tag]) == 0 {
			delete(t.tagToKeys, tag)
		}
	}
	delete(t.keyToTags, key)
}

// InvalidateTag deletes every key tagged t from the underlying store and
// cleans both index halves atomically (under the same lock that Set/Delete
// use, so no concurrent Set can resurrect a half-cleaned key).
func (t *Tagged) InvalidateTag(tag string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.tagToKeys[tag] {
		if err := t.store.Delete(k); err != nil {
			return err
		}
		t.forgetKeyLocked(k)
	}
	return nil
}

func (t *Tagged) Clear() error {
	if err := t.store.Clear(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tagToKeys = make(map[string]map[string]struct{})
	t.keyToTags = make(map[string]map[string]struct{})
	return nil
}
