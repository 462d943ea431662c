package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"netsync/core/remote"
)

// Namespace selects one lookup table of the Cache: a remote kind within a
// scope (e.g. the interfaces of device 12). The empty scope is global.
type Namespace struct {
	Kind  remote.Kind
	Scope string
}

func (ns Namespace) String() string {
	if ns.Scope == "" {
		return string(ns.Kind)
	}
	return string(ns.Kind) + "@" + ns.Scope
}

// Source tells the Cache how to fill a namespace: one List call with
// Filter, each object keyed by KeyOf. Objects with an empty key are kept
// but not indexed.
type Source struct {
	Kind   remote.Kind
	Filter remote.Filter
	KeyOf  func(remote.Object) string
}

// notFound is the sentinel stored for keys looked up and not found.
const notFound int64 = 0

type table struct {
	loaded  bool
	objects []remote.Object
	byKey   map[string]int64
	byID    map[int64]string
}

// Cache memoizes remote lookups for one reconciliation run. A namespace is
// loaded with a single List on first use, bounding round trips to one per
// namespace. Misses are memoized. A Cache must not outlive its run.
type Cache struct {
	store remote.Store

	mu      sync.Mutex
	sources map[Namespace]Source
	tables  map[Namespace]*table
	loads   int
}

// NewCache creates an empty per-run cache reading from store.
func NewCache(store remote.Store) *Cache {
	return &Cache{
		store:   store,
		sources: make(map[Namespace]Source),
		tables:  make(map[Namespace]*table),
	}
}

// Define registers how to load ns. Namespaces without a definition are
// loaded unfiltered and keyed by remote.NaturalKey.
func (c *Cache) Define(ns Namespace, src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if src.Kind == "" {
		src.Kind = ns.Kind
	}
	c.sources[ns] = src
	delete(c.tables, ns)
}

// Loads returns how many List calls the cache has issued.
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func (c *Cache) load(ctx context.Context, ns Namespace) (*table, error) {
	t, ok := c.tables[ns]
	if ok && t.loaded {
		return t, nil
	}
	if !ok {
		t = &table{byKey: make(map[string]int64), byID: make(map[int64]string)}
	}
	src, ok := c.sources[ns]
	if !ok {
		src = Source{Kind: ns.Kind}
	}
	if src.KeyOf == nil {
		src.KeyOf = remote.NaturalKey
	}
	objs, err := c.store.List(ctx, src.Kind, src.Filter)
	c.loads++
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ns, err)
	}

	// ids put before the load win over listed ones
	put := make(map[string]bool, len(t.byKey))
	for key := range t.byKey {
		put[key] = true
	}
	t.objects = objs
	for _, obj := range objs {
		key := src.KeyOf(obj)
		if key == "" {
			continue
		}
		t.byID[obj.ID] = key
		if put[key] {
			continue
		}
		// lowest id wins on duplicate keys
		if have, dup := t.byKey[key]; dup && have < obj.ID {
			continue
		}
		t.byKey[key] = obj.ID
	}
	t.loaded = true
	c.tables[ns] = t
	return t, nil
}

// Lookup returns the remote id stored under key in ns, loading the
// namespace on first use. found is false for unknown keys.
func (c *Cache) Lookup(ctx context.Context, ns Namespace, key string) (id int64, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.load(ctx, ns)
	if err != nil {
		return 0, false, err
	}
	id, ok := t.byKey[key]
	if !ok {
		t.byKey[key] = notFound
		return 0, false, nil
	}
	return id, id != notFound, nil
}

// KeyOf is the reverse index: the key of the object with id in ns.
func (c *Cache) KeyOf(ctx context.Context, ns Namespace, id int64) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.load(ctx, ns)
	if err != nil {
		return "", false, err
	}
	key, ok := t.byID[id]
	return key, ok, nil
}

// Objects returns every object loaded into ns.
func (c *Cache) Objects(ctx context.Context, ns Namespace) ([]remote.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.load(ctx, ns)
	if err != nil {
		return nil, err
	}
	return t.objects, nil
}

// Put records an id assigned during the run, replacing a memoized miss. On a
// namespace not loaded yet the id is kept and survives the later load.
func (c *Cache) Put(ns Namespace, key string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[ns]
	if !ok {
		t = &table{byKey: make(map[string]int64), byID: make(map[int64]string)}
		c.tables[ns] = t
	}
	t.byKey[key] = id
	t.byID[id] = key
}

// Resolve returns the id of the reference object named key, creating it
// through GetOrCreate when the namespace does not hold it. Lookups are
// case-insensitive; the key is stored folded.
func (c *Cache) Resolve(ctx context.Context, ns Namespace, key string, extra remote.Fields) (int64, error) {
	folded := strings.ToLower(strings.TrimSpace(key))
	if folded == "" {
		return 0, &remote.ValidationError{Kind: ns.Kind, Field: remote.KeyField(ns.Kind), Message: "key must not be empty"}
	}
	id, found, err := c.Lookup(ctx, ns, folded)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}
	id, err = c.store.GetOrCreate(ctx, ns.Kind, strings.TrimSpace(key), extra)
	if err != nil {
		return 0, err
	}
	c.Put(ns, folded, id)
	return id, nil
}
