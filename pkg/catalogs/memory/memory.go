// Package memory provides thread-safe in-memory catalogs for tests and demos.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/errors"
)

// Source is an in-memory catalogs.Source.
type Source struct {
	mu        sync.RWMutex
	records   []catalogs.SourceRecord
	tags      catalogs.TagDictionary
	fetchErr  error
	fetchHits int
}

// NewSource creates a source holding records and tag definitions.
func NewSource(records []catalogs.SourceRecord, tags []catalogs.TagDefinition) *Source {
	return &Source{
		records: slices.Clone(records),
		tags:    catalogs.NewTagDictionary(tags),
	}
}

// Name implements catalogs.Named.
func (s *Source) Name() string { return "memory-source" }

// FetchRecords implements catalogs.Source.
func (s *Source) FetchRecords(ctx context.Context) ([]catalogs.SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchHits++
	if s.fetchErr != nil {
		return nil, errors.WrapUpstream(s.Name(), "records", 0, s.fetchErr)
	}
	return slices.Clone(s.records), nil
}

// FetchTagDictionary implements catalogs.Source.
func (s *Source) FetchTagDictionary(ctx context.Context) (catalogs.TagDictionary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fetchErr != nil {
		return nil, errors.WrapUpstream(s.Name(), "tags", 0, s.fetchErr)
	}
	out := make(catalogs.TagDictionary, len(s.tags))
	for id, label := range s.tags {
		out[id] = label
	}
	return out, nil
}

// Ping implements catalogs.Pinger.
func (s *Source) Ping(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fetchErr != nil {
		return "", errors.WrapUpstream(s.Name(), "ping", 0, s.fetchErr)
	}
	return "memory", ctx.Err()
}

// FailFetch makes every subsequent fetch fail with err. A nil err clears it.
func (s *Source) FailFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// FetchCount returns how many times records were fetched.
func (s *Source) FetchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchHits
}

// Mutation is one call recorded by Target.
type Mutation struct {
	Kind   string // "add" or "remove"
	ItemID string
	Label  string
	Err    error
}

type failKey struct {
	itemID string
	label  string
}

// Target is an in-memory catalogs.Target. Tag mutations are applied to the
// authoritative store, never to snapshots previously returned by FetchItems.
type Target struct {
	mu        sync.Mutex
	order     []string
	items     map[string]*catalogs.TargetItem
	fetchErr  error
	failures  map[failKey]error
	mutations []Mutation
}

// NewTarget creates a target holding items in the given order.
func NewTarget(items ...catalogs.TargetItem) *Target {
	t := &Target{
		items:    make(map[string]*catalogs.TargetItem, len(items)),
		failures: make(map[failKey]error),
	}
	for _, item := range items {
		t.Put(item)
	}
	return t
}

// Name implements catalogs.Named.
func (t *Target) Name() string { return "memory-target" }

// Put inserts or replaces an item.
func (t *Target) Put(item catalogs.TargetItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.items[item.ID]; !exists {
		t.order = append(t.order, item.ID)
	}
	cp := cloneItem(item)
	t.items[item.ID] = &cp
}

// Delete removes an item, simulating an item that vanished mid-run.
func (t *Target) Delete(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, itemID)
	t.order = slices.DeleteFunc(t.order, func(id string) bool { return id == itemID })
}

// FetchItems implements catalogs.Target.
func (t *Target) FetchItems(ctx context.Context) ([]catalogs.TargetItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fetchErr != nil {
		return nil, errors.WrapCatalog(t.Name(), "fetch items", t.fetchErr)
	}
	out := make([]catalogs.TargetItem, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, cloneItem(*t.items[id]))
	}
	return out, nil
}

// Ping implements catalogs.Pinger.
func (t *Target) Ping(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fetchErr != nil {
		return "", errors.WrapCatalog(t.Name(), "ping", t.fetchErr)
	}
	return "memory", ctx.Err()
}

// AddTag implements catalogs.Mutator.
func (t *Target) AddTag(ctx context.Context, itemID, label string) error {
	return t.mutate(ctx, "add", itemID, label, func(item *catalogs.TargetItem) {
		if !item.HasTag(label) {
			item.Tags = append(item.Tags, label)
		}
	})
}

// RemoveTag implements catalogs.Mutator.
func (t *Target) RemoveTag(ctx context.Context, itemID, label string) error {
	return t.mutate(ctx, "remove", itemID, label, func(item *catalogs.TargetItem) {
		want := catalogs.Fold(label)
		item.Tags = slices.DeleteFunc(item.Tags, func(tag string) bool {
			return catalogs.Fold(tag) == want
		})
	})
}

func (t *Target) mutate(ctx context.Context, kind, itemID, label string, apply func(*catalogs.TargetItem)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	item, ok := t.items[itemID]
	switch {
	case t.failures[failKey{itemID, catalogs.Fold(label)}] != nil:
		err = t.failures[failKey{itemID, catalogs.Fold(label)}]
	case t.failures[failKey{itemID, ""}] != nil:
		err = t.failures[failKey{itemID, ""}]
	case !ok:
		err = errors.NewNotFoundError("item", itemID)
	default:
		apply(item)
	}
	t.mutations = append(t.mutations, Mutation{Kind: kind, ItemID: itemID, Label: label, Err: err})
	return err
}

// FailFetch makes FetchItems fail with err. A nil err clears it.
func (t *Target) FailFetch(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetchErr = err
}

// FailMutation makes mutations of label on itemID fail with err.
// An empty label fails every mutation on the item. A nil err clears the rule.
func (t *Target) FailMutation(itemID, label string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := failKey{itemID, catalogs.Fold(label)}
	if err == nil {
		delete(t.failures, key)
		return
	}
	t.failures[key] = err
}

// Mutations returns every mutation attempted so far, in call order.
func (t *Target) Mutations() []Mutation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.mutations)
}

// Tags returns a sorted snapshot of the item's current tags.
func (t *Target) Tags(itemID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[itemID]
	if !ok {
		return nil
	}
	tags := slices.Clone(item.Tags)
	slices.Sort(tags)
	return tags
}

func cloneItem(item catalogs.TargetItem) catalogs.TargetItem {
	cp := item
	cp.Tags = slices.Clone(item.Tags)
	if item.ExternalIDs != nil {
		cp.ExternalIDs = make(catalogs.ExternalIDs, len(item.ExternalIDs))
		for k, v := range item.ExternalIDs {
			cp.ExternalIDs[k] = v
		}
	}
	return cp
}
