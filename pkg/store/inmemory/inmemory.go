package inmemory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/testsys-project/testsys/pkg/store"
)

// InMemoryStore is a map-backed record store. It enforces the same contract
// as the persistent backends, so protocol code can be exercised against it
// in tests without touching disk.
type InMemoryStore struct {
	// records is a map of record kind to a map of record name to record
	records     map[string]map[string]store.Record
	watchers    []*store.Watcher
	watcherLock sync.Mutex
	mtx         sync.RWMutex
	clock       clock.Clock
	closed      bool
}

type Option func(s *InMemoryStore)

func WithClock(clock clock.Clock) Option {
	return func(s *InMemoryStore) {
		s.clock = clock
	}
}

func NewInMemoryStore(options ...Option) *InMemoryStore {
	res := &InMemoryStore{
		records:  make(map[string]map[string]store.Record),
		watchers: make([]*store.Watcher, 0),
		clock:    clock.New(),
	}
	for _, opt := range options {
		opt(res)
	}

	return res
}

func (d *InMemoryStore) Watch(ctx context.Context, kind string, events store.StoreEventType) chan store.WatchEvent {
	w := store.NewWatcher(kind, events)

	d.watcherLock.Lock()
	d.watchers = append(d.watchers, w)
	d.watcherLock.Unlock()

	go func() {
		<-ctx.Done()
		d.removeWatcher(w)
	}()

	return w.Channel()
}

// removeWatcher unregisters the watcher and closes its channel. Both happen
// under the watcher lock so no event can be written after the close.
func (d *InMemoryStore) removeWatcher(w *store.Watcher) {
	d.watcherLock.Lock()
	defer d.watcherLock.Unlock()
	for i, existing := range d.watchers {
		if existing == w {
			d.watchers = append(d.watchers[:i], d.watchers[i+1:]...)
			w.Close()
			return
		}
	}
}

// triggerEvent runs while the caller holds the store lock, so events are
// delivered without blocking: a watcher whose channel is full misses the
// event rather than freezing every writer behind a stalled consumer.
func (d *InMemoryStore) triggerEvent(kind string, name string, event store.StoreEventType, record store.Record) {
	object, _ := json.Marshal(record)

	d.watcherLock.Lock()
	defer d.watcherLock.Unlock()
	for _, w := range d.watchers {
		if w.IsWatchingEvent(event) && w.IsWatchingKind(kind) {
			w.WriteEvent(kind, name, event, object, false)
		}
	}
}

func (d *InMemoryStore) Get(_ context.Context, kind string, name string) (store.Record, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if d.closed {
		return store.Record{}, store.ErrStoreClosed
	}
	return d.getRecord(kind, name)
}

func (d *InMemoryStore) List(_ context.Context, kind string) ([]store.Record, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()
	if d.closed {
		return nil, store.ErrStoreClosed
	}

	result := make([]store.Record, 0, len(d.records[kind]))
	for _, r := range maps.Values(d.records[kind]) {
		result = append(result, r.Copy())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (d *InMemoryStore) Create(_ context.Context, record store.Record) (store.Record, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.closed {
		return store.Record{}, store.ErrStoreClosed
	}

	if _, ok := d.records[record.Kind][record.Name]; ok {
		return store.Record{}, store.NewErrRecordAlreadyExists(record.Kind, record.Name)
	}

	record = record.Copy()
	record.Revision = 1
	record.CreateTime = d.clock.Now().UTC().UnixNano()
	record.ModifyTime = record.CreateTime

	if _, ok := d.records[record.Kind]; !ok {
		d.records[record.Kind] = make(map[string]store.Record)
	}
	d.records[record.Kind][record.Name] = record

	d.triggerEvent(record.Kind, record.Name, store.CreateEvent, record)

	return record.Copy(), nil
}

func (d *InMemoryStore) Patch(_ context.Context, request store.PatchRequest) (store.Record, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.closed {
		return store.Record{}, store.ErrStoreClosed
	}

	record, err := d.getRecord(request.Kind, request.Name)
	if err != nil {
		return store.Record{}, err
	}

	if err := request.Condition.Validate(record); err != nil {
		return store.Record{}, err
	}

	doc, err := store.ApplyPatch(record, request.Ops)
	if err != nil {
		return store.Record{}, err
	}

	record.Object = doc
	record.Revision++
	record.ModifyTime = d.clock.Now().UTC().UnixNano()
	d.records[record.Kind][record.Name] = record

	log.Debug().
		Str("Kind", record.Kind).
		Str("Name", record.Name).
		Uint64("Revision", record.Revision).
		Str("Reason", request.Reason).
		Msg("patched record")

	d.triggerEvent(record.Kind, record.Name, store.UpdateEvent, record)

	return record.Copy(), nil
}

func (d *InMemoryStore) Delete(_ context.Context, kind string, name string) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.closed {
		return store.ErrStoreClosed
	}

	record, err := d.getRecord(kind, name)
	if err != nil {
		return err
	}

	delete(d.records[kind], name)
	d.triggerEvent(kind, name, store.DeleteEvent, record)
	return nil
}

func (d *InMemoryStore) Close(_ context.Context) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.closed = true
	return nil
}

// helper method to read a single record. Callers are expected to be holding
// a lock, so it must not attempt to acquire one itself.
func (d *InMemoryStore) getRecord(kind string, name string) (store.Record, error) {
	r, ok := d.records[kind][name]
	if !ok {
		return store.Record{}, store.NewErrRecordNotFound(kind, name)
	}
	return r.Copy(), nil
}

// Static check to ensure that InMemoryStore implements Store:
var _ store.Store = (*InMemoryStore)(nil)
