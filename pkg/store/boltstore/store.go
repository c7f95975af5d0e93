package boltstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/testsys-project/testsys/pkg/store"
)

const BucketRecords = "records"

// BoltStore is a record store where data is held in buckets: one top level
// bucket for records, one sub-bucket per record kind, and one key per record
// name whose value is the json encoded record envelope. Each patch runs
// inside a single bolt update transaction, which is what makes the
// condition check, the patch apply and the revision bump one atomic unit.
type BoltStore struct {
	database    *bolt.DB
	clock       clock.Clock
	watchers    []*store.Watcher
	watcherLock sync.Mutex
}

type Option func(s *BoltStore)

func WithClock(clock clock.Clock) Option {
	return func(s *BoltStore) {
		s.clock = clock
	}
}

func NewBoltStore(dbPath string, options ...Option) (*BoltStore, error) {
	db, err := GetDatabase(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open record database")
	}

	s := &BoltStore{
		database: db,
		clock:    clock.New(),
		watchers: make([]*store.Watcher, 0),
	}

	for _, opt := range options {
		opt(s)
	}

	// Create the top level records bucket ready for use as it will
	// definitely be required
	err = db.Update(func(tx *bolt.Tx) (err error) {
		_, err = tx.CreateBucketIfNotExists([]byte(BucketRecords))
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create required buckets at startup")
	}

	log.Debug().Str("DBFile", dbPath).Msg("created bolt-backed record store")

	return s, nil
}

func (b *BoltStore) Watch(ctx context.Context, kind string, events store.StoreEventType) chan store.WatchEvent {
	w := store.NewWatcher(kind, events)

	b.watcherLock.Lock()
	b.watchers = append(b.watchers, w)
	b.watcherLock.Unlock()

	go func() {
		<-ctx.Done()
		b.removeWatcher(w)
	}()

	return w.Channel()
}

// removeWatcher unregisters the watcher and closes its channel. Both happen
// under the watcher lock so no event can be written after the close.
func (b *BoltStore) removeWatcher(w *store.Watcher) {
	b.watcherLock.Lock()
	defer b.watcherLock.Unlock()
	for i, existing := range b.watchers {
		if existing == w {
			b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
			w.Close()
			return
		}
	}
}

// triggerEvent delivers without blocking: a watcher whose channel is full
// misses the event rather than stalling the writer.
func (b *BoltStore) triggerEvent(kind string, name string, event store.StoreEventType, record store.Record) {
	object, _ := json.Marshal(record)

	b.watcherLock.Lock()
	defer b.watcherLock.Unlock()
	for _, w := range b.watchers {
		if w.IsWatchingEvent(event) && w.IsWatchingKind(kind) {
			w.WriteEvent(kind, name, event, object, false)
		}
	}
}

func (b *BoltStore) Get(_ context.Context, kind string, name string) (record store.Record, err error) {
	err = b.database.View(func(tx *bolt.Tx) (err error) {
		record, err = b.getRecord(tx, kind, name)
		return err
	})
	return record, b.translate(err)
}

func (b *BoltStore) List(_ context.Context, kind string) (records []store.Record, err error) {
	err = b.database.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(BucketRecords)).Bucket([]byte(kind))
		if bkt == nil {
			return nil
		}
		// bolt iterates keys in byte order, which gives us name order
		return bkt.ForEach(func(k []byte, v []byte) error {
			var record store.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return errors.Wrapf(err, "corrupt record %s/%s", kind, string(k))
			}
			records = append(records, record)
			return nil
		})
	})
	return records, b.translate(err)
}

func (b *BoltStore) Create(_ context.Context, record store.Record) (store.Record, error) {
	record = record.Copy()
	err := b.database.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.Bucket([]byte(BucketRecords)).CreateBucketIfNotExists([]byte(record.Kind))
		if err != nil {
			return err
		}

		if bkt.Get([]byte(record.Name)) != nil {
			return store.NewErrRecordAlreadyExists(record.Kind, record.Name)
		}

		record.Revision = 1
		record.CreateTime = b.clock.Now().UTC().UnixNano()
		record.ModifyTime = record.CreateTime

		return b.putRecord(bkt, record)
	})
	if err != nil {
		return store.Record{}, b.translate(err)
	}

	b.triggerEvent(record.Kind, record.Name, store.CreateEvent, record)
	return record, nil
}

func (b *BoltStore) Patch(_ context.Context, request store.PatchRequest) (store.Record, error) {
	var record store.Record
	err := b.database.Update(func(tx *bolt.Tx) (err error) {
		record, err = b.getRecord(tx, request.Kind, request.Name)
		if err != nil {
			return err
		}

		if err := request.Condition.Validate(record); err != nil {
			return err
		}

		doc, err := store.ApplyPatch(record, request.Ops)
		if err != nil {
			return err
		}

		record.Object = doc
		record.Revision++
		record.ModifyTime = b.clock.Now().UTC().UnixNano()

		bkt := tx.Bucket([]byte(BucketRecords)).Bucket([]byte(request.Kind))
		return b.putRecord(bkt, record)
	})
	if err != nil {
		return store.Record{}, b.translate(err)
	}

	log.Debug().
		Str("Kind", record.Kind).
		Str("Name", record.Name).
		Uint64("Revision", record.Revision).
		Str("Reason", request.Reason).
		Msg("patched record")

	b.triggerEvent(record.Kind, record.Name, store.UpdateEvent, record)
	return record, nil
}

func (b *BoltStore) Delete(_ context.Context, kind string, name string) error {
	var record store.Record
	err := b.database.Update(func(tx *bolt.Tx) (err error) {
		record, err = b.getRecord(tx, kind, name)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(BucketRecords)).Bucket([]byte(kind)).Delete([]byte(name))
	})
	if err != nil {
		return b.translate(err)
	}

	b.triggerEvent(kind, name, store.DeleteEvent, record)
	return nil
}

func (b *BoltStore) Close(_ context.Context) error {
	log.Debug().Msg("closing bolt-backed record store")
	return b.database.Close()
}

func (b *BoltStore) getRecord(tx *bolt.Tx, kind string, name string) (store.Record, error) {
	bkt := tx.Bucket([]byte(BucketRecords)).Bucket([]byte(kind))
	if bkt == nil {
		return store.Record{}, store.NewErrRecordNotFound(kind, name)
	}

	data := bkt.Get([]byte(name))
	if data == nil {
		return store.Record{}, store.NewErrRecordNotFound(kind, name)
	}

	var record store.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return store.Record{}, errors.Wrapf(err, "corrupt record %s/%s", kind, name)
	}
	return record, nil
}

func (b *BoltStore) putRecord(bkt *bolt.Bucket, record store.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return bkt.Put([]byte(record.Name), data)
}

// translate maps database-closed failures onto the store contract error so
// callers can treat backends uniformly.
func (b *BoltStore) translate(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return store.ErrStoreClosed
	}
	return err
}

// Static check to ensure that BoltStore implements Store:
var _ store.Store = (*BoltStore)(nil)
