//go:build unit || !integration

package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/testsys-project/testsys/pkg/logger"
	"github.com/testsys-project/testsys/pkg/patch"
	"github.com/testsys-project/testsys/pkg/store"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clock.Mock
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.ctx = context.Background()
	s.clock = clock.NewMock()
	s.store = NewInMemoryStore(WithClock(s.clock))
}

func (s *InMemoryStoreSuite) create(name string, doc string) store.Record {
	record, err := s.store.Create(s.ctx, store.Record{
		Kind:   "test",
		Name:   name,
		Object: json.RawMessage(doc),
	})
	s.Require().NoError(err)
	return record
}

func (s *InMemoryStoreSuite) TestCreateAndGet() {
	created := s.create("t1", `{"spec":{"agent":{"keep_running":true}}}`)
	s.Require().Equal(uint64(1), created.Revision)

	got, err := s.store.Get(s.ctx, "test", "t1")
	s.Require().NoError(err)
	s.Require().Equal(created.Revision, got.Revision)
	s.Require().JSONEq(string(created.Object), string(got.Object))
}

func (s *InMemoryStoreSuite) TestCreateDuplicate() {
	s.create("t1", `{}`)
	_, err := s.store.Create(s.ctx, store.Record{Kind: "test", Name: "t1", Object: json.RawMessage(`{}`)})

	var alreadyExists store.ErrRecordAlreadyExists
	s.Require().ErrorAs(err, &alreadyExists)
}

func (s *InMemoryStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "test", "nosuchtest")

	var notFound store.ErrRecordNotFound
	s.Require().ErrorAs(err, &notFound)
	s.Require().Equal("nosuchtest", notFound.Name)
}

func (s *InMemoryStoreSuite) TestPatchAdvancesRevisionOnce() {
	s.create("t1", `{"spec":{}}`)

	patched, err := s.store.Patch(s.ctx, store.PatchRequest{
		Kind: "test",
		Name: "t1",
		Ops: patch.Patch{
			patch.NewAddOperation("/status/agent/task_state", "completed"),
			patch.NewAddOperation("/status/agent/results", map[string]interface{}{"outcome": "pass"}),
		},
		Reason: "send test completion results",
	})
	s.Require().NoError(err)
	s.Require().Equal(uint64(2), patched.Revision)
	s.Require().JSONEq(
		`{"spec":{},"status":{"agent":{"task_state":"completed","results":{"outcome":"pass"}}}}`,
		string(patched.Object))
}

func (s *InMemoryStoreSuite) TestPatchConditionConflict() {
	s.create("t1", `{"spec":{}}`)

	_, err := s.store.Patch(s.ctx, store.PatchRequest{
		Kind:      "test",
		Name:      "t1",
		Ops:       patch.Patch{patch.NewAddOperation("/status", map[string]interface{}{})},
		Condition: store.UpdateCondition{ExpectedRevision: 9},
	})

	var conflict store.ErrInvalidRecordRevision
	s.Require().ErrorAs(err, &conflict)

	// the record is untouched
	got, err := s.store.Get(s.ctx, "test", "t1")
	s.Require().NoError(err)
	s.Require().Equal(uint64(1), got.Revision)
	s.Require().JSONEq(`{"spec":{}}`, string(got.Object))
}

func (s *InMemoryStoreSuite) TestPatchFailsClosed() {
	s.create("t1", `{"spec":{}}`)

	_, err := s.store.Patch(s.ctx, store.PatchRequest{
		Kind: "test",
		Name: "t1",
		Ops: patch.Patch{
			patch.NewAddOperation("/status/agent/task_state", "error"),
			patch.NewReplaceOperation("/status/agent/missing_field", "x"),
		},
	})
	s.Require().Error(err)

	got, err := s.store.Get(s.ctx, "test", "t1")
	s.Require().NoError(err)
	s.Require().Equal(uint64(1), got.Revision)
	s.Require().JSONEq(`{"spec":{}}`, string(got.Object))
}

func (s *InMemoryStoreSuite) TestList() {
	s.create("t2", `{}`)
	s.create("t1", `{}`)

	records, err := s.store.List(s.ctx, "test")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Require().Equal("t1", records[0].Name)
	s.Require().Equal("t2", records[1].Name)
}

func (s *InMemoryStoreSuite) TestDelete() {
	s.create("t1", `{}`)
	s.Require().NoError(s.store.Delete(s.ctx, "test", "t1"))

	_, err := s.store.Get(s.ctx, "test", "t1")
	var notFound store.ErrRecordNotFound
	s.Require().ErrorAs(err, &notFound)

	err = s.store.Delete(s.ctx, "test", "t1")
	s.Require().ErrorAs(err, &notFound)
}

func (s *InMemoryStoreSuite) TestWatch() {
	events := s.store.Watch(s.ctx, "test", store.CreateEvent|store.UpdateEvent|store.DeleteEvent)

	s.create("t1", `{"spec":{}}`)
	_, err := s.store.Patch(s.ctx, store.PatchRequest{
		Kind: "test",
		Name: "t1",
		Ops:  patch.Patch{patch.NewAddOperation("/status", map[string]interface{}{})},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.store.Delete(s.ctx, "test", "t1"))

	expected := []store.StoreEventType{store.CreateEvent, store.UpdateEvent, store.DeleteEvent}
	for _, want := range expected {
		ev := <-events
		s.Require().Equal(want, ev.Event)
		s.Require().Equal("test", ev.Kind)
		s.Require().Equal("t1", ev.Name)
	}
}

func (s *InMemoryStoreSuite) TestWatchFiltersKind() {
	events := s.store.Watch(s.ctx, "other", store.CreateEvent)
	s.create("t1", `{}`)
	s.Require().Empty(events)
}

func (s *InMemoryStoreSuite) TestSlowWatcherDoesNotBlockWriters() {
	events := s.store.Watch(s.ctx, "test", store.CreateEvent)

	// nothing consumes the channel; writes past its capacity must not block
	for i := 0; i < store.DefaultWatchChannelSize+10; i++ {
		s.create(fmt.Sprintf("t%03d", i), `{}`)
	}
	s.Require().Len(events, store.DefaultWatchChannelSize)
}

func (s *InMemoryStoreSuite) TestWatchStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	events := s.store.Watch(ctx, "test", store.CreateEvent)

	cancel()

	// the channel is closed once the watcher is unregistered
	_, ok := <-events
	s.Require().False(ok)

	// later writes neither block nor panic on the departed watcher
	s.create("t1", `{}`)
}

func (s *InMemoryStoreSuite) TestClosed() {
	s.Require().NoError(s.store.Close(s.ctx))

	_, err := s.store.Get(s.ctx, "test", "t1")
	require.ErrorIs(s.T(), err, store.ErrStoreClosed)

	_, err = s.store.Create(s.ctx, store.Record{Kind: "test", Name: "t1"})
	require.ErrorIs(s.T(), err, store.ErrStoreClosed)
}
