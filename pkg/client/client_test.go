//go:build unit || !integration

package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/testsys-project/testsys/pkg/client"
	"github.com/testsys-project/testsys/pkg/logger"
	"github.com/testsys-project/testsys/pkg/models"
	"github.com/testsys-project/testsys/pkg/patch"
	"github.com/testsys-project/testsys/pkg/store"
	"github.com/testsys-project/testsys/pkg/store/inmemory"
)

type ClientSuite struct {
	suite.Suite
	ctx    context.Context
	store  *inmemory.InMemoryStore
	client *client.Client[*models.Test, models.TestStatus]
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.ctx = context.Background()
	s.store = inmemory.NewInMemoryStore()
	s.client = client.New[*models.Test, models.TestStatus](models.KindTest, s.store)
}

func (s *ClientSuite) newTest(name string) *models.Test {
	return &models.Test{
		Name: name,
		Spec: models.TestSpec{
			Agent: models.Agent{
				Name:  "my-agent",
				Image: "agent:v0.1.0",
			},
		},
	}
}

func (s *ClientSuite) TestCreateAndGet() {
	created, err := s.client.Create(s.ctx, s.newTest("t1"))
	s.Require().NoError(err)
	s.Require().Equal("t1", created.Name)

	got, err := s.client.Get(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().Equal("my-agent", got.Spec.Agent.Name)
	s.Require().Nil(got.Status)
}

func (s *ClientSuite) TestGetMissing() {
	_, err := s.client.Get(s.ctx, "nosuchtest")

	var notFound store.ErrRecordNotFound
	s.Require().ErrorAs(err, &notFound)
}

func (s *ClientSuite) TestCreateDuplicate() {
	_, err := s.client.Create(s.ctx, s.newTest("t1"))
	s.Require().NoError(err)

	_, err = s.client.Create(s.ctx, s.newTest("t1"))
	var alreadyExists store.ErrRecordAlreadyExists
	s.Require().ErrorAs(err, &alreadyExists)
}

func (s *ClientSuite) TestPatchStatusRejectsSpecPaths() {
	_, err := s.client.Create(s.ctx, s.newTest("t1"))
	s.Require().NoError(err)

	_, err = s.client.PatchStatus(s.ctx, "t1", patch.Patch{
		patch.NewAddOperation("/status/agent/task_state", models.TaskStateRunning),
		patch.NewReplaceOperation("/spec/agent/keep_running", false),
	}, "sneaky spec write")

	var notStatus client.ErrNotStatusOperation
	s.Require().ErrorAs(err, &notStatus)
	s.Require().Equal("/spec/agent/keep_running", notStatus.Path)

	// nothing was applied
	got, err := s.client.Get(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().Nil(got.Status)
}

func (s *ClientSuite) TestInitializeStatus() {
	_, err := s.client.Create(s.ctx, s.newTest("t1"))
	s.Require().NoError(err)

	initialized, err := s.client.InitializeStatus(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().NotNil(initialized.Status)
	s.Require().Equal(models.TaskStateUnknown, initialized.Status.Agent.TaskState)

	// If status is already initialized, it is an error to do so again.
	_, err = s.client.InitializeStatus(s.ctx, "t1")
	var already client.ErrStatusAlreadyInitialized
	s.Require().ErrorAs(err, &already)

	// and the earlier status was not reset
	got, err := s.client.Get(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().NotNil(got.Status)
}

func (s *ClientSuite) TestInitializeStatusMissingRecord() {
	_, err := s.client.InitializeStatus(s.ctx, "nosuchtest")

	var notFound store.ErrRecordNotFound
	s.Require().ErrorAs(err, &notFound)
}

func (s *ClientSuite) TestInitializeStatusGuardsAgainstConcurrentWrite() {
	_, err := s.client.Create(s.ctx, s.newTest("t1"))
	s.Require().NoError(err)

	// another writer advances the record between our read and write by
	// bumping the revision underneath us
	_, err = s.store.Patch(s.ctx, store.PatchRequest{
		Kind: models.KindTest,
		Name: "t1",
		Ops:  patch.Patch{patch.NewAddOperation("/spec/agent/configuration", map[string]interface{}{})},
	})
	s.Require().NoError(err)

	// a stale guarded write must lose with a revision conflict
	_, err = s.store.Patch(s.ctx, store.PatchRequest{
		Kind:      models.KindTest,
		Name:      "t1",
		Ops:       patch.Patch{patch.NewAddOperation("/status", models.TestStatus{})},
		Condition: store.UpdateCondition{ExpectedRevision: 1},
	})
	var conflict store.ErrInvalidRecordRevision
	s.Require().ErrorAs(err, &conflict)
}
