package workflowrepo_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/postgres/workflowrepo"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// WorkflowRepositoryIntegrationTestSuite verifies checkpoint persistence and
// the insert-if-absent run lock against a real PostgreSQL instance.
type WorkflowRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *workflowrepo.GormWorkflowRepository
}

func (suite *WorkflowRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&workflowrepo.CheckpointDTO{}))
}

func (suite *WorkflowRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE workflow_checkpoints").Error)
	suite.repository = workflowrepo.NewGormWorkflowRepository(suite.db)
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *WorkflowRepositoryIntegrationTestSuite) newCheckpoint() *workflow.Checkpoint {
	checkpoint, err := workflow.NewCheckpoint(kernel.NewUUID())
	suite.Require().NoError(err)
	return checkpoint
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestInsert_FreshWorkflowID_Succeeds() {
	ctx := context.Background()
	checkpoint := suite.newCheckpoint()

	err := suite.repository.Insert(ctx, checkpoint)
	suite.Require().NoError(err)

	stored, err := suite.repository.Get(ctx, checkpoint.WorkflowID())
	suite.Require().NoError(err)
	suite.Equal(workflow.Running, stored.Status())
	suite.Equal(checkpoint.OrderID(), stored.OrderID())
	suite.Zero(stored.StepIndex())
	suite.Empty(stored.CompletedSteps())
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestInsert_ExistingWorkflowID_ReturnsRequestInProgress() {
	ctx := context.Background()
	checkpoint := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, checkpoint))

	err := suite.repository.Insert(ctx, checkpoint)

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrRequestInProgress)
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestUpdate_PersistsProgress() {
	ctx := context.Background()
	checkpoint := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, checkpoint))

	suite.Require().NoError(checkpoint.StepCompleted("ReserveStock"))
	suite.Require().NoError(checkpoint.StepCompleted("ProcessPayment"))
	err := suite.repository.Update(ctx, checkpoint)
	suite.Require().NoError(err)

	stored, err := suite.repository.Get(ctx, checkpoint.WorkflowID())
	suite.Require().NoError(err)
	suite.Equal(2, stored.StepIndex())
	suite.Equal([]string{"ReserveStock", "ProcessPayment"}, stored.CompletedSteps())
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestUpdate_UnknownWorkflowID_ReturnsNotFound() {
	err := suite.repository.Update(context.Background(), suite.newCheckpoint())

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestGet_UnknownWorkflowID_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), "wf-missing")

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestRequestCancel_SetsFlag() {
	ctx := context.Background()
	checkpoint := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, checkpoint))

	err := suite.repository.RequestCancel(ctx, checkpoint.WorkflowID())
	suite.Require().NoError(err)

	stored, err := suite.repository.Get(ctx, checkpoint.WorkflowID())
	suite.Require().NoError(err)
	suite.True(stored.CancelRequested())
	suite.Equal(workflow.Running, stored.Status())
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestListResumable_ReturnsOnlyNonTerminalRuns() {
	ctx := context.Background()

	running := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, running))

	compensating := suite.newCheckpoint()
	compensating.StartCompensating(nil)
	suite.Require().NoError(suite.repository.Insert(ctx, compensating))

	completed := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, completed))
	completed.MarkCompleted()
	suite.Require().NoError(suite.repository.Update(ctx, completed))

	cancelled := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, cancelled))
	cancelled.MarkCancelled()
	suite.Require().NoError(suite.repository.Update(ctx, cancelled))

	resumable, err := suite.repository.ListResumable(ctx, time.Now().Add(time.Hour), 10)
	suite.Require().NoError(err)

	suite.Len(resumable, 2)
	ids := make(map[string]bool, len(resumable))
	for _, checkpoint := range resumable {
		ids[checkpoint.WorkflowID()] = true
	}
	suite.True(ids[running.WorkflowID()])
	suite.True(ids[compensating.WorkflowID()])
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestListResumable_HonorsLimit() {
	ctx := context.Background()
	for range 3 {
		suite.Require().NoError(suite.repository.Insert(ctx, suite.newCheckpoint()))
	}

	resumable, err := suite.repository.ListResumable(ctx, time.Now().Add(time.Hour), 2)

	suite.Require().NoError(err)
	suite.Len(resumable, 2)
}

func (suite *WorkflowRepositoryIntegrationTestSuite) TestListResumable_SkipsRecentlyUpdatedRuns() {
	ctx := context.Background()
	checkpoint := suite.newCheckpoint()
	suite.Require().NoError(suite.repository.Insert(ctx, checkpoint))

	resumable, err := suite.repository.ListResumable(ctx, time.Now().Add(-time.Minute), 10)

	suite.Require().NoError(err)
	suite.Empty(resumable)
}

func TestWorkflowRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowRepositoryIntegrationTestSuite))
}
