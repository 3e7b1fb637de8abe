package guardrepo_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/postgres/guardrepo"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// IdempotencyGuardIntegrationTestSuite verifies claim semantics against a
// real PostgreSQL instance, where the unique index does the arbitration.
type IdempotencyGuardIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
}

func (suite *IdempotencyGuardIntegrationTestSuite) SetupSuite() {
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

	suite.Require().NoError(db.AutoMigrate(&guardrepo.ClaimDTO{}))
}

func (suite *IdempotencyGuardIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE idempotency_claims").Error)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *IdempotencyGuardIntegrationTestSuite) newKey(ref string) ports.IdempotencyKey {
	referenceID, err := kernel.NewReferenceID(ref)
	suite.Require().NoError(err)
	return ports.IdempotencyKey{
		OrderID:     kernel.NewUUID(),
		CommandType: "TransitionOrder",
		ReferenceID: referenceID,
	}
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestClaim_FreshKey_Wins() {
	ctx := context.Background()
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.FailFast)

	claim, err := guard.Claim(ctx, suite.newKey("ref-1"))

	suite.Require().NoError(err)
	suite.False(claim.Duplicate)
	suite.Empty(claim.Outcome)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestClaim_CompletedKey_ReplaysOutcome() {
	ctx := context.Background()
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.FailFast)
	key := suite.newKey("ref-2")

	_, err := guard.Claim(ctx, key)
	suite.Require().NoError(err)
	suite.Require().NoError(guard.Complete(ctx, key, "Paid"))

	claim, err := guard.Claim(ctx, key)

	suite.Require().NoError(err)
	suite.True(claim.Duplicate)
	suite.Equal("Paid", claim.Outcome)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestClaim_InFlightKey_FailsFast() {
	ctx := context.Background()
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.FailFast)
	key := suite.newKey("ref-3")

	_, err := guard.Claim(ctx, key)
	suite.Require().NoError(err)

	_, err = guard.Claim(ctx, key)

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrRequestInProgress)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestClaim_InFlightKey_BlocksUntilOutcome() {
	ctx := context.Background()
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.Block)
	key := suite.newKey("ref-4")

	_, err := guard.Claim(ctx, key)
	suite.Require().NoError(err)

	done := make(chan ports.Claim, 1)
	go func() {
		claim, claimErr := guard.Claim(ctx, key)
		suite.NoError(claimErr)
		done <- claim
	}()

	time.Sleep(250 * time.Millisecond)
	suite.Require().NoError(guard.Complete(ctx, key, "Completed"))

	select {
	case claim := <-done:
		suite.True(claim.Duplicate)
		suite.Equal("Completed", claim.Outcome)
	case <-time.After(5 * time.Second):
		suite.Fail("blocking claim never resolved")
	}
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestClaim_InFlightKey_BlockRespectsContext() {
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.Block)
	key := suite.newKey("ref-5")

	_, err := guard.Claim(context.Background(), key)
	suite.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = guard.Claim(ctx, key)

	suite.Require().Error(err)
	suite.ErrorIs(err, context.DeadlineExceeded)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestRelease_FreesUncompletedKey() {
	ctx := context.Background()
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.FailFast)
	key := suite.newKey("ref-6")

	_, err := guard.Claim(ctx, key)
	suite.Require().NoError(err)
	suite.Require().NoError(guard.Release(ctx, key))

	claim, err := guard.Claim(ctx, key)

	suite.Require().NoError(err)
	suite.False(claim.Duplicate)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestRelease_KeepsCompletedKey() {
	ctx := context.Background()
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.FailFast)
	key := suite.newKey("ref-7")

	_, err := guard.Claim(ctx, key)
	suite.Require().NoError(err)
	suite.Require().NoError(guard.Complete(ctx, key, "Cancelled"))
	suite.Require().NoError(guard.Release(ctx, key))

	claim, err := guard.Claim(ctx, key)

	suite.Require().NoError(err)
	suite.True(claim.Duplicate)
	suite.Equal("Cancelled", claim.Outcome)
}

func (suite *IdempotencyGuardIntegrationTestSuite) TestComplete_UnknownKey_ReturnsNotFound() {
	guard := guardrepo.NewGormIdempotencyGuard(suite.db, ports.FailFast)

	err := guard.Complete(context.Background(), suite.newKey("ref-8"), "Paid")

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func TestIdempotencyGuardIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IdempotencyGuardIntegrationTestSuite))
}
