//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agritrace/internal/ledger/models"
	"agritrace/internal/ledger/store"
	id "agritrace/pkg/domain"
	"agritrace/pkg/platform/sentinel"
	"agritrace/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Reset(context.Background()))
}

func (s *PostgresStoreSuite) newProduct(producer id.Principal) *models.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p, err := models.NewProduct(producer, "Apples", "Farm A", now.Add(-time.Hour), 100, []string{"USDA Organic"}, now)
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestCreateAllocatesDenseIDs() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, s.newProduct("alice"))
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, s.newProduct("bob"))
	s.Require().NoError(err)

	s.Equal(id.ProductID(1), first)
	s.Equal(id.ProductID(2), second)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), count)
}

func (s *PostgresStoreSuite) TestRoundTripPreservesSequences() {
	ctx := context.Background()

	productID, err := s.store.Create(ctx, s.newProduct("alice"))
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, productID)
	s.Require().NoError(err)
	s.Equal("Apples", found.Name)
	s.Equal(id.Principal("alice"), found.Producer)
	s.Equal(id.Principal("alice"), found.Owner)
	s.Equal([]id.Principal{"alice"}, found.History)
	s.Equal([]string{"USDA Organic"}, found.Certifications)
	s.True(found.Available)
	s.True(found.Organic)
}

func (s *PostgresStoreSuite) TestFindByIDBoundaries() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, 0)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	productID, err := s.store.Create(ctx, s.newProduct("alice"))
	s.Require().NoError(err)

	_, err = s.store.FindByID(ctx, productID+1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecuteCommitsTransfer() {
	ctx := context.Background()

	productID, err := s.store.Create(ctx, s.newProduct("alice"))
	s.Require().NoError(err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := s.store.Execute(ctx, productID, func(p *models.Product) error {
		if err := p.CanTransfer("alice", "bob"); err != nil {
			return err
		}
		p.ApplyTransfer("bob", now)
		p.ApplyCertification("Fairtrade", now)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(id.Principal("bob"), updated.Owner)

	found, err := s.store.FindByID(ctx, productID)
	s.Require().NoError(err)
	s.Equal(id.Principal("bob"), found.Owner)
	s.Equal([]id.Principal{"alice", "bob"}, found.History)
	s.Equal([]string{"USDA Organic", "Fairtrade"}, found.Certifications)
}

func (s *PostgresStoreSuite) TestExecuteRollsBackOnCallbackError() {
	ctx := context.Background()

	productID, err := s.store.Create(ctx, s.newProduct("alice"))
	s.Require().NoError(err)

	declined := errors.New("payment declined")
	_, err = s.store.Execute(ctx, productID, func(p *models.Product) error {
		p.ApplyTransfer("bob", time.Now())
		return declined
	})
	s.Require().ErrorIs(err, declined)

	found, err := s.store.FindByID(ctx, productID)
	s.Require().NoError(err)
	s.Equal(id.Principal("alice"), found.Owner)
	s.Len(found.History, 1)
}

func (s *PostgresStoreSuite) TestExecuteSerializesConcurrentTransfers() {
	ctx := context.Background()

	productID, err := s.store.Create(ctx, s.newProduct("alice"))
	s.Require().NoError(err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := s.store.Execute(ctx, productID, func(p *models.Product) error {
				if err := p.CanTransfer("alice", "bob"); err != nil {
					return err
				}
				p.ApplyTransfer("bob", time.Now().UTC())
				return nil
			})
			done <- err
		}()
	}

	succeeded := 0
	for i := 0; i < 8; i++ {
		if <-done == nil {
			succeeded++
		}
	}
	s.Equal(1, succeeded, "exactly one concurrent transfer should win")

	found, err := s.store.FindByID(ctx, productID)
	s.Require().NoError(err)
	s.Equal([]id.Principal{"alice", "bob"}, found.History)
}
