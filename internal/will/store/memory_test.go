package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"testament/internal/will/models"
	id "testament/pkg/domain"
	"testament/pkg/platform/sentinel"
)

type WillStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *WillStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestWillStoreSuite(t *testing.T) {
	suite.Run(t, new(WillStoreSuite))
}

func (s *WillStoreSuite) newWill() *models.Will {
	w, err := models.NewWill(
		id.AccountID(uuid.New()),
		models.MinInactivityPeriod,
		100,
		time.Unix(1_700_000_000, 0),
	)
	s.Require().NoError(err)
	return w
}

func (s *WillStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds will by owner", func() {
		will := s.newWill()
		s.Require().NoError(s.store.Create(s.ctx, will))

		found, err := s.store.FindByOwner(s.ctx, will.Owner)
		s.Require().NoError(err)
		s.Equal(will.Owner, found.Owner)
		s.Equal(uint64(100), found.Balance)
	})

	s.Run("returns ErrNotFound for unknown owner", func() {
		_, err := s.store.FindByOwner(s.ctx, id.AccountID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects a second will for the same owner", func() {
		will := s.newWill()
		s.Require().NoError(s.store.Create(s.ctx, will))

		dup, err := models.NewWill(will.Owner, models.MinInactivityPeriod, 5, time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *WillStoreSuite) TestSnapshotIsolation() {
	will := s.newWill()
	s.Require().NoError(s.store.Create(s.ctx, will))

	found, err := s.store.FindByOwner(s.ctx, will.Owner)
	s.Require().NoError(err)

	// Mutating the snapshot must not leak into the store.
	found.Balance = 0
	found.Executed = true

	again, err := s.store.FindByOwner(s.ctx, will.Owner)
	s.Require().NoError(err)
	s.Equal(uint64(100), again.Balance)
	s.False(again.Executed)
}

func (s *WillStoreSuite) TestExecuteCommitsOnSuccess() {
	will := s.newWill()
	s.Require().NoError(s.store.Create(s.ctx, will))

	updated, err := s.store.Execute(s.ctx, will.Owner, func(w *models.Will) error {
		w.ApplyDeposit(50, time.Now())
		return nil
	})
	s.Require().NoError(err)
	s.Equal(uint64(150), updated.Balance)

	found, err := s.store.FindByOwner(s.ctx, will.Owner)
	s.Require().NoError(err)
	s.Equal(uint64(150), found.Balance)
}

func (s *WillStoreSuite) TestExecuteDiscardsOnFailure() {
	will := s.newWill()
	s.Require().NoError(s.store.Create(s.ctx, will))

	boom := errors.New("boom")
	_, err := s.store.Execute(s.ctx, will.Owner, func(w *models.Will) error {
		w.ApplyDeposit(50, time.Now())
		w.Executed = true
		return boom
	})
	s.Require().ErrorIs(err, boom)

	found, err := s.store.FindByOwner(s.ctx, will.Owner)
	s.Require().NoError(err)
	s.Equal(uint64(100), found.Balance, "failed callback must leave the will untouched")
	s.False(found.Executed)
}

func (s *WillStoreSuite) TestExecuteNotFound() {
	_, err := s.store.Execute(s.ctx, id.AccountID(uuid.New()), func(w *models.Will) error {
		return nil
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestExecuteSerializesPerWill verifies concurrent deposits never lose
// updates: Execute holds the will lock for the whole callback.
func (s *WillStoreSuite) TestExecuteSerializesPerWill() {
	will := s.newWill()
	s.Require().NoError(s.store.Create(s.ctx, will))

	const goroutines = 50
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, will.Owner, func(w *models.Will) error {
				w.ApplyDeposit(1, time.Now())
				return nil
			})
			s.Require().NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByOwner(s.ctx, will.Owner)
	s.Require().NoError(err)
	s.Equal(uint64(100+goroutines), found.Balance)
}

func (s *WillStoreSuite) TestCount() {
	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	s.Require().NoError(s.store.Create(s.ctx, s.newWill()))
	s.Require().NoError(s.store.Create(s.ctx, s.newWill()))

	n, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}
