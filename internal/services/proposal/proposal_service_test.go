package proposal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/flippy-exchange/internal/db"
	"github.com/rajivgeraev/flippy-exchange/internal/events"
	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/mocks"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/sqlite"
	"github.com/rajivgeraev/flippy-exchange/internal/utils"
)

type env struct {
	svc       *ProposalService
	store     *sqlite.Store
	published *events.Recorder

	u, v, w        uuid.UUID
	a1, a2, a3, a4 models.Ad
}

// newEnv: U владеет A1 и A3, V владеет A2, W владеет A4
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	store, err := sqlite.New(conn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cat, err := store.CreateCategory(ctx, models.Category{Title: "Разное"})
	require.NoError(t, err)

	e := &env{store: store, published: &events.Recorder{}, u: uuid.New(), v: uuid.New(), w: uuid.New()}
	mk := func(owner uuid.UUID, title string) models.Ad {
		ad, err := store.CreateAd(ctx, models.Ad{OwnerID: owner, CategoryID: cat.ID, Title: title})
		require.NoError(t, err)
		return ad
	}
	e.a1 = mk(e.u, "A1")
	e.a2 = mk(e.v, "A2")
	e.a3 = mk(e.u, "A3")
	e.a4 = mk(e.w, "A4")

	e.svc = NewProposalService(store, store, e.published, utils.NewJWTService("secret"))
	return e
}

func (e *env) list(t *testing.T, actor uuid.UUID, direction models.Direction, status models.ProposalStatus) []models.ExchangeProposal {
	t.Helper()
	seq, err := e.svc.List(context.Background(), actor, direction, status)
	require.NoError(t, err)
	var out []models.ExchangeProposal
	for p, err := range seq {
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newEnv(t)
		comment := "меняю на твою"

		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, &comment)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, p.Status)
		assert.Equal(t, e.a1.ID, p.SenderAdID)
		assert.Equal(t, e.a2.ID, p.ReceiverAdID)
		require.NotNil(t, p.Comment)
		assert.Equal(t, comment, *p.Comment)

		published := e.published.Events()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventProposalCreated, published[0].Type)
		assert.Equal(t, e.v.String(), published[0].UserID)
	})

	t.Run("BlankCommentStoredAsNull", func(t *testing.T) {
		e := newEnv(t)
		blank := "   "

		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, &blank)
		require.NoError(t, err)
		assert.Nil(t, p.Comment)
	})

	t.Run("Duplicate", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)
		_, err = e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		assert.ErrorIs(t, err, ErrAlreadyProposed)

		assert.Len(t, e.list(t, e.u, models.DirectionAll, ""), 1)
	})

	t.Run("SelfTarget", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a3.ID, nil)
		assert.ErrorIs(t, err, ErrSelfTarget)

		_, err = e.svc.Create(ctx, e.u, e.a1.ID, e.a1.ID, nil)
		assert.ErrorIs(t, err, ErrSelfTarget)

		assert.Empty(t, e.list(t, e.u, models.DirectionAll, ""))
		assert.Empty(t, e.published.Events())
	})

	t.Run("NotOwner", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.svc.Create(ctx, e.w, e.a1.ID, e.a2.ID, nil)
		assert.ErrorIs(t, err, ErrNotOwner)

		assert.Empty(t, e.list(t, e.u, models.DirectionAll, ""))
	})

	t.Run("AdNotFound", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.svc.Create(ctx, e.u, uuid.New(), e.a2.ID, nil)
		assert.ErrorIs(t, err, ErrAdNotFound)
		_, err = e.svc.Create(ctx, e.u, e.a1.ID, uuid.New(), nil)
		assert.ErrorIs(t, err, ErrAdNotFound)
	})

	t.Run("ConcurrentDuplicates", func(t *testing.T) {
		e := newEnv(t)

		var wg sync.WaitGroup
		var created, rejected atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, ErrAlreadyProposed):
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, int32(9), rejected.Load())
	})
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	out, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
	require.NoError(t, err)
	in, err := e.svc.Create(ctx, e.w, e.a4.ID, e.a3.ID, nil)
	require.NoError(t, err)

	t.Run("ParticipantsRead", func(t *testing.T) {
		got, err := e.svc.Get(ctx, e.u, out.ID)
		require.NoError(t, err)
		assert.Equal(t, out.ID, got.ID)

		got, err = e.svc.Get(ctx, e.v, out.ID)
		require.NoError(t, err)
		assert.Equal(t, out.ID, got.ID)
	})

	t.Run("OutsiderGetsNotFound", func(t *testing.T) {
		_, err := e.svc.Get(ctx, e.w, out.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = e.svc.Get(ctx, e.u, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListScoped", func(t *testing.T) {
		assert.Len(t, e.list(t, e.u, models.DirectionAll, ""), 2)

		incoming := e.list(t, e.u, models.DirectionIncoming, "")
		require.Len(t, incoming, 1)
		assert.Equal(t, in.ID, incoming[0].ID)

		outgoing := e.list(t, e.u, models.DirectionOutgoing, "")
		require.Len(t, outgoing, 1)
		assert.Equal(t, out.ID, outgoing[0].ID)

		assert.Len(t, e.list(t, e.u, "", ""), 2)

		vs := e.list(t, e.v, models.DirectionAll, "")
		require.Len(t, vs, 1)
		assert.Equal(t, out.ID, vs[0].ID)

		assert.Empty(t, e.list(t, uuid.New(), models.DirectionAll, ""))
	})

	t.Run("InvalidFilters", func(t *testing.T) {
		_, err := e.svc.List(ctx, e.u, "sideways", "")
		assert.ErrorIs(t, err, ErrInvalidFilter)

		_, err = e.svc.List(ctx, e.u, models.DirectionAll, "lost")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("ReceiverApproves", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		updated, err := e.svc.UpdateStatus(ctx, e.v, p.ID, models.StatusApproved)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, updated.Status)
		assert.Equal(t, p.CreatedAt, updated.CreatedAt)

		published := e.published.Events()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventProposalStatusChanged, published[1].Type)
		assert.Equal(t, e.u.String(), published[1].UserID)

		approved := e.list(t, e.v, models.DirectionIncoming, models.StatusApproved)
		require.Len(t, approved, 1)
		assert.Empty(t, e.list(t, e.v, models.DirectionIncoming, models.StatusPending))
	})

	t.Run("SenderCannotUpdate", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, e.u, p.ID, models.StatusApproved)
		assert.ErrorIs(t, err, ErrNotReceiver)

		got, err := e.svc.Get(ctx, e.u, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("OutsiderGetsNotFound", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, e.w, p.ID, models.StatusRejected)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		for _, status := range []models.ProposalStatus{"", models.StatusPending, "accepted"} {
			_, err = e.svc.UpdateStatus(ctx, e.v, p.ID, status)
			assert.ErrorIs(t, err, ErrInvalidStatus, "status %q", status)
		}
	})

	t.Run("TerminalStatusIsFinal", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, e.v, p.ID, models.StatusRejected)
		require.NoError(t, err)
		_, err = e.svc.UpdateStatus(ctx, e.v, p.ID, models.StatusApproved)
		assert.ErrorIs(t, err, ErrAlreadyResolved)
	})

	t.Run("AccessCheckedBeforeStatus", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, e.u, p.ID, models.StatusPending)
		assert.ErrorIs(t, err, ErrNotReceiver)

		_, err = e.svc.UpdateStatus(ctx, e.w, p.ID, "accepted")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = e.svc.UpdateStatus(ctx, e.v, uuid.New(), models.StatusPending)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ConcurrentApproveAndReject", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		// оба запроса читают pending до того, как кто-то из них запишет статус
		store := &readBarrierStore{Store: e.store}
		store.reads.Add(2)
		svc := NewProposalService(e.store, store, e.published, e.svc.jwtService)

		var wg sync.WaitGroup
		var resolved, conflicts atomic.Int32
		for _, status := range []models.ProposalStatus{models.StatusApproved, models.StatusRejected} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.UpdateStatus(ctx, e.v, p.ID, status)
				switch {
				case err == nil:
					resolved.Add(1)
				case errors.Is(err, ErrAlreadyResolved):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), resolved.Load())
		assert.Equal(t, int32(1), conflicts.Load())
		// created + один status_changed
		assert.Len(t, e.published.Events(), 2)
	})
}

// readBarrierStore задерживает GetProposal, пока его не вызовут все ожидаемые читатели
type readBarrierStore struct {
	*sqlite.Store
	reads sync.WaitGroup
}

func (s *readBarrierStore) GetProposal(ctx context.Context, id uuid.UUID) (models.ExchangeProposal, error) {
	p, err := s.Store.GetProposal(ctx, id)
	s.reads.Done()
	s.reads.Wait()
	return p, err
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ReceiverCannotDelete", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		err = e.svc.Delete(ctx, e.v, p.ID)
		assert.ErrorIs(t, err, ErrNotSender)

		_, err = e.svc.Get(ctx, e.v, p.ID)
		assert.NoError(t, err)
	})

	t.Run("OutsiderGetsNotFound", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		assert.ErrorIs(t, e.svc.Delete(ctx, e.w, p.ID), ErrNotFound)
	})

	t.Run("ApproveDeleteThenUpdate", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, e.v, p.ID, models.StatusApproved)
		require.NoError(t, err)

		require.NoError(t, e.svc.Delete(ctx, e.u, p.ID))

		_, err = e.svc.UpdateStatus(ctx, e.v, p.ID, models.StatusRejected)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, e.svc.Delete(ctx, e.u, p.ID), ErrNotFound)

		published := e.published.Events()
		require.Len(t, published, 3)
		assert.Equal(t, events.EventProposalDeleted, published[2].Type)
		assert.Equal(t, e.v.String(), published[2].UserID)
	})

	t.Run("PairFreeAfterDelete", func(t *testing.T) {
		e := newEnv(t)
		p, err := e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		require.NoError(t, err)
		require.NoError(t, e.svc.Delete(ctx, e.u, p.ID))

		_, err = e.svc.Create(ctx, e.u, e.a1.ID, e.a2.ID, nil)
		assert.NoError(t, err)
	})
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	e := newEnv(t)
	e.published.Err = errors.New("redis down")

	_, err := e.svc.Create(context.Background(), e.u, e.a1.ID, e.a2.ID, nil)
	assert.NoError(t, err)
	assert.Len(t, e.published.Events(), 1)
}

func TestStorageErrors(t *testing.T) {
	ctx := context.Background()
	u, v := uuid.New(), uuid.New()
	senderAd := models.Ad{ID: uuid.New(), OwnerID: u}
	receiverAd := models.Ad{ID: uuid.New(), OwnerID: v}

	t.Run("RegistryFailure", func(t *testing.T) {
		ads := new(mocks.AdRegistry)
		store := new(mocks.ProposalStore)
		svc := NewProposalService(ads, store, nil, nil)

		ads.On("GetAd", mock.Anything, senderAd.ID).Return(models.Ad{}, errors.New("connection reset"))

		_, err := svc.Create(ctx, u, senderAd.ID, receiverAd.ID, nil)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrAdNotFound)
		ads.AssertExpectations(t)
		store.AssertNotCalled(t, "CreateProposal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AdVanishedBeforeInsert", func(t *testing.T) {
		ads := new(mocks.AdRegistry)
		store := new(mocks.ProposalStore)
		svc := NewProposalService(ads, store, nil, nil)

		ads.On("GetAd", mock.Anything, senderAd.ID).Return(senderAd, nil)
		ads.On("GetAd", mock.Anything, receiverAd.ID).Return(receiverAd, nil)
		store.On("CreateProposal", mock.Anything, senderAd.ID, receiverAd.ID, (*string)(nil)).
			Return(models.ExchangeProposal{}, storage.ErrNotFound)

		_, err := svc.Create(ctx, u, senderAd.ID, receiverAd.ID, nil)
		assert.ErrorIs(t, err, ErrAdNotFound)
		store.AssertExpectations(t)
	})

	t.Run("DeletedBetweenReadAndUpdate", func(t *testing.T) {
		store := new(mocks.ProposalStore)
		svc := NewProposalService(new(mocks.AdRegistry), store, nil, nil)

		p := models.ExchangeProposal{ID: uuid.New(), Status: models.StatusPending, SenderOwnerID: u, ReceiverOwnerID: v}
		store.On("GetProposal", mock.Anything, p.ID).Return(p, nil)
		store.On("UpdateProposalStatus", mock.Anything, p.ID, models.StatusApproved).
			Return(models.ExchangeProposal{}, storage.ErrNotFound)

		_, err := svc.UpdateStatus(ctx, v, p.ID, models.StatusApproved)
		assert.ErrorIs(t, err, ErrNotFound)
		store.AssertExpectations(t)
	})

	t.Run("ResolvedBetweenReadAndUpdate", func(t *testing.T) {
		store := new(mocks.ProposalStore)
		svc := NewProposalService(new(mocks.AdRegistry), store, nil, nil)

		p := models.ExchangeProposal{ID: uuid.New(), Status: models.StatusPending, SenderOwnerID: u, ReceiverOwnerID: v}
		store.On("GetProposal", mock.Anything, p.ID).Return(p, nil)
		store.On("UpdateProposalStatus", mock.Anything, p.ID, models.StatusRejected).
			Return(models.ExchangeProposal{}, storage.ErrAlreadyResolved)

		_, err := svc.UpdateStatus(ctx, v, p.ID, models.StatusRejected)
		assert.ErrorIs(t, err, ErrAlreadyResolved)
		store.AssertExpectations(t)
	})

	t.Run("ListFailure", func(t *testing.T) {
		store := new(mocks.ProposalStore)
		svc := NewProposalService(new(mocks.AdRegistry), store, nil, nil)

		store.On("ListProposals", mock.Anything, models.ProposalFilter{Participant: u, Direction: models.DirectionAll}).
			Return([]models.ExchangeProposal(nil), errors.New("query failed"))

		seq, err := svc.List(ctx, u, "", "")
		require.NoError(t, err)

		var gotErr error
		for _, err := range seq {
			gotErr = err
		}
		assert.Error(t, gotErr)
	})
}
