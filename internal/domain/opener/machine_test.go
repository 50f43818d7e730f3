package opener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luckydrop/backend/internal/domain/aiflow"
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	Store
	err error
}

func (s *failingStore) SelectGift(ctx context.Context, id, giftID string) error {
	return s.err
}

func (s *failingStore) SaveRecipientDetails(ctx context.Context, id, name, address string) error {
	return s.err
}

type thankYouFunc func(ctx context.Context, giftName, recipientName string) (*aiflow.ThankYouNote, error)

func (f thankYouFunc) Generate(ctx context.Context, giftName, recipientName string) (*aiflow.ThankYouNote, error) {
	return f(ctx, giftName, recipientName)
}

func load(t *testing.T, ctx context.Context, id string, opts ...Option) *Machine {
	repo := repository.NewDropRepository()
	drop, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	return New(repo, drop, opts...)
}

func requireCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, code, errx.Code)
}

func TestResolve(t *testing.T) {
	drop := &entity.GiftDrop{}
	require.Equal(t, StageInitial, Resolve(drop))

	drop.RecipientOpenedAt.Valid = true
	require.Equal(t, StageSelecting, Resolve(drop))

	drop.GifterMedia = entity.MediaList{{Type: entity.CardMedia, URL: "u"}}
	require.Equal(t, StageMedia, Resolve(drop))

	drop.SelectedGiftID.Valid, drop.SelectedGiftID.String = true, "g"
	require.Equal(t, StageRevealed, Resolve(drop))

	drop.RecipientName.Valid = true
	require.Equal(t, StageThanking, Resolve(drop))
}

func TestMachine_ManualFlow(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	openedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := load(t, ctx, testutil.ManualDrop1.ID, WithClock(func() time.Time { return openedAt }))
	require.Equal(t, StageInitial, m.Stage())

	stage, err := m.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, StageMedia, stage)

	// Open again is a no-op.
	stage, err = m.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, StageMedia, stage)

	require.NoError(t, m.CompleteMedia())
	require.Equal(t, StageSelecting, m.Stage())

	_, err = m.Pick(ctx, "drop1-gift-9")
	requireCode(t, err, errorx.NotFound)
	require.Equal(t, StageSelecting, m.Stage())

	gift, err := m.Pick(ctx, "drop1-gift-0")
	require.NoError(t, err)
	require.Equal(t, "Mug", gift.Name)
	require.Equal(t, StageRevealing, m.Stage())

	requireCode(t, m.Claim(), errorx.InvalidStage)
	require.NoError(t, m.FinishReveal())
	require.NoError(t, m.Claim())
	require.Equal(t, StageDetails, m.Stage())

	requireCode(t, m.SubmitDetails(ctx, "A", "123 Main St, City"), errorx.BadRequest)
	requireCode(t, m.SubmitDetails(ctx, "Ann", "short"), errorx.BadRequest)
	require.Equal(t, StageDetails, m.Stage())

	require.NoError(t, m.SubmitDetails(ctx, "Ann", "123 Main St, City"))
	require.Equal(t, StageThanking, m.Stage())

	note, err := m.ThankYou(ctx, thankYouFunc(func(ctx context.Context, giftName, recipientName string) (*aiflow.ThankYouNote, error) {
		require.Equal(t, "Mug", giftName)
		require.Equal(t, "Ann", recipientName)
		return &aiflow.ThankYouNote{Message: "Thanks!", MediaType: "audio"}, nil
	}))
	require.NoError(t, err)
	require.Equal(t, "Thanks!", note.Message)
	require.Equal(t, StageThanking, m.Stage())

	require.NoError(t, m.Dismiss())
	require.Equal(t, StageDone, m.Stage())
	requireCode(t, m.Dismiss(), errorx.InvalidStage)

	// A new machine resumes from the persisted drop.
	resumed := load(t, ctx, testutil.ManualDrop1.ID)
	require.Equal(t, StageThanking, resumed.Stage())
	require.True(t, openedAt.Equal(resumed.Drop().RecipientOpenedAt.Time))
	require.Equal(t, "drop1-gift-0", resumed.Drop().SelectedGiftID.String)
	require.Equal(t, "123 Main St, City", resumed.Drop().RecipientAddress.String)
}

func TestMachine_InvalidTransitions(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	m := load(t, ctx, testutil.ManualDrop1.ID)
	requireCode(t, m.CompleteMedia(), errorx.InvalidStage)
	requireCode(t, m.FinishReveal(), errorx.InvalidStage)
	requireCode(t, m.Claim(), errorx.InvalidStage)
	requireCode(t, m.Dismiss(), errorx.InvalidStage)
	requireCode(t, m.SubmitDetails(ctx, "Ann", "123 Main St, City"), errorx.InvalidStage)
	_, err := m.Pick(ctx, "drop1-gift-0")
	requireCode(t, err, errorx.InvalidStage)
	_, err = m.ThankYou(ctx, nil)
	requireCode(t, err, errorx.InvalidStage)
	require.Equal(t, StageInitial, m.Stage())

	// Random reveal is rejected on a manual drop.
	_, err = m.RevealRandom(ctx)
	requireCode(t, err, errorx.BadRequest)
}

func TestMachine_Pick_LostRace(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	first := load(t, ctx, testutil.ManualDrop1.ID)
	second := load(t, ctx, testutil.ManualDrop1.ID)
	_, err := first.Open(ctx)
	require.NoError(t, err)
	_, err = second.Open(ctx)
	require.NoError(t, err)

	_, err = first.Pick(ctx, "drop1-gift-1")
	require.NoError(t, err)

	winner, err := second.Pick(ctx, "drop1-gift-0")
	requireCode(t, err, errorx.GiftSelected)
	require.Equal(t, "drop1-gift-1", winner.ID)
	require.Equal(t, StageRevealed, second.Stage())
	require.Equal(t, "drop1-gift-1", second.Drop().SelectedGiftID.String)
}

func TestMachine_Pick_WriteFailure(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := repository.NewDropRepository()
	drop, err := repo.GetByID(ctx, testutil.ManualDrop1.ID)
	require.NoError(t, err)

	m := New(&failingStore{Store: repo, err: errors.New("disk full")}, drop)
	_, err = m.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, StageMedia, m.Stage())

	_, err = m.Pick(ctx, "drop1-gift-0")
	require.ErrorIs(t, err, errorx.Unknown)
	require.Equal(t, StageSelecting, m.Stage())
	require.False(t, m.Drop().HasSelection())
}

func TestMachine_SubmitDetails_WriteFailure(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	repo := repository.NewDropRepository()
	require.NoError(t, repo.MarkOpened(ctx, testutil.ManualDrop1.ID, time.Now()))
	require.NoError(t, repo.SelectGift(ctx, testutil.ManualDrop1.ID, "drop1-gift-0"))
	drop, err := repo.GetByID(ctx, testutil.ManualDrop1.ID)
	require.NoError(t, err)

	m := New(&failingStore{Store: repo, err: errors.New("timeout")}, drop)
	require.Equal(t, StageRevealed, m.Stage())
	require.NoError(t, m.Claim())

	err = m.SubmitDetails(ctx, "Ann", "123 Main St, City")
	require.ErrorIs(t, err, errorx.Unknown)
	require.Equal(t, StageDetails, m.Stage())
	require.False(t, m.Drop().HasRecipientDetails())
}

func TestMachine_RevealRandom(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	m := load(t, ctx, testutil.RandomDrop2.ID, WithPicker(func(n int) int {
		require.Equal(t, 3, n)
		return 2
	}))

	_, err := m.RevealRandom(ctx)
	requireCode(t, err, errorx.InvalidStage)

	stage, err := m.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, StageSelecting, stage)

	_, err = m.Pick(ctx, "drop2-gift-0")
	requireCode(t, err, errorx.BadRequest)

	gift, err := m.RevealRandom(ctx)
	require.NoError(t, err)
	require.Equal(t, "Tea", gift.Name)
	require.Equal(t, StageRevealing, m.Stage())

	// No re-roll, even from a fresh machine with a different picker.
	again := load(t, ctx, testutil.RandomDrop2.ID, WithPicker(func(n int) int { return 0 }))
	gift, err = again.RevealRandom(ctx)
	require.NoError(t, err)
	require.Equal(t, "Tea", gift.Name)
	require.Equal(t, StageRevealed, again.Stage())
}

func TestMachine_RevealRandom_LostRace(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	first := load(t, ctx, testutil.RandomDrop2.ID, WithPicker(func(int) int { return 0 }))
	second := load(t, ctx, testutil.RandomDrop2.ID, WithPicker(func(int) int { return 1 }))
	_, err := first.Open(ctx)
	require.NoError(t, err)
	_, err = second.Open(ctx)
	require.NoError(t, err)

	gift, err := first.RevealRandom(ctx)
	require.NoError(t, err)
	require.Equal(t, "Book", gift.Name)

	gift, err = second.RevealRandom(ctx)
	require.NoError(t, err)
	require.Equal(t, "Book", gift.Name)
	require.Equal(t, StageRevealed, second.Stage())
}
