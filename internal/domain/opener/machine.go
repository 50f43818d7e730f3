package opener

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/luckydrop/backend/internal/domain/aiflow"
	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

const (
	minNameLength    = 2
	minAddressLength = 10
)

// Store is the subset of the drop repository the machine persists through.
type Store interface {
	GetByID(ctx context.Context, id string) (*entity.GiftDrop, error)
	MarkOpened(ctx context.Context, id string, at time.Time) error
	SelectGift(ctx context.Context, id, giftID string) error
	SaveRecipientDetails(ctx context.Context, id, name, address string) error
}

type ThankYouGenerator interface {
	Generate(ctx context.Context, giftName, recipientName string) (*aiflow.ThankYouNote, error)
}

// Picker returns an index in [0, n).
type Picker func(n int) int

type Option func(*Machine)

func WithPicker(p Picker) Option {
	return func(m *Machine) { m.picker = p }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// Machine drives the recipient through a drop. Every transition that changes
// persisted state writes through the store before the stage moves, so a
// failed write never advances the stage.
type Machine struct {
	store  Store
	drop   *entity.GiftDrop
	stage  Stage
	picker Picker
	now    func() time.Time
}

func New(store Store, drop *entity.GiftDrop, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		drop:   drop,
		stage:  Resolve(drop),
		picker: rand.Intn,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Machine) Stage() Stage {
	return m.stage
}

func (m *Machine) Drop() *entity.GiftDrop {
	return m.drop
}

// SelectedGift returns the gift chosen for the drop, if any.
func (m *Machine) SelectedGift() (entity.Gift, bool) {
	if !m.drop.HasSelection() {
		return entity.Gift{}, false
	}

	return m.drop.GetGift(m.drop.SelectedGiftID.String)
}

// Open marks the drop as opened. It is a no-op after the first stage.
func (m *Machine) Open(ctx context.Context) (Stage, error) {
	if m.stage != StageInitial {
		return m.stage, nil
	}

	now := m.now()
	if err := m.store.MarkOpened(ctx, m.drop.ID, now); err != nil {
		return m.stage, m.storeError(ctx, err, "Cannot mark drop as opened")
	}

	if !m.drop.RecipientOpenedAt.Valid {
		m.drop.RecipientOpenedAt = sql.NullTime{Time: now, Valid: true}
	}

	if len(m.drop.GifterMedia) > 0 {
		m.stage = StageMedia
	} else {
		m.stage = StageSelecting
	}

	return m.stage, nil
}

func (m *Machine) CompleteMedia() error {
	if err := m.expect("continue", StageMedia); err != nil {
		return err
	}

	m.stage = StageSelecting
	return nil
}

// Pick persists the gift chosen by the recipient of a manual drop.
func (m *Machine) Pick(ctx context.Context, giftID string) (entity.Gift, error) {
	if m.drop.DistributionMode != entity.ManualDistribution {
		return entity.Gift{}, errorx.New(errorx.BadRequest, "This drop reveals its gift randomly")
	}

	if err := m.expect("pick a gift", StageMedia, StageSelecting); err != nil {
		return entity.Gift{}, err
	}

	gift, ok := m.drop.GetGift(giftID)
	if !ok {
		return entity.Gift{}, errorx.New(errorx.NotFound, "Not found gift")
	}

	winner, err := m.commit(ctx, gift)
	if err != nil {
		return entity.Gift{}, err
	}

	if winner.ID != gift.ID {
		return winner, errorx.New(errorx.GiftSelected, "A gift has already been selected")
	}

	return gift, nil
}

// RevealRandom draws a gift of a random drop. An existing selection is
// returned as is, the draw never happens twice.
func (m *Machine) RevealRandom(ctx context.Context) (entity.Gift, error) {
	if m.drop.DistributionMode != entity.RandomDistribution {
		return entity.Gift{}, errorx.New(errorx.BadRequest, "The recipient picks the gift of this drop")
	}

	if gift, ok := m.SelectedGift(); ok {
		return gift, nil
	}

	if err := m.expect("reveal a gift", StageMedia, StageSelecting); err != nil {
		return entity.Gift{}, err
	}

	if len(m.drop.Gifts) == 0 {
		return entity.Gift{}, errorx.New(errorx.NotFound, "Drop has no gift")
	}

	gift := m.drop.Gifts[m.picker(len(m.drop.Gifts))]
	return m.commit(ctx, gift)
}

// commit writes the selection with a compare-and-set. When another request
// won the race, the persisted winner is adopted and returned.
func (m *Machine) commit(ctx context.Context, gift entity.Gift) (entity.Gift, error) {
	err := m.store.SelectGift(ctx, m.drop.ID, gift.ID)
	if err == nil {
		m.drop.SelectedGiftID = sql.NullString{String: gift.ID, Valid: true}
		m.stage = StageRevealing
		return gift, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		m.stage = StageSelecting
		xcontext.Logger(ctx).Errorf("Cannot select gift: %v", err)
		return entity.Gift{}, errorx.Unknown
	}

	drop, err := m.store.GetByID(ctx, m.drop.ID)
	if err != nil {
		m.stage = StageSelecting
		return entity.Gift{}, m.storeError(ctx, err, "Cannot reload drop")
	}

	winner, ok := drop.GetGift(drop.SelectedGiftID.String)
	if !drop.HasSelection() || !ok {
		m.stage = StageSelecting
		xcontext.Logger(ctx).Errorf("Selection of drop %s was not written and is still empty", m.drop.ID)
		return entity.Gift{}, errorx.Unknown
	}

	m.drop = drop
	m.stage = Resolve(drop)
	return winner, nil
}

func (m *Machine) FinishReveal() error {
	if err := m.expect("finish the reveal", StageRevealing); err != nil {
		return err
	}

	m.stage = StageRevealed
	return nil
}

func (m *Machine) Claim() error {
	if err := m.expect("claim the gift", StageRevealed); err != nil {
		return err
	}

	m.stage = StageDetails
	return nil
}

// SubmitDetails stores where the gift should be sent.
func (m *Machine) SubmitDetails(ctx context.Context, name, address string) error {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	if len([]rune(name)) < minNameLength {
		return errorx.New(errorx.BadRequest, "Name must be at least %d characters", minNameLength)
	}

	if len([]rune(address)) < minAddressLength {
		return errorx.New(errorx.BadRequest, "Address must be at least %d characters", minAddressLength)
	}

	if err := m.expect("submit details", StageRevealed, StageDetails); err != nil {
		return err
	}

	if err := m.store.SaveRecipientDetails(ctx, m.drop.ID, name, address); err != nil {
		m.stage = StageDetails
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.Conflict, "Details have already been submitted")
		}

		xcontext.Logger(ctx).Errorf("Cannot save recipient details: %v", err)
		return errorx.Unknown
	}

	m.drop.RecipientName = sql.NullString{String: name, Valid: true}
	m.drop.RecipientAddress = sql.NullString{String: address, Valid: true}
	m.stage = StageThanking
	return nil
}

func (m *Machine) ThankYou(ctx context.Context, generator ThankYouGenerator) (*aiflow.ThankYouNote, error) {
	if err := m.expect("write a thank-you note", StageThanking); err != nil {
		return nil, err
	}

	gift, ok := m.SelectedGift()
	if !ok {
		return nil, errorx.New(errorx.NotFound, "Not found selected gift")
	}

	return generator.Generate(ctx, gift.Name, m.drop.RecipientName.String)
}

func (m *Machine) Dismiss() error {
	if err := m.expect("dismiss", StageThanking); err != nil {
		return err
	}

	m.stage = StageDone
	return nil
}

func (m *Machine) expect(action string, stages ...Stage) error {
	if !slices.Contains(stages, m.stage) {
		return errorx.New(errorx.InvalidStage, "Cannot %s at stage %s", action, m.stage)
	}

	return nil
}

func (m *Machine) storeError(ctx context.Context, err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.New(errorx.NotFound, "Not found drop")
	}

	xcontext.Logger(ctx).Errorf("%s: %v", msg, err)
	return errorx.Unknown
}
