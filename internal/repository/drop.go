package repository

import (
	"context"
	"time"

	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type DropRepository interface {
	Create(ctx context.Context, drop *entity.GiftDrop) error
	GetByID(ctx context.Context, id string) (*entity.GiftDrop, error)
	GetListByUserID(ctx context.Context, userID string) ([]entity.GiftDrop, error)
	Update(ctx context.Context, id, userID string, data *entity.GiftDrop) error
	MarkOpened(ctx context.Context, id string, at time.Time) error
	SelectGift(ctx context.Context, id, giftID string) error
	SaveRecipientDetails(ctx context.Context, id, name, address string) error
}

type dropRepository struct{}

func NewDropRepository() *dropRepository {
	return &dropRepository{}
}

func (r *dropRepository) Create(ctx context.Context, drop *entity.GiftDrop) error {
	return xcontext.DB(ctx).Omit("User").Create(drop).Error
}

func (r *dropRepository) GetByID(ctx context.Context, id string) (*entity.GiftDrop, error) {
	var result entity.GiftDrop
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *dropRepository) GetListByUserID(ctx context.Context, userID string) ([]entity.GiftDrop, error) {
	var result []entity.GiftDrop
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Update writes the non-empty content fields of data. It only succeeds while
// the drop belongs to userID and has not been opened, otherwise
// gorm.ErrRecordNotFound is returned.
func (r *dropRepository) Update(ctx context.Context, id, userID string, data *entity.GiftDrop) error {
	updateMap := map[string]any{}
	if data.Title != "" {
		updateMap["title"] = data.Title
	}

	if data.Message != "" {
		updateMap["message"] = data.Message
	}

	if data.Gifts != nil {
		updateMap["gifts"] = data.Gifts
	}

	if data.GifterMedia != nil {
		updateMap["gifter_media"] = data.GifterMedia
	}

	if len(updateMap) == 0 {
		return nil
	}

	tx := xcontext.DB(ctx).Model(&entity.GiftDrop{}).
		Where("id=? AND user_id=? AND recipient_opened_at IS NULL", id, userID).
		Updates(updateMap)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// MarkOpened keeps the first timestamp, later calls are no-ops.
func (r *dropRepository) MarkOpened(ctx context.Context, id string, at time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.GiftDrop{}).
		Where("id=? AND recipient_opened_at IS NULL", id).
		Update("recipient_opened_at", at)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return r.exists(ctx, id)
	}

	return nil
}

// SelectGift sets the selected gift only if none is set yet. It returns
// gorm.ErrRecordNotFound when no row changed, the caller re-reads the drop to
// tell a missing drop from a lost race.
func (r *dropRepository) SelectGift(ctx context.Context, id, giftID string) error {
	tx := xcontext.DB(ctx).Model(&entity.GiftDrop{}).
		Where("id=? AND selected_gift_id IS NULL", id).
		Update("selected_gift_id", giftID)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// SaveRecipientDetails requires a selected gift and no previous details.
func (r *dropRepository) SaveRecipientDetails(ctx context.Context, id, name, address string) error {
	tx := xcontext.DB(ctx).Model(&entity.GiftDrop{}).
		Where("id=? AND selected_gift_id IS NOT NULL AND recipient_name IS NULL", id).
		Updates(map[string]any{
			"recipient_name":    name,
			"recipient_address": address,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *dropRepository) exists(ctx context.Context, id string) error {
	var count int64
	if err := xcontext.DB(ctx).Model(&entity.GiftDrop{}).Where("id=?", id).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
