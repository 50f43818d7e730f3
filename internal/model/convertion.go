package model

import (
	"time"

	"github.com/luckydrop/backend/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertGifts(gifts []entity.Gift) []Gift {
	result := []Gift{}
	for _, g := range gifts {
		result = append(result, ConvertGift(g))
	}
	return result
}

func ConvertGift(g entity.Gift) Gift {
	return Gift{
		ID:          g.ID,
		Name:        g.Name,
		Image:       g.Image,
		Platform:    g.Platform,
		URL:         g.URL,
		Price:       g.Price,
		Description: g.Description,
	}
}

func ConvertMediaList(list []entity.Media) []Media {
	result := []Media{}
	for _, m := range list {
		result = append(result, Media{
			Type:     string(m.Type),
			URL:      m.URL,
			Title:    m.Title,
			PublicID: m.PublicID,
		})
	}
	return result
}

func ConvertDrop(drop *entity.GiftDrop) Drop {
	if drop == nil {
		return Drop{}
	}

	result := Drop{
		ID:               drop.ID,
		UserID:           drop.UserID,
		Title:            drop.Title,
		Message:          drop.Message,
		Gifts:            ConvertGifts(drop.Gifts),
		DistributionMode: string(drop.DistributionMode),
		GifterMedia:      ConvertMediaList(drop.GifterMedia),
		Status:           string(drop.Status),
		SelectedGiftID:   drop.SelectedGiftID.String,
		CreatedAt:        drop.CreatedAt.Format(DefaultTimeLayout),
	}

	if drop.RecipientName.Valid {
		result.RecipientDetails = &RecipientDetails{
			Name:    drop.RecipientName.String,
			Address: drop.RecipientAddress.String,
		}
	}

	if drop.RecipientOpenedAt.Valid {
		result.RecipientOpenedAt = drop.RecipientOpenedAt.Time.Format(DefaultTimeLayout)
	}

	return result
}

func ConvertUser(user *entity.User) User {
	if user == nil {
		return User{}
	}

	return User{ID: user.ID, Name: user.Name, Email: user.Email}
}
