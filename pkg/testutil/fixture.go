package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/internal/repository"
)

var (
	User1 = &entity.User{Base: entity.Base{ID: "user1"}, Name: "Sender One", Email: "one@example.com"}
	User2 = &entity.User{Base: entity.Base{ID: "user2"}, Name: "Sender Two", Email: "two@example.com"}

	Users = []*entity.User{User1, User2}

	// ManualDrop1 belongs to User1, it has media and has not been opened.
	ManualDrop1 = &entity.GiftDrop{
		Base:             entity.Base{ID: "drop1", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		UserID:           User1.ID,
		Title:            "Happy Birthday!",
		Message:          "Pick one",
		DistributionMode: entity.ManualDistribution,
		Status:           entity.LiveDrop,
		Gifts: entity.Array[entity.Gift]{
			{ID: entity.GiftID("drop1", 0), Name: "Mug", Image: "https://img/mug.png"},
			{ID: entity.GiftID("drop1", 1), Name: "Socks", Image: "https://img/socks.png"},
		},
		GifterMedia: entity.MediaList{
			{Type: entity.CardMedia, URL: "https://cdn/media/uploads/user1/1-a.png", PublicID: "uploads/user1/1-a.png"},
		},
	}

	// RandomDrop2 belongs to User1, it has no media.
	RandomDrop2 = &entity.GiftDrop{
		Base:             entity.Base{ID: "drop2", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		UserID:           User1.ID,
		Title:            "Surprise",
		DistributionMode: entity.RandomDistribution,
		Status:           entity.LiveDrop,
		Gifts: entity.Array[entity.Gift]{
			{ID: entity.GiftID("drop2", 0), Name: "Book", Image: "https://img/book.png"},
			{ID: entity.GiftID("drop2", 1), Name: "Pen", Image: "https://img/pen.png"},
			{ID: entity.GiftID("drop2", 2), Name: "Tea", Image: "https://img/tea.png"},
		},
		GifterMedia: entity.MediaList{},
	}

	// OpenedDrop3 belongs to User2 and has already been opened.
	OpenedDrop3 = &entity.GiftDrop{
		Base:             entity.Base{ID: "drop3", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		UserID:           User2.ID,
		Title:            "Thanks",
		DistributionMode: entity.ManualDistribution,
		Status:           entity.LiveDrop,
		Gifts: entity.Array[entity.Gift]{
			{ID: entity.GiftID("drop3", 0), Name: "Plant", Image: "https://img/plant.png"},
		},
		GifterMedia:       entity.MediaList{},
		RecipientOpenedAt: sql.NullTime{Valid: true, Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	Drops = []*entity.GiftDrop{ManualDrop1, RandomDrop2, OpenedDrop3}
)

func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
	InsertDrops(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()
	for _, u := range Users {
		user := *u
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func InsertDrops(ctx context.Context) {
	dropRepo := repository.NewDropRepository()
	for _, d := range Drops {
		drop := *d
		drop.Gifts = append(entity.Array[entity.Gift]{}, d.Gifts...)
		drop.GifterMedia = append(entity.MediaList{}, d.GifterMedia...)
		if err := dropRepo.Create(ctx, &drop); err != nil {
			panic(err)
		}
	}
}
