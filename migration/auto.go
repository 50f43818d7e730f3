package migration

import (
	"context"

	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/pkg/xcontext"
)

func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.OAuth2{},
		&entity.GiftDrop{},
	)
}
