package repository

import (
	"context"

	"github.com/luckydrop/backend/internal/entity"
	"github.com/luckydrop/backend/pkg/xcontext"
)

type OAuth2Repository interface {
	Create(ctx context.Context, data *entity.OAuth2) error
}

type oauth2Repository struct{}

func NewOAuth2Repository() *oauth2Repository {
	return &oauth2Repository{}
}

func (r *oauth2Repository) Create(ctx context.Context, data *entity.OAuth2) error {
	return xcontext.DB(ctx).Omit("User").Create(data).Error
}
