package repository

import (
	"context"
	"time"

	"github.com/luckydrop/backend/internal/common"
	"github.com/luckydrop/backend/pkg/api/googlesearch"
	"github.com/luckydrop/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

type SearchCacheRepository interface {
	// GetPage returns nil without error on a cache miss.
	GetPage(ctx context.Context, query string, page int) (*googlesearch.Page, error)
	SavePage(ctx context.Context, query string, page int, data *googlesearch.Page) error
}

type searchCacheRepository struct {
	redisClient xredis.Client
	ttl         time.Duration
}

// NewSearchCacheRepository caches search pages in redis. A nil client
// disables the cache.
func NewSearchCacheRepository(redisClient xredis.Client, ttl time.Duration) *searchCacheRepository {
	return &searchCacheRepository{redisClient: redisClient, ttl: ttl}
}

func (r *searchCacheRepository) GetPage(ctx context.Context, query string, page int) (*googlesearch.Page, error) {
	if r.redisClient == nil {
		return nil, nil
	}

	var result googlesearch.Page
	if err := r.redisClient.GetObj(ctx, common.RedisKeySearchPage(query, page), &result); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	return &result, nil
}

func (r *searchCacheRepository) SavePage(ctx context.Context, query string, page int, data *googlesearch.Page) error {
	if r.redisClient == nil {
		return nil
	}

	return r.redisClient.SetObj(ctx, common.RedisKeySearchPage(query, page), data, r.ttl)
}
