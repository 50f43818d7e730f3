package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/luckydrop/backend/config"
	"github.com/luckydrop/backend/internal/domain"
	"github.com/luckydrop/backend/internal/domain/aiflow"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/migration"
	"github.com/luckydrop/backend/pkg/api/gemini"
	"github.com/luckydrop/backend/pkg/api/googlesearch"
	"github.com/luckydrop/backend/pkg/authenticator"
	"github.com/luckydrop/backend/pkg/idutil"
	"github.com/luckydrop/backend/pkg/kafka"
	"github.com/luckydrop/backend/pkg/logger"
	"github.com/luckydrop/backend/pkg/pubsub"
	"github.com/luckydrop/backend/pkg/router"
	"github.com/luckydrop/backend/pkg/storage"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/luckydrop/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app    *cli.App
	ctx    context.Context
	server *http.Server
	router *router.Router

	dropRepo        repository.DropRepository
	userRepo        repository.UserRepository
	oauth2Repo      repository.OAuth2Repository
	searchCacheRepo repository.SearchCacheRepository

	redisClient    xredis.Client
	storage        storage.Storage
	publisher      pubsub.Publisher
	searcher       googlesearch.Endpoint
	llm            gemini.Endpoint
	idGenerator    idutil.Generator
	tokenEngine    authenticator.TokenEngine[model.AccessToken]
	oauth2Services []authenticator.IOAuth2Service

	dropDomain       domain.DropDomain
	mediaDomain      domain.MediaDomain
	suggestionDomain domain.SuggestionDomain
	authDomain       domain.AuthDomain
}

func (s *srv) loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	var l logger.Logger
	if cfg.Env == "local" {
		l = logger.NewLogger(logger.ParseLevel(cfg.LogLevel))
	} else {
		l = logger.NewJSONLogger(logger.ParseLevel(cfg.LogLevel))
	}

	s.ctx = context.Background()
	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	s.ctx = xcontext.WithLogger(s.ctx, l)
	s.ctx = xcontext.WithHTTPClient(s.ctx, &http.Client{Timeout: 30 * time.Second})
	return nil
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.AutoMigrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	cfg := xcontext.Configs(s.ctx).Redis
	if cfg.Addr == "" {
		xcontext.Logger(s.ctx).Warnf("Redis is not configured, search pages will not be cached")
		return
	}

	client, err := xredis.NewClient(s.ctx, cfg)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadStorage() {
	stg, err := storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
	if err != nil {
		panic(err)
	}

	s.storage = stg
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx).Kafka
	if cfg.Addr == "" {
		xcontext.Logger(s.ctx).Warnf("Kafka is not configured, drop events will be dropped")
		s.publisher = pubsub.NewNopPublisher()
		return
	}

	publisher, err := kafka.NewPublisher("api", strings.Split(cfg.Addr, ","))
	if err != nil {
		panic(err)
	}

	s.publisher = publisher
}

func (s *srv) loadEndpoint() {
	cfg := xcontext.Configs(s.ctx)
	s.searcher = googlesearch.New(cfg.Search.Endpoint, cfg.Search.APIKey, cfg.Search.EngineID)
	s.llm = gemini.New(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Model)
}

func (s *srv) loadAuthenticator() {
	cfg := xcontext.Configs(s.ctx).Auth
	s.tokenEngine = authenticator.NewTokenEngine[model.AccessToken](cfg.TokenSecret, cfg.AccessToken.Expiration)

	if cfg.Google.ClientID == "" {
		xcontext.Logger(s.ctx).Warnf("Google client id is not configured, login is disabled")
		return
	}

	google, err := authenticator.NewOAuth2Config(s.ctx, cfg.Google)
	if err != nil {
		panic(err)
	}

	s.oauth2Services = append(s.oauth2Services, google)
}

func (s *srv) loadIDGenerator() {
	generator, err := idutil.NewSnowflakeGenerator(xcontext.Configs(s.ctx).Drop.NodeID)
	if err != nil {
		panic(err)
	}

	s.idGenerator = generator
}

func (s *srv) loadRepos() {
	s.dropRepo = repository.NewDropRepository()
	s.userRepo = repository.NewUserRepository()
	s.oauth2Repo = repository.NewOAuth2Repository()
	s.searchCacheRepo = repository.NewSearchCacheRepository(
		s.redisClient, xcontext.Configs(s.ctx).Redis.CacheTTL)
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	giftIdeas := aiflow.NewGiftIdeas(s.searcher, s.llm, s.searchCacheRepo, cfg.Search.PageSize, cfg.Search.MaxPages)
	thankYou := aiflow.NewThankYou(s.llm)

	s.dropDomain = domain.NewDropDomain(s.dropRepo, s.idGenerator, s.publisher, thankYou)
	s.mediaDomain = domain.NewMediaDomain(s.dropRepo, s.storage)
	s.suggestionDomain = domain.NewSuggestionDomain(giftIdeas)
	s.authDomain = domain.NewAuthDomain(s.userRepo, s.oauth2Repo, s.oauth2Services, s.tokenEngine)
}
