package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/luckydrop/backend/internal/middleware"
	"github.com/luckydrop/backend/pkg/prometheus"
	"github.com/luckydrop/backend/pkg/router"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func (s *srv) startApi(*cli.Context) error {
	cfg := xcontext.Configs(s.ctx)
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadStorage()
	s.loadPublisher()
	s.loadEndpoint()
	s.loadAuthenticator()
	s.loadIDGenerator()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.ApiServer.AllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:              cfg.ApiServer.Address(),
		Handler:           corsHandler.Handler(s.router.Handler()),
		ReadHeaderTimeout: cfg.ApiServer.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.ApiServer.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		xcontext.Logger(s.ctx).Infof("Shutting down server")
		return s.server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	cfg := xcontext.Configs(s.ctx)

	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.Before(middleware.NewAuthVerifier(s.tokenEngine))
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())
	s.router.Handle("/metrics", prometheus.NewHandler())

	// Auth API
	loginRouter := s.router.Branch()
	loginRouter.After(middleware.HandleSetAccessToken())
	{
		router.POST(loginRouter, "/oauth2/verify", s.authDomain.OAuth2Verify)
	}

	// These following APIs are only available to the sender of drops.
	authRouter := s.router.Branch()
	authRouter.Before(middleware.Authenticate)
	{
		// User API
		router.GET(authRouter, "/getMe", s.authDomain.GetMe)

		// Drop API
		router.POST(authRouter, "/createDrop", s.dropDomain.Create)
		router.POST(authRouter, "/updateDrop", s.dropDomain.Update)
		router.GET(authRouter, "/getMyDrops", s.dropDomain.GetMyList)

		// Media API
		router.STREAM(authRouter, "/uploadMedia", s.mediaDomain.Upload)
		router.POST(authRouter, "/deleteMedia", s.mediaDomain.Delete)
	}

	suggestionRouter := authRouter.Branch()
	suggestionRouter.Before(middleware.NewRateLimiter(cfg.ApiServer.SuggestionsPerMinute, time.Minute).Middleware())
	{
		router.POST(suggestionRouter, "/suggestGifts", s.suggestionDomain.Suggest)
	}

	// Public API, the drop id is the capability to open it.
	router.GET(s.router, "/getDrop", s.dropDomain.Get)
	router.GET(s.router, "/getShare", s.dropDomain.GetShare)
	router.POST(s.router, "/openDrop", s.dropDomain.Open)
	router.POST(s.router, "/completeMedia", s.dropDomain.CompleteMedia)
	router.POST(s.router, "/selectGift", s.dropDomain.SelectGift)
	router.POST(s.router, "/revealGift", s.dropDomain.RevealGift)
	router.POST(s.router, "/claimGift", s.dropDomain.ClaimGift)
	router.POST(s.router, "/generateThankYou", s.dropDomain.GenerateThankYou)
}
