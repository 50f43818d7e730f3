package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/internal/repository"
	"github.com/luckydrop/backend/pkg/authenticator"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/testutil"
	"github.com/luckydrop/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestAuthDomain() (AuthDomain, authenticator.TokenEngine[model.AccessToken]) {
	google := testutil.NewMockOAuth2("google")
	google.VerifyIDTokenFunc = func(ctx context.Context, rawIDToken string) (authenticator.OAuth2User, error) {
		switch rawIDToken {
		case "ann-token":
			return authenticator.OAuth2User{ID: "ann@example.com", Name: "Ann", Email: "ann@example.com"}, nil
		case "ann-renamed-token":
			return authenticator.OAuth2User{ID: "ann@example.com", Name: "Ann Lee", Email: "ann@example.com"}, nil
		default:
			return authenticator.OAuth2User{}, errors.New("invalid signature")
		}
	}

	engine := authenticator.NewTokenEngine[model.AccessToken]("secret", time.Minute)
	return NewAuthDomain(
		repository.NewUserRepository(),
		repository.NewOAuth2Repository(),
		[]authenticator.IOAuth2Service{google},
		engine,
	), engine
}

func Test_authDomain_OAuth2Verify(t *testing.T) {
	ctx := testutil.MockContext()
	domain, engine := newTestAuthDomain()

	resp, err := domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "google", IDToken: "ann-token"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.User.ID)
	require.Equal(t, "Ann", resp.User.Name)
	require.Equal(t, "ann@example.com", resp.User.Email)

	token, err := engine.Verify(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, token.ID)

	again, err := domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "google", IDToken: "ann-renamed-token"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, again.User.ID)
	require.Equal(t, "Ann Lee", again.User.Name)

	me, err := domain.GetMe(xcontext.WithRequestUserID(ctx, resp.User.ID), &model.GetMeRequest{})
	require.NoError(t, err)
	require.Equal(t, "Ann Lee", me.User.Name)
}

func Test_authDomain_OAuth2Verify_Invalid(t *testing.T) {
	ctx := testutil.MockContext()
	domain, _ := newTestAuthDomain()

	_, err := domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "facebook", IDToken: "ann-token"})
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "google"})
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "google", IDToken: "forged"})
	require.ErrorIs(t, err, errorx.New(errorx.Unauthenticated, ""))

	_, err = domain.GetMe(xcontext.WithRequestUserID(ctx, "missing"), &model.GetMeRequest{})
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))
}
