package middleware

import (
	"context"
	"strings"

	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/pkg/authenticator"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/router"
	"github.com/luckydrop/backend/pkg/xcontext"
)

// NewAuthVerifier reads the access token of the request, from the
// Authorization header or from the access token cookie, and stores the user
// id in the context when the token is valid.
func NewAuthVerifier(engine authenticator.TokenEngine[model.AccessToken]) router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		token := getAccessToken(ctx)
		if token == "" {
			return ctx, nil
		}

		info, err := engine.Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid access token: %v", err)
			return ctx, nil
		}

		return xcontext.WithRequestUserID(ctx, info.ID), nil
	}
}

func Authenticate(ctx context.Context) (context.Context, error) {
	if xcontext.RequestUserID(ctx) == "" {
		return ctx, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
	}

	return ctx, nil
}

func getAccessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	authorization := req.Header.Get("Authorization")
	auth, token, found := strings.Cut(authorization, " ")
	if found {
		if auth == "Bearer" {
			return token
		}
		return ""
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
