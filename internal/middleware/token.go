package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/luckydrop/backend/pkg/router"
	"github.com/luckydrop/backend/pkg/xcontext"
)

type AccessTokenResponse interface {
	AccessTokenInfo() string
}

// HandleSetAccessToken stores the access token of a successful login in a
// cookie, so browsers do not need to send the Authorization header.
func HandleSetAccessToken() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		tokenResp, ok := xcontext.Response(ctx).(AccessTokenResponse)
		if !ok {
			return ctx, nil
		}

		cfg := xcontext.Configs(ctx).Auth.AccessToken
		http.SetCookie(xcontext.ResponseWriter(ctx), &http.Cookie{
			Name:     cfg.Name,
			Value:    tokenResp.AccessTokenInfo(),
			Path:     "/",
			Expires:  time.Now().Add(cfg.Expiration),
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		return ctx, nil
	}
}
