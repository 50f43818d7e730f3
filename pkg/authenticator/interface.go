package authenticator

import (
	"context"
)

type TokenEngine[T any] interface {
	Generate(sub string, obj T) (string, error)
	Verify(token string) (T, error)
}

type OAuth2User struct {
	ID    string
	Name  string
	Email string
}

type IOAuth2Service interface {
	Service() string
	VerifyIDToken(ctx context.Context, rawIDToken string) (OAuth2User, error)
}
