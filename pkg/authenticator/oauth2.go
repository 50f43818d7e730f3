package authenticator

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/luckydrop/backend/config"
)

type OAuth2Config struct {
	*oidc.Provider

	name     string
	clientID string
	idField  string
}

func NewOAuth2Config(ctx context.Context, cfg config.OAuth2Config) (*OAuth2Config, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	return &OAuth2Config{
		Provider: provider,
		name:     cfg.Name,
		clientID: cfg.ClientID,
		idField:  cfg.IDField,
	}, nil
}

func (a *OAuth2Config) Service() string {
	return a.name
}

// VerifyIDToken checks signature, issuer, audience and expiry of the raw
// ID token and extracts the user identity from its claims.
func (a *OAuth2Config) VerifyIDToken(ctx context.Context, rawIDToken string) (OAuth2User, error) {
	idToken, err := a.Verifier(&oidc.Config{ClientID: a.clientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return OAuth2User{}, err
	}

	var profile map[string]any
	if err = idToken.Claims(&profile); err != nil {
		return OAuth2User{}, errors.New("invalid id token")
	}

	id, ok := profile[a.idField].(string)
	if !ok || id == "" {
		return OAuth2User{}, fmt.Errorf("invalid id field %s", a.idField)
	}

	name, _ := profile["name"].(string)
	email, _ := profile["email"].(string)
	return OAuth2User{ID: id, Name: name, Email: email}, nil
}
