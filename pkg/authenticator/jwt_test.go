package authenticator_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/luckydrop/backend/pkg/authenticator"
	"github.com/stretchr/testify/require"
)

type accessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestJWT(t *testing.T) {
	engine := authenticator.NewTokenEngine[accessToken]("secret", time.Minute)
	token, err := engine.Generate("user1", accessToken{ID: "user1", Name: "Ann"})
	require.NoError(t, err)

	obj, err := engine.Verify(token)
	require.NoError(t, err)
	require.Equal(t, accessToken{ID: "user1", Name: "Ann"}, obj)
}

func TestJWTExpiration(t *testing.T) {
	engine := authenticator.NewTokenEngine[accessToken]("secret", time.Nanosecond)
	token, err := engine.Generate("user1", accessToken{ID: "user1"})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = engine.Verify(token)
	require.Error(t, err)
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := authenticator.NewTokenEngine[accessToken]("secret", time.Minute).
		Generate("user1", accessToken{ID: "user1"})
	require.NoError(t, err)

	_, err = authenticator.NewTokenEngine[accessToken]("other", time.Minute).Verify(token)
	require.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}
