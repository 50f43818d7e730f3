package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/luckydrop/backend/internal/domain/aiflow"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/pkg/errorx"
	"github.com/luckydrop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type suggesterFunc func(ctx context.Context, prompt string, excludeNames []string, maxResults int) (*aiflow.SuggestResult, error)

func (f suggesterFunc) Suggest(
	ctx context.Context, prompt string, excludeNames []string, maxResults int,
) (*aiflow.SuggestResult, error) {
	return f(ctx, prompt, excludeNames, maxResults)
}

func Test_suggestionDomain_Suggest(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.User1.ID)

	var gotPrompt string
	var gotExclude []string
	domain := NewSuggestionDomain(suggesterFunc(
		func(ctx context.Context, prompt string, excludeNames []string, maxResults int) (*aiflow.SuggestResult, error) {
			gotPrompt = prompt
			gotExclude = excludeNames
			return &aiflow.SuggestResult{
				Query:        prompt + " gift",
				TotalResults: 7,
				Gifts: []aiflow.SuggestedGift{
					{Name: "Mug", Image: "https://img/mug.png", Platform: "Amazon", URL: "https://www.amazon.com/mug"},
				},
			}, nil
		}))

	resp, err := domain.Suggest(ctx, &model.SuggestGiftsRequest{
		Prompt:       "  coffee lover  ",
		ExcludeNames: []string{"Socks"},
	})
	require.NoError(t, err)
	require.Equal(t, "coffee lover", gotPrompt)
	require.Equal(t, []string{"Socks"}, gotExclude)
	require.Equal(t, "coffee lover gift", resp.Query)
	require.Equal(t, 7, resp.TotalResults)
	require.Equal(t, []model.SuggestedGift{
		{Name: "Mug", Image: "https://img/mug.png", Platform: "Amazon", URL: "https://www.amazon.com/mug"},
	}, resp.Gifts)
}

func Test_suggestionDomain_Suggest_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		prompt  string
		err     error
		wantErr error
	}{
		{
			name:    "empty prompt",
			prompt:  "   ",
			wantErr: errorx.New(errorx.BadRequest, ""),
		},
		{
			name:    "no results",
			prompt:  "dragon egg",
			err:     aiflow.ErrNoResults,
			wantErr: errorx.New(errorx.NoSuggestions, ""),
		},
		{
			name:    "invalid llm output",
			prompt:  "dragon egg",
			err:     fmt.Errorf("%w: missing url", aiflow.ErrInvalidOutput),
			wantErr: errorx.New(errorx.UpstreamFailed, ""),
		},
		{
			name:    "upstream down",
			prompt:  "dragon egg",
			err:     errors.New("dial tcp: connection refused"),
			wantErr: errorx.New(errorx.Unavailable, ""),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.MockContextWithUserID(testutil.User1.ID)
			domain := NewSuggestionDomain(suggesterFunc(
				func(ctx context.Context, prompt string, excludeNames []string, maxResults int) (*aiflow.SuggestResult, error) {
					return nil, tt.err
				}))

			_, err := domain.Suggest(ctx, &model.SuggestGiftsRequest{Prompt: tt.prompt})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
