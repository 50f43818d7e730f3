package domain

import (
	"context"
	"strings"

	"github.com/luckydrop/backend/internal/domain/aiflow"
	"github.com/luckydrop/backend/internal/model"
	"github.com/luckydrop/backend/pkg/errorx"
)

const maxPromptLength = 500

type GiftSuggester interface {
	Suggest(ctx context.Context, prompt string, excludeNames []string, maxResults int) (*aiflow.SuggestResult, error)
}

type SuggestionDomain interface {
	Suggest(context.Context, *model.SuggestGiftsRequest) (*model.SuggestGiftsResponse, error)
}

type suggestionDomain struct {
	giftIdeas GiftSuggester
}

func NewSuggestionDomain(giftIdeas GiftSuggester) SuggestionDomain {
	return &suggestionDomain{giftIdeas: giftIdeas}
}

func (d *suggestionDomain) Suggest(
	ctx context.Context, req *model.SuggestGiftsRequest,
) (*model.SuggestGiftsResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errorx.New(errorx.BadRequest, "Describe the person or the occasion first")
	}

	if len([]rune(prompt)) > maxPromptLength {
		return nil, errorx.New(errorx.BadRequest, "Prompt too long (at most %d characters)", maxPromptLength)
	}

	result, err := d.giftIdeas.Suggest(ctx, prompt, req.ExcludeNames, req.MaxResults)
	if err != nil {
		return nil, aiflowError(ctx, "gift ideas", err)
	}

	gifts := []model.SuggestedGift{}
	for _, g := range result.Gifts {
		gifts = append(gifts, model.SuggestedGift{
			Name:        g.Name,
			Image:       g.Image,
			Platform:    g.Platform,
			URL:         g.URL,
			Price:       g.Price,
			Description: g.Description,
		})
	}

	return &model.SuggestGiftsResponse{
		Gifts:        gifts,
		Query:        result.Query,
		TotalResults: result.TotalResults,
	}, nil
}
