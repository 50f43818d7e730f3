package aiflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/luckydrop/backend/pkg/api/gemini"
	"github.com/luckydrop/backend/pkg/api/googlesearch"
	"github.com/luckydrop/backend/pkg/xcontext"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const (
	DefaultMaxResults = 10
	maxResultsLimit   = 20
	maxGifts          = 10
	defaultPageSize   = 10
	defaultMaxPages   = 2
)

var (
	ErrNoResults     = errors.New("search returned no results")
	ErrInvalidOutput = errors.New("llm output does not match the schema")
)

// PageCache keeps raw search pages so that asking for more ideas with the
// same prompt does not hit the search api again.
type PageCache interface {
	GetPage(ctx context.Context, query string, page int) (*googlesearch.Page, error)
	SavePage(ctx context.Context, query string, page int, data *googlesearch.Page) error
}

type SuggestedGift struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Platform    string `json:"platform"`
	URL         string `json:"url"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

type SuggestResult struct {
	Gifts        []SuggestedGift
	Query        string
	TotalResults int
}

type candidate struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	ImageURL string `json:"imageUrl"`
}

type GiftIdeas struct {
	searcher googlesearch.Endpoint
	llm      gemini.Endpoint
	cache    PageCache
	pageSize int
	maxPages int
}

func NewGiftIdeas(
	searcher googlesearch.Endpoint,
	llm gemini.Endpoint,
	cache PageCache,
	pageSize, maxPages int,
) *GiftIdeas {
	if pageSize <= 0 || pageSize > 20 {
		pageSize = defaultPageSize
	}

	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	return &GiftIdeas{
		searcher: searcher,
		llm:      llm,
		cache:    cache,
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// EnhanceQuery makes sure the prompt is about gifts.
func EnhanceQuery(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if !strings.Contains(strings.ToLower(prompt), "gift") {
		prompt += " gift"
	}

	return prompt
}

func (f *GiftIdeas) Suggest(
	ctx context.Context, prompt string, excludeNames []string, maxResults int,
) (*SuggestResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	if maxResults > maxResultsLimit {
		maxResults = maxResultsLimit
	}

	enhanced := EnhanceQuery(prompt)
	items, err := f.search(ctx, enhanced+" product buy purchase", maxResults)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, ErrNoResults
	}

	if len(items) > maxResults {
		items = items[:maxResults]
	}

	candidates := make([]candidate, 0, len(items))
	for _, item := range items {
		if item.Link == "" || item.ImageURL() == "" {
			continue
		}

		candidates = append(candidates, candidate{
			Title:    item.Title,
			Link:     item.Link,
			Snippet:  item.Snippet,
			ImageURL: item.ImageURL(),
		})
	}

	result := &SuggestResult{Query: enhanced, TotalResults: len(items), Gifts: []SuggestedGift{}}
	if len(candidates) == 0 {
		return result, nil
	}

	gifts, err := f.rank(ctx, enhanced, candidates, excludeNames, maxResults)
	if err != nil {
		return nil, err
	}

	result.Gifts = filterGifts(gifts, candidates, excludeNames)
	return result, nil
}

func (f *GiftIdeas) search(ctx context.Context, query string, maxResults int) ([]googlesearch.Item, error) {
	var items []googlesearch.Item
	for page := 1; page <= f.maxPages; page++ {
		result, err := f.cache.GetPage(ctx, query, page)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot read search page from cache: %v", err)
		}

		if result == nil {
			start := (page-1)*f.pageSize + 1
			result, err = f.searcher.Search(ctx, query, start, f.pageSize)
			if err != nil {
				return nil, err
			}

			if err := f.cache.SavePage(ctx, query, page, result); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot save search page to cache: %v", err)
			}
		}

		items = append(items, result.Items...)
		if len(items) >= maxResults || len(result.Items) < f.pageSize {
			break
		}
	}

	return items, nil
}

func (f *GiftIdeas) rank(
	ctx context.Context,
	query string,
	candidates []candidate,
	excludeNames []string,
	maxResults int,
) ([]SuggestedGift, error) {
	b, err := json.Marshal(candidates)
	if err != nil {
		return nil, err
	}

	limit := maxResults
	if limit > maxGifts {
		limit = maxGifts
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You help a person choose gifts. The request is: %q.\n", query)
	fmt.Fprintf(&sb, "Pick at most %d distinct gift ideas from the following search results, "+
		"best match first. Use the exact link as url and the exact imageUrl as image of the "+
		"result a gift comes from, never invent them.\n", limit)
	if len(excludeNames) > 0 {
		fmt.Fprintf(&sb, "Do not suggest any of these gifts: %s.\n", strings.Join(excludeNames, ", "))
	}
	fmt.Fprintf(&sb, "Search results:\n%s\n", b)

	text, err := f.llm.GenerateJSON(ctx, sb.String(), giftsSchema)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "generate gift ideas")
	}

	var output struct {
		Gifts []SuggestedGift `json:"gifts"`
	}
	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	for i := range output.Gifts {
		g := &output.Gifts[i]
		g.Name = strings.TrimSpace(g.Name)
		if g.Platform == "" {
			g.Platform = PlatformFromURL(g.URL)
		}

		if g.Name == "" || g.Image == "" || g.URL == "" || g.Platform == "" {
			return nil, fmt.Errorf("%w: gift %d misses a required field", ErrInvalidOutput, i)
		}
	}

	return output.Gifts, nil
}

// filterGifts keeps the gifts coming from a supplied candidate, drops the
// excluded names and duplicates.
func filterGifts(gifts []SuggestedGift, candidates []candidate, excludeNames []string) []SuggestedGift {
	links := make([]string, 0, len(candidates))
	images := make([]string, 0, len(candidates))
	for _, c := range candidates {
		links = append(links, c.Link)
		images = append(images, c.ImageURL)
	}

	seen := map[string]bool{}
	for _, name := range excludeNames {
		seen[normalizeName(name)] = true
	}

	result := []SuggestedGift{}
	for _, g := range gifts {
		if !slices.Contains(links, g.URL) || !slices.Contains(images, g.Image) {
			continue
		}

		key := normalizeName(g.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		result = append(result, g)
		if len(result) == maxGifts {
			break
		}
	}

	return result
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var giftsSchema = gemini.Schema{
	"type": "OBJECT",
	"properties": gemini.Schema{
		"gifts": gemini.Schema{
			"type":     "ARRAY",
			"maxItems": maxGifts,
			"items": gemini.Schema{
				"type": "OBJECT",
				"properties": gemini.Schema{
					"name":        gemini.Schema{"type": "STRING"},
					"image":       gemini.Schema{"type": "STRING"},
					"platform":    gemini.Schema{"type": "STRING"},
					"url":         gemini.Schema{"type": "STRING"},
					"price":       gemini.Schema{"type": "STRING"},
					"description": gemini.Schema{"type": "STRING"},
				},
				"required": []string{"name", "image", "platform", "url"},
			},
		},
	},
	"required": []string{"gifts"},
}
