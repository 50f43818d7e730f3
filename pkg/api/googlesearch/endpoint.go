package googlesearch

import (
	"context"
	"strconv"

	"github.com/luckydrop/backend/pkg/api"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const DefaultEndpoint = "https://www.googleapis.com"

type Item struct {
	Title   string `mapstructure:"title" json:"title"`
	Link    string `mapstructure:"link" json:"link"`
	Snippet string `mapstructure:"snippet" json:"snippet"`
	Pagemap struct {
		CseImage []struct {
			Src string `mapstructure:"src" json:"src"`
		} `mapstructure:"cse_image" json:"cse_image"`
	} `mapstructure:"pagemap" json:"pagemap"`
}

// ImageURL returns the first cse_image of the item, if any.
func (i Item) ImageURL() string {
	if len(i.Pagemap.CseImage) == 0 {
		return ""
	}
	return i.Pagemap.CseImage[0].Src
}

type Page struct {
	Items []Item `mapstructure:"items" json:"items"`
}

type Endpoint interface {
	Search(ctx context.Context, query string, start, num int) (*Page, error)
}

type endpoint struct {
	apiKey    string
	engineID  string
	generator api.Generator
}

func New(endpointURL, apiKey, engineID string) *endpoint {
	if endpointURL == "" {
		endpointURL = DefaultEndpoint
	}

	return &endpoint{
		apiKey:    apiKey,
		engineID:  engineID,
		generator: api.NewGenerator(endpointURL),
	}
}

func (e *endpoint) Search(ctx context.Context, query string, start, num int) (*Page, error) {
	resp, err := e.generator.New("/customsearch/v1").
		Query(api.Parameter{
			"key":   e.apiKey,
			"cx":    e.engineID,
			"q":     query,
			"num":   strconv.Itoa(num),
			"start": strconv.Itoa(start),
		}).
		GET(ctx)
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, errors.Errorf("search api returned %d: %s", resp.Code, resp.ErrorMessage())
	}

	page := &Page{}
	if err := mapstructure.Decode(map[string]any(resp.Body), page); err != nil {
		return nil, errors.Wrap(err, "decode search page")
	}

	return page, nil
}
