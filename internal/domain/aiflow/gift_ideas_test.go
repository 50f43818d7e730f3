package aiflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/luckydrop/backend/pkg/api/gemini"
	"github.com/luckydrop/backend/pkg/api/googlesearch"
	"github.com/luckydrop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func item(name string) googlesearch.Item {
	i := googlesearch.Item{
		Title: name,
		Link:  "https://www.amazon.com/" + strings.ToLower(name),
	}
	i.Pagemap.CseImage = append(i.Pagemap.CseImage, struct {
		Src string `mapstructure:"src" json:"src"`
	}{Src: "https://img/" + strings.ToLower(name) + ".png"})
	return i
}

func page(names ...string) *googlesearch.Page {
	p := &googlesearch.Page{}
	for _, n := range names {
		p.Items = append(p.Items, item(n))
	}
	return p
}

func gift(name string) SuggestedGift {
	return SuggestedGift{
		Name:  name,
		Image: "https://img/" + strings.ToLower(name) + ".png",
		URL:   "https://www.amazon.com/" + strings.ToLower(name),
	}
}

func llmReturning(t *testing.T, gifts ...SuggestedGift) *testutil.MockLLM {
	return &testutil.MockLLM{
		GenerateJSONFunc: func(ctx context.Context, prompt string, schema gemini.Schema) (string, error) {
			b, err := json.Marshal(map[string]any{"gifts": gifts})
			require.NoError(t, err)
			return string(b), nil
		},
	}
}

func TestEnhanceQuery(t *testing.T) {
	require.Equal(t, "coffee lover gift", EnhanceQuery(" coffee lover "))
	require.Equal(t, "Gift for dad", EnhanceQuery("Gift for dad"))
	require.Equal(t, "giftcard", EnhanceQuery("giftcard"))
}

func TestGiftIdeas_Suggest(t *testing.T) {
	var queries []string
	var starts []int
	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			queries = append(queries, query)
			starts = append(starts, start)
			require.Equal(t, 3, num)
			if start == 1 {
				return page("Mug", "Socks", "Tea"), nil
			}
			return page("Book"), nil
		},
	}

	forged := gift("Watch")
	forged.URL = "https://evil.example.com/watch"
	llm := llmReturning(t, gift("Mug"), gift("Socks"), gift("mug "), forged, gift("Book"))

	flow := NewGiftIdeas(searcher, llm, &testutil.MockSearchCache{}, 3, 2)
	result, err := flow.Suggest(context.Background(), "coffee lover", nil, 10)
	require.NoError(t, err)

	require.Equal(t, []string{
		"coffee lover gift product buy purchase",
		"coffee lover gift product buy purchase",
	}, queries)
	require.Equal(t, []int{1, 4}, starts)
	require.Equal(t, "coffee lover gift", result.Query)
	require.Equal(t, 4, result.TotalResults)

	var names []string
	for _, g := range result.Gifts {
		names = append(names, g.Name)
		require.Equal(t, "Amazon", g.Platform)
	}
	require.Equal(t, []string{"Mug", "Socks", "Book"}, names)
}

func TestGiftIdeas_Suggest_StopsAtMaxResults(t *testing.T) {
	calls := 0
	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			calls++
			return page("A", "B", "C"), nil
		},
	}

	var prompt string
	llm := &testutil.MockLLM{
		GenerateJSONFunc: func(ctx context.Context, p string, schema gemini.Schema) (string, error) {
			prompt = p
			return `{"gifts":[]}`, nil
		},
	}

	result, err := NewGiftIdeas(searcher, llm, &testutil.MockSearchCache{}, 3, 2).
		Suggest(context.Background(), "x", nil, 2)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 2, result.TotalResults)
	require.Empty(t, result.Gifts)
	require.NotContains(t, prompt, "https://www.amazon.com/c")
}

func TestGiftIdeas_Suggest_NoResults(t *testing.T) {
	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			return &googlesearch.Page{}, nil
		},
	}

	_, err := NewGiftIdeas(searcher, &testutil.MockLLM{}, &testutil.MockSearchCache{}, 10, 2).
		Suggest(context.Background(), "nothing", nil, 10)
	require.ErrorIs(t, err, ErrNoResults)
}

func TestGiftIdeas_Suggest_SearchError(t *testing.T) {
	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	_, err := NewGiftIdeas(searcher, &testutil.MockLLM{}, &testutil.MockSearchCache{}, 10, 2).
		Suggest(context.Background(), "x", nil, 10)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoResults)
}

func TestGiftIdeas_Suggest_InvalidOutput(t *testing.T) {
	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			return page("Mug"), nil
		},
	}

	for _, output := range []string{
		`not json`,
		`{"gifts":[{"name":"","image":"https://img/mug.png","url":"https://www.amazon.com/mug"}]}`,
		`{"gifts":[{"name":"Mug","image":"","url":"https://www.amazon.com/mug"}]}`,
		`{"gifts":[{"name":"Mug","image":"https://img/mug.png","url":""}]}`,
	} {
		output := output
		llm := &testutil.MockLLM{
			GenerateJSONFunc: func(ctx context.Context, prompt string, schema gemini.Schema) (string, error) {
				return output, nil
			},
		}

		_, err := NewGiftIdeas(searcher, llm, &testutil.MockSearchCache{}, 10, 2).
			Suggest(context.Background(), "x", nil, 10)
		require.ErrorIs(t, err, ErrInvalidOutput, output)
	}
}

func TestGiftIdeas_Suggest_GenerateMore(t *testing.T) {
	searchCalls := 0
	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			searchCalls++
			return page("Mug", "Socks", "Tea", "Book"), nil
		},
	}

	cached := map[string]*googlesearch.Page{}
	cache := &testutil.MockSearchCache{
		GetPageFunc: func(ctx context.Context, query string, p int) (*googlesearch.Page, error) {
			return cached[fmt.Sprintf("%s:%d", query, p)], nil
		},
		SavePageFunc: func(ctx context.Context, query string, p int, data *googlesearch.Page) error {
			cached[fmt.Sprintf("%s:%d", query, p)] = data
			return nil
		},
	}

	// The model ignores the exclusion instruction on purpose.
	llm := llmReturning(t, gift("Mug"), gift("Socks"), gift("Tea"), gift("Book"))
	flow := NewGiftIdeas(searcher, llm, cache, 10, 2)

	first, err := flow.Suggest(context.Background(), "cozy", nil, 10)
	require.NoError(t, err)
	require.Len(t, first.Gifts, 4)

	exclude := []string{"MUG", "socks"}
	more, err := flow.Suggest(context.Background(), "cozy", exclude, 10)
	require.NoError(t, err)
	require.Equal(t, 1, searchCalls)

	for _, g := range more.Gifts {
		require.NotEqual(t, "mug", strings.ToLower(g.Name))
		require.NotEqual(t, "socks", strings.ToLower(g.Name))
	}
	require.Len(t, more.Gifts, 2)

	all := []string{"Mug", "Socks", "Tea", "Book"}
	none, err := flow.Suggest(context.Background(), "cozy", all, 10)
	require.NoError(t, err)
	require.Empty(t, none.Gifts)
}

func TestGiftIdeas_Suggest_CapsAtTen(t *testing.T) {
	names := []string{}
	for i := 0; i < 15; i++ {
		names = append(names, fmt.Sprintf("Item%d", i))
	}

	searcher := &testutil.MockSearcher{
		SearchFunc: func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
			if start == 1 {
				return page(names[:10]...), nil
			}
			return page(names[10:]...), nil
		},
	}

	var gifts []SuggestedGift
	for _, n := range names {
		gifts = append(gifts, gift(n))
	}

	result, err := NewGiftIdeas(searcher, llmReturning(t, gifts...), &testutil.MockSearchCache{}, 10, 2).
		Suggest(context.Background(), "x", nil, 20)
	require.NoError(t, err)
	require.Equal(t, 15, result.TotalResults)
	require.Len(t, result.Gifts, 10)
}

func TestPlatformFromURL(t *testing.T) {
	require.Equal(t, "Amazon", PlatformFromURL("https://www.amazon.com/dp/123"))
	require.Equal(t, "Amazon", PlatformFromURL("https://amazon.co.uk/x"))
	require.Equal(t, "eBay", PlatformFromURL("https://www.ebay.com/itm/1"))
	require.Equal(t, "Uncommongoods", PlatformFromURL("https://www.uncommongoods.com/product"))
	require.Equal(t, "", PlatformFromURL("not a url"))
	require.Equal(t, "", PlatformFromURL("https://localhost/x"))
}
