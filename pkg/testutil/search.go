package testutil

import (
	"context"
	"errors"

	"github.com/luckydrop/backend/pkg/api/gemini"
	"github.com/luckydrop/backend/pkg/api/googlesearch"
)

type MockSearcher struct {
	SearchFunc func(ctx context.Context, query string, start, num int) (*googlesearch.Page, error)
}

func (m *MockSearcher) Search(ctx context.Context, query string, start, num int) (*googlesearch.Page, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, start, num)
	}

	return nil, errors.New("not implemented")
}

type MockLLM struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, schema gemini.Schema) (string, error)
}

func (m *MockLLM) GenerateJSON(ctx context.Context, prompt string, schema gemini.Schema) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, schema)
	}

	return "", errors.New("not implemented")
}

type MockSearchCache struct {
	GetPageFunc  func(ctx context.Context, query string, page int) (*googlesearch.Page, error)
	SavePageFunc func(ctx context.Context, query string, page int, data *googlesearch.Page) error
}

func (m *MockSearchCache) GetPage(ctx context.Context, query string, page int) (*googlesearch.Page, error) {
	if m.GetPageFunc != nil {
		return m.GetPageFunc(ctx, query, page)
	}

	return nil, nil
}

func (m *MockSearchCache) SavePage(ctx context.Context, query string, page int, data *googlesearch.Page) error {
	if m.SavePageFunc != nil {
		return m.SavePageFunc(ctx, query, page, data)
	}

	return nil
}
