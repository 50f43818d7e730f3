package gemini

import (
	"context"
	"strings"

	"github.com/luckydrop/backend/pkg/api"
	"github.com/pkg/errors"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-1.5-flash"
)

// Schema is an OpenAPI subset object accepted as responseSchema.
type Schema = api.JSON

type Endpoint interface {
	// GenerateJSON asks the model for a JSON document conforming to schema
	// and returns the raw text of the first candidate.
	GenerateJSON(ctx context.Context, prompt string, schema Schema) (string, error)
}

type endpoint struct {
	apiKey    string
	model     string
	generator api.Generator
}

func New(endpointURL, apiKey, model string) *endpoint {
	if endpointURL == "" {
		endpointURL = DefaultEndpoint
	}

	if model == "" {
		model = DefaultModel
	}

	return &endpoint{
		apiKey:    apiKey,
		model:     model,
		generator: api.NewGenerator(endpointURL),
	}
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (e *endpoint) GenerateJSON(ctx context.Context, prompt string, schema Schema) (string, error) {
	body := api.JSON{
		"contents": []api.JSON{
			{
				"role":  "user",
				"parts": []api.JSON{{"text": prompt}},
			},
		},
		"generationConfig": api.JSON{
			"responseMimeType": "application/json",
			"responseSchema":   schema,
		},
	}

	resp, err := e.generator.New("/v1beta/models/%s:generateContent", e.model).
		Header("x-goog-api-key", e.apiKey).
		Body(body).
		POST(ctx)
	if err != nil {
		return "", err
	}

	if !resp.OK() {
		return "", errors.Errorf("llm api returned %d: %s", resp.Code, resp.ErrorMessage())
	}

	result := generateResponse{}
	if err := resp.Decode(&result); err != nil {
		return "", errors.Wrap(err, "decode llm response")
	}

	if len(result.Candidates) == 0 {
		return "", errors.New("llm returned no candidates")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	if sb.Len() == 0 {
		return "", errors.Errorf("llm returned empty content (finish reason %s)", result.Candidates[0].FinishReason)
	}

	return sb.String(), nil
}
