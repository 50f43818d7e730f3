package aiflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luckydrop/backend/pkg/api/gemini"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var ThankYouMediaTypes = []string{"audio", "video", "selfie"}

type ThankYouNote struct {
	Message   string `json:"message"`
	MediaType string `json:"mediaType"`
}

type ThankYou struct {
	llm gemini.Endpoint
}

func NewThankYou(llm gemini.Endpoint) *ThankYou {
	return &ThankYou{llm: llm}
}

// Generate writes a short thank-you note from the recipient of giftName and
// proposes the kind of media to send with it.
func (f *ThankYou) Generate(ctx context.Context, giftName, recipientName string) (*ThankYouNote, error) {
	prompt := fmt.Sprintf(
		"Write a short, warm thank-you message (at most 3 sentences) from %s to the person "+
			"who gave them %q. Also choose how they should send it: one of %s.",
		recipientName, giftName, strings.Join(ThankYouMediaTypes, ", "),
	)

	text, err := f.llm.GenerateJSON(ctx, prompt, thankYouSchema)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "generate thank-you note")
	}

	var note ThankYouNote
	if err := json.Unmarshal([]byte(text), &note); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	note.Message = strings.TrimSpace(note.Message)
	if note.Message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidOutput)
	}

	if !slices.Contains(ThankYouMediaTypes, note.MediaType) {
		return nil, fmt.Errorf("%w: invalid media type %q", ErrInvalidOutput, note.MediaType)
	}

	return &note, nil
}

var thankYouSchema = gemini.Schema{
	"type": "OBJECT",
	"properties": gemini.Schema{
		"message": gemini.Schema{"type": "STRING"},
		"mediaType": gemini.Schema{
			"type": "STRING",
			"enum": ThankYouMediaTypes,
		},
	},
	"required": []string{"message", "mediaType"},
}
