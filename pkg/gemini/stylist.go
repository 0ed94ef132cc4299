package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
)

// StylistModel is the model used for one-shot outfit critiques.
const StylistModel = "gemini-3-flash-preview"

const stylistPrompt = `
You are a world-class AI fashion stylist. Your goal is to provide helpful, concise, and encouraging feedback on a user's outfit.

Analyze the outfit in the image and provide:
1.  A brief, one-paragraph critique focusing on color harmony, fit, and overall style cohesion.
2.  One or two actionable suggestions for improvement (e.g., "try swapping the shoes for white sneakers," or "adding a belt would define your waist").

Your tone should be positive and constructive.

If the image is unclear, the person is not wearing a clear outfit, or the image is inappropriate, respond with a friendly message: "Point the camera at your outfit, and I'll be happy to give you some style tips!"
`

const emptySuggestion = "I'm sorry, I couldn't generate a suggestion. The response was empty."

// Stylist produces one-shot outfit critiques from a single camera frame.
type Stylist struct {
	client *genai.Client
	model  string
}

// NewStylist creates a stylist backed by the Gemini API.
func NewStylist(ctx context.Context, apiKey string) (*Stylist, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewConnectionError("create genai client", err)
	}
	return &Stylist{client: client, model: StylistModel}, nil
}

// Suggest critiques the outfit in the given JPEG frame.
func (s *Stylist) Suggest(ctx context.Context, jpeg []byte) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(stylistPrompt),
			genai.NewPartFromBytes(jpeg, "image/jpeg"),
		}, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", core.NewConnectionError("style suggestion request failed", err)
	}

	text := resp.Text()
	if text == "" {
		return emptySuggestion, nil
	}
	return text, nil
}
