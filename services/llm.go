package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"wardrobeapi/models"

	"google.golang.org/genai"
)

// LLMModelName is the Gemini model used for every stylist call, as set by LLM_MODEL.
type LLMModelName string

const Flash25 LLMModelName = "gemini-2.5-flash"

const DefaultLLMModel = Flash25

func (m LLMModelName) String() string {
	if m == "" {
		return string(DefaultLLMModel)
	}
	return string(m)
}

var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not configured")

func floatPointer(f float32) *float32 {
	return &f
}

type LLMResponse struct {
	Response           string `json:"response"`
	InputTokenCount    int32  `json:"input_token_count"`
	ThoughtsTokenCount int32  `json:"thoughts_token_count"`
	OutputTokenCount   int32  `json:"output_token_count"`
	TotalTokenCount    int32  `json:"total_token_count"`
	IsTest             bool   `json:"is_test"`
}

type LLMProcessor interface {
	AnalyzeClothing(ctx context.Context, image []byte, mimeType string) (*LLMResponse, error)
	RecommendOutfit(ctx context.Context, wardrobeJSON string, occasion string) (*LLMResponse, error)
	Chat(ctx context.Context, history []models.ChatTurn, wardrobeContext string, message string) (*LLMResponse, error)
}

type GoogleLLMProcessor struct {
	client *genai.Client
	model  LLMModelName
}

func NewGoogleLLMProcessor(ctx context.Context, apiKey string, model LLMModelName) (*GoogleLLMProcessor, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GoogleLLMProcessor{client: client, model: model}, nil
}

const analyzePrompt = `Analyze this image of a clothing item. Identify the specific type (e.g., Hoodie, Chinos, Blazer), the general category, color, appropriate seasons, style tags (e.g., Casual, Formal, Streetwear, Vintage), and a brief description. Return JSON.`

func enumValues[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

var analysisSchema = &genai.Schema{
	Type: "object",
	Properties: map[string]*genai.Schema{
		"type": {
			Type:        "string",
			Description: "Specific item type, e.g. 'Graphic Hoodie'",
		},
		"category": {
			Type:        "string",
			Enum:        enumValues(models.Categories),
			Description: "General category",
		},
		"color": {
			Type:        "string",
			Description: "Main color of the item",
		},
		"seasons": {
			Type:        "array",
			Items:       &genai.Schema{Type: "string", Enum: enumValues(models.Seasons)},
			Description: "Suitable seasons",
		},
		"tags": {
			Type:        "array",
			Items:       &genai.Schema{Type: "string"},
			Description: "Style tags like Casual, Business, etc.",
		},
		"description": {
			Type:        "string",
			Description: "Short description of the item",
		},
	},
	Required: []string{"type", "category", "color", "seasons", "tags", "description"},
}

var recommendationSchema = &genai.Schema{
	Type: "object",
	Properties: map[string]*genai.Schema{
		"name":      {Type: "string"},
		"itemIds":   {Type: "array", Items: &genai.Schema{Type: "string"}},
		"reasoning": {Type: "string"},
	},
	Required: []string{"name", "itemIds", "reasoning"},
}

func (p *GoogleLLMProcessor) AnalyzeClothing(ctx context.Context, image []byte, mimeType string) (*LLMResponse, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		{Text: analyzePrompt},
	}
	result, err := p.client.Models.GenerateContent(ctx, p.model.String(), []*genai.Content{{Role: "user", Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema,
		CandidateCount:   1,
		Temperature:      floatPointer(0.4),
	})
	if err != nil {
		return nil, err
	}
	return toLLMResponse("analyze", result)
}

func (p *GoogleLLMProcessor) RecommendOutfit(ctx context.Context, wardrobeJSON string, occasion string) (*LLMResponse, error) {
	prompt := fmt.Sprintf(`I have a digital wardrobe with the following items:
%s

User Request: %q

Please create the BEST possible outfit from these items for the request.
If the request is vague (e.g., "Christmas"), pick festive colors or styles.
If the wardrobe lacks perfect items, do your best with what is available.

Return a JSON object with:
- name: A creative name for the outfit.
- itemIds: An array of the IDs of the selected items.
- reasoning: A short explanation of why this outfit works for the occasion.`, wardrobeJSON, occasion)

	result, err := p.client.Models.GenerateContent(ctx, p.model.String(), []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   recommendationSchema,
		CandidateCount:   1,
		Temperature:      floatPointer(0.8),
	})
	if err != nil {
		return nil, err
	}
	return toLLMResponse("recommend", result)
}

func (p *GoogleLLMProcessor) Chat(ctx context.Context, history []models.ChatTurn, wardrobeContext string, message string) (*LLMResponse, error) {
	systemInstruction := fmt.Sprintf(`You are a helpful and chic fashion stylist AI.
The user has the following items in their wardrobe: %s.
Always reference their specific items if possible. Be concise and encouraging.`, wardrobeContext)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == models.ChatRoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: turn.Text}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: message}}})

	result, err := p.client.Models.GenerateContent(ctx, p.model.String(), contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		CandidateCount: 1,
		Temperature:    floatPointer(1),
	})
	if err != nil {
		return nil, err
	}
	return toLLMResponse("chat", result)
}

// toLLMResponse rejects blocked or empty generations and records token usage.
func toLLMResponse(call string, result *genai.GenerateContentResponse) (*LLMResponse, error) {
	if result == nil {
		return nil, fmt.Errorf("%s: empty response", call)
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%s: content violation: %s %s", call, result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
	}
	for _, c := range result.Candidates {
		for _, rating := range c.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("%s: content blocked by safety setting: %s", call, rating.Category)
			}
		}
	}

	response := &LLMResponse{Response: result.Text()}
	if result.UsageMetadata != nil {
		response.InputTokenCount = result.UsageMetadata.PromptTokenCount
		response.ThoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		response.OutputTokenCount = result.UsageMetadata.CandidatesTokenCount
		response.TotalTokenCount = result.UsageMetadata.TotalTokenCount
		log.Printf("[Stylist] %s tokens: input=%d output=%d thoughts=%d total=%d",
			call, response.InputTokenCount, response.OutputTokenCount, response.ThoughtsTokenCount, response.TotalTokenCount)
	}
	if response.Response == "" {
		return nil, fmt.Errorf("%s: no text in response", call)
	}
	return response, nil
}
