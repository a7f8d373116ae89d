package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	captionToolName   = "save_caption"
	captionMaxTokens  = 1000
	captionTemperature = 0.1
)

// Caption is a Reuters-formatted caption plus the gaps the model found in
// the photographer's description.
type Caption struct {
	FormattedCaption   string   `json:"formatted_caption"`
	MissingInformation []string `json:"missing_information"`
	FollowUpQuestions  []string `json:"follow_up_questions"`
}

// Captioner handles Anthropic API requests for caption generation.
type Captioner struct {
	apiKey  string
	baseURL string
	model   anthropic.Model
	opts    []option.RequestOption
}

// NewCaptioner creates a new caption client. baseURL may point at a
// LiteLLM proxy; empty uses the Anthropic default.
func NewCaptioner(apiKey, baseURL string, opts ...option.RequestOption) *Captioner {
	return &Captioner{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   anthropic.ModelClaudeSonnet4_5,
		opts:    opts,
	}
}

// WithModel overrides the caption model.
func (c *Captioner) WithModel(model string) *Captioner {
	if model != "" {
		c.model = anthropic.Model(model)
	}

	return c
}

// getCaptionTool returns the tool definition for structured caption output.
func getCaptionTool() anthropic.ToolParam {
	stringList := func(description string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": description,
		}
	}

	return anthropic.ToolParam{
		Name: captionToolName,
		Description: anthropic.String(
			"Save the Reuters formatted caption with missing information and follow-up questions",
		),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"formatted_caption": map[string]interface{}{
					"type":        "string",
					"description": "The caption in Reuters style, plain text only",
				},
				"missing_information": stringList("Information still required for a complete caption"),
				"follow_up_questions": stringList("Specific questions to ask the photographer"),
			},
			Required: []string{"formatted_caption", "missing_information", "follow_up_questions"},
		},
	}
}

// GenerateCaption converts a spoken photo description into a Reuters caption.
func (c *Captioner) GenerateCaption(ctx context.Context, transcription string) (*Caption, error) {
	if c.apiKey == "" {
		return nil, errors.New("API key required: set ANTHROPIC_API_KEY or run 'captions config set-key anthropic'")
	}

	if strings.TrimSpace(transcription) == "" {
		return nil, errors.New("no transcription provided")
	}

	opts := []option.RequestOption{option.WithAPIKey(c.apiKey)}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(append(opts, c.opts...)...)

	toolDef := getCaptionTool()
	tool := anthropic.ToolUnionParamOfTool(toolDef.InputSchema, toolDef.Name)
	tool.OfTool.Description = toolDef.Description

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   captionMaxTokens,
		Temperature: anthropic.Float(captionTemperature),
		System: []anthropic.TextBlockParam{
			{Text: CaptionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(CaptionUserPrompt(transcription))),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool(captionToolName),
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate caption via Anthropic API: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, errors.New("empty response from Anthropic API")
	}

	return captionFromContent(resp.Content)
}

// captionFromContent prefers the save_caption tool call and falls back to
// parsing headed text sections, which is what proxies without tool support return.
func captionFromContent(content []anthropic.ContentBlockUnion) (*Caption, error) {
	caption, err := parseCaptionToolUse(content)
	if err == nil {
		return caption, nil
	}

	var text strings.Builder
	for _, block := range content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(textBlock.Text)
			text.WriteString("\n")
		}
	}

	if text.Len() == 0 {
		return nil, err
	}

	return ParseSections(text.String()), nil
}

// parseCaptionToolUse extracts Caption from response content blocks.
func parseCaptionToolUse(content []anthropic.ContentBlockUnion) (*Caption, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var caption Caption
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &caption); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			return caption.normalized(), nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}

// normalized trims the caption and never leaves list fields nil, so the JSON
// always carries arrays.
func (c *Caption) normalized() *Caption {
	c.FormattedCaption = strings.TrimSpace(c.FormattedCaption)
	c.MissingInformation = cleanItems(c.MissingInformation)
	c.FollowUpQuestions = cleanItems(c.FollowUpQuestions)

	return c
}
