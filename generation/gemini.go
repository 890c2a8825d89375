package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cardstudio/catalog"
	"cardstudio/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// modelAPI is the part of genai.Models used here.
type modelAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Client on the Gemini API.
type Gemini struct {
	models     modelAPI
	textModel  string
	imageModel string
	language   string
	catalog    *catalog.Catalog
	limiter    *rate.Limiter
}

// NewGemini creates a Gemini client from cfg.
func NewGemini(ctx context.Context, cfg config.Generation, cat *catalog.Catalog) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGemini(client.Models, cfg, cat), nil
}

func newGemini(models modelAPI, cfg config.Generation, cat *catalog.Catalog) *Gemini {
	var limiter *rate.Limiter
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), 2)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Gemini{
		models:     models,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		language:   cfg.Language,
		catalog:    cat,
		limiter:    limiter,
	}
}

func (g *Gemini) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.models.GenerateContent(ctx, model, contents, cfg)
	logrus.WithFields(logrus.Fields{
		"model":    model,
		"duration": time.Since(start),
	}).Debug("Generation call finished")
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return resp, nil
}

func jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
}

func stringObject(fields ...string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props}
}

// generateJSON decodes the model's JSON answer into v.
func (g *Gemini) generateJSON(ctx context.Context, prompt string, schema *genai.Schema, v any) error {
	resp, err := g.generate(ctx, g.textModel, prompt, jsonConfig(schema))
	if err != nil {
		return err
	}
	text := responseText(resp)
	if text == "" {
		text = "{}"
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (g *Gemini) Message(ctx context.Context, req MessageRequest) (Message, error) {
	var out struct {
		Content string `json:"content"`
		Ending  string `json:"ending"`
	}
	prompt := messagePrompt(req, g.catalog.LengthInstruction(req.Length), g.language)
	if err := g.generateJSON(ctx, prompt, stringObject("content", "ending"), &out); err != nil {
		return Message{}, err
	}

	msg := Message{Text: strings.TrimSpace(out.Content), SenderLabel: strings.TrimSpace(out.Ending)}
	if msg.Text == "" {
		msg.Text = DefaultMessage
	}
	if msg.SenderLabel == "" {
		msg.SenderLabel = DefaultSender
	}
	return msg, nil
}

func (g *Gemini) Caption(ctx context.Context, theme string) (string, error) {
	resp, err := g.generate(ctx, g.textModel, captionPrompt(theme), nil)
	if err != nil {
		return "", err
	}
	caption := strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(responseText(resp)))
	if caption == "" {
		return theme, nil
	}
	return caption, nil
}

func (g *Gemini) Image(ctx context.Context, theme, subject, style string) (string, error) {
	resp, err := g.generate(ctx, g.imageModel, imagePrompt(theme, subject, style), &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: "1:1"},
	})
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", ErrNoImage
}

func (g *Gemini) Stickers(ctx context.Context, topic string) ([]string, error) {
	var raw []string
	schema := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	resp, err := g.generate(ctx, g.textModel, stickersPrompt(topic), jsonConfig(schema))
	if err != nil {
		return nil, err
	}
	text := responseText(resp)
	if text == "" {
		text = "[]"
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	stickers := SanitizeStickers(raw)
	if len(stickers) == 0 {
		return copyStickers(EmptyStickers), nil
	}
	return stickers, nil
}

func (g *Gemini) BackgroundColor(ctx context.Context, theme string) (string, error) {
	var out struct {
		Color string `json:"color"`
	}
	if err := g.generateJSON(ctx, colorPrompt(theme), stringObject("color"), &out); err != nil {
		return "", err
	}

	color := strings.TrimSpace(out.Color)
	if color == "" {
		return DefaultColor, nil
	}
	if !hexColor.MatchString(color) {
		return "", fmt.Errorf("%w: %q is not a hex colour", ErrMalformed, color)
	}
	return color, nil
}

func (g *Gemini) RecommendFont(ctx context.Context, theme, message string) (string, error) {
	var out struct {
		Font string `json:"font"`
	}
	if err := g.generateJSON(ctx, fontPrompt(theme, message, g.catalog.FontValues()), stringObject("font"), &out); err != nil {
		return "", err
	}
	if !g.catalog.HasFont(out.Font) {
		return g.catalog.FirstFont(), nil
	}
	return out.Font, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
