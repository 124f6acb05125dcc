// Package gemini implements the studio's generative backend contract against
// the Gemini REST API. When no API key is configured the client serves
// deterministic synthetic output instead, so local and CI runs exercise the
// whole pipeline without network access.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 120 * time.Second
)

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client talks to Gemini's generateContent endpoint for every studio
// operation: analysis, background removal, generation, edits, palette and
// text.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		log:        opts.Logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

var _ ai.Service = (*Client)(nil)

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount   int      `json:"candidateCount,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	Modalities       []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func (c *Client) DescribeAsset(ctx context.Context, img ai.Image) (string, error) {
	if c.apiKey == "" {
		return syntheticDescription(img), nil
	}
	text, err := c.invokeText(ctx,
		"Describe the main subject of this image in one short phrase suitable for a product photography prompt, e.g. \"a ceramic mug\". Respond with the phrase only.",
		&img, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: describe asset: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) RemoveBackground(ctx context.Context, img ai.Image) (*ai.Image, error) {
	if c.apiKey == "" {
		return syntheticImage("background-removed", img.MIME, imageSeed(img), "1:1"), nil
	}
	out, err := c.invokeImage(ctx, "Remove the background from this image completely. Output the subject on a transparent background.", &img, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: remove background: %w", err)
	}
	return out, nil
}

func (c *Client) GenerateImage(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
	if c.apiKey == "" {
		return syntheticImage(p.Prompt, "image/png", generateSeed(p), p.AspectRatio), nil
	}
	parts := []geminiPart{{Text: buildGeneratePrompt(p)}}
	if p.Base != nil {
		parts = append(parts, inlinePart(*p.Base))
	}
	if p.StyleRef != nil {
		parts = append(parts, inlinePart(*p.StyleRef))
	}
	out, err := c.invokeImageParts(ctx, parts, generationConfig(p.Seed))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate image: %w", err)
	}
	return out, nil
}

func (c *Client) EditImage(ctx context.Context, p ai.EditParams) (*ai.Image, error) {
	if c.apiKey == "" {
		return syntheticImage(p.Prompt, p.Image.MIME, imageSeed(p.Image)+p.Prompt, "1:1"), nil
	}
	parts := []geminiPart{{Text: p.Prompt}, inlinePart(p.Image)}
	if len(p.Mask) > 0 {
		parts = append(parts, inlinePart(ai.Image{MIME: "image/png", Data: p.Mask}))
	}
	out, err := c.invokeImageParts(ctx, parts, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: edit image: %w", err)
	}
	return out, nil
}

func (c *Client) EnhanceImage(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
	if c.apiKey == "" {
		return syntheticImage(prompt, img.MIME, imageSeed(img)+"enhance", "1:1"), nil
	}
	out, err := c.invokeImage(ctx, prompt, &img, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: enhance image: %w", err)
	}
	return out, nil
}

func (c *Client) ExtractPalette(ctx context.Context, img ai.Image) ([]string, error) {
	if c.apiKey == "" {
		return syntheticPalette(imageSeed(img)), nil
	}
	raw, err := c.invokeText(ctx,
		"Extract the five dominant colors of this image. Respond with a JSON array of hex color codes like [\"#aabbcc\"].",
		&img, &geminiGenerationConfig{CandidateCount: 1, ResponseMimeType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("gemini: extract palette: %w", err)
	}
	var colors []string
	if err := json.Unmarshal([]byte(raw), &colors); err != nil {
		return nil, fmt.Errorf("gemini: decode palette: %w", err)
	}
	return colors, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	if c.apiKey == "" {
		return syntheticText(prompt, schema), nil
	}
	cfg := &geminiGenerationConfig{CandidateCount: 1}
	if schema != nil {
		cfg.ResponseMimeType = "application/json"
		shape, _ := json.Marshal(schema)
		prompt += "\nRespond with JSON shaped like: " + string(shape)
	}
	raw, err := c.invokeText(ctx, prompt, nil, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate text: %w", err)
	}
	return raw, nil
}

func (c *Client) GenerateVideo(ctx context.Context, prompt string, base *ai.Image) (*ai.Video, error) {
	if c.apiKey == "" {
		return syntheticVideo(prompt), nil
	}
	parts := []geminiPart{{Text: prompt}}
	if base != nil {
		parts = append(parts, inlinePart(*base))
	}
	payload := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{Modalities: []string{"VIDEO"}},
	}
	var resp geminiResponse
	if err := c.invoke(ctx, payload, &resp); err != nil {
		return nil, fmt.Errorf("gemini: generate video: %w", err)
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("gemini: decode video data: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "video/mp4"
			}
			return &ai.Video{MIME: mime, Data: data}, nil
		}
	}
	return nil, fmt.Errorf("gemini: no video content returned")
}

func (c *Client) invokeText(ctx context.Context, prompt string, img *ai.Image, cfg *geminiGenerationConfig) (string, error) {
	parts := []geminiPart{{Text: prompt}}
	if img != nil {
		parts = append(parts, inlinePart(*img))
	}
	payload := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: parts}}, GenerationConfig: cfg}
	var resp geminiResponse
	if err := c.invoke(ctx, payload, &resp); err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no text content returned")
}

func (c *Client) invokeImage(ctx context.Context, prompt string, img *ai.Image, cfg *geminiGenerationConfig) (*ai.Image, error) {
	parts := []geminiPart{{Text: prompt}}
	if img != nil {
		parts = append(parts, inlinePart(*img))
	}
	return c.invokeImageParts(ctx, parts, cfg)
}

func (c *Client) invokeImageParts(ctx context.Context, parts []geminiPart, cfg *geminiGenerationConfig) (*ai.Image, error) {
	if cfg == nil {
		cfg = &geminiGenerationConfig{}
	}
	cfg.Modalities = []string{"TEXT", "IMAGE"}
	payload := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: parts}}, GenerationConfig: cfg}
	var resp geminiResponse
	if err := c.invoke(ctx, payload, &resp); err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline data: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &ai.Image{MIME: mime, Data: data}, nil
		}
	}
	return nil, fmt.Errorf("no image content returned")
}

func (c *Client) invoke(ctx context.Context, payload geminiRequest, out *geminiResponse) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func inlinePart(img ai.Image) geminiPart {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return geminiPart{InlineData: &geminiInlineData{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}}
}

func generationConfig(seed *int64) *geminiGenerationConfig {
	if seed == nil {
		return nil
	}
	return &geminiGenerationConfig{Seed: seed}
}

func buildGeneratePrompt(p ai.GenerateParams) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Prompt))
	if aspect := strings.TrimSpace(p.AspectRatio); aspect != "" {
		b.WriteString("\nAspect ratio: ")
		b.WriteString(aspect)
	}
	if neg := strings.TrimSpace(p.NegativePrompt); neg != "" {
		b.WriteString("\nAvoid: ")
		b.WriteString(neg)
	}
	if p.StyleRef != nil {
		b.WriteString("\nKeep the subject consistent with the attached reference image.")
	}
	return b.String()
}
