// Package openai implements the studio's generative backend contract on top
// of the OpenAI API: chat completions for analysis and text, DALL-E for
// generation and edits.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

const (
	defaultTextModel  = "gpt-4o-mini"
	defaultImageModel = "dall-e-3"
)

// Options configures the OpenAI-backed service.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Logger     zerolog.Logger
}

type Client struct {
	api        *goopenai.Client
	textModel  string
	imageModel string
	log        zerolog.Logger
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	textModel := opts.TextModel
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	return &Client{
		api:        goopenai.NewClientWithConfig(cfg),
		textModel:  textModel,
		imageModel: imageModel,
		log:        opts.Logger,
	}, nil
}

var _ ai.Service = (*Client)(nil)

func (c *Client) DescribeAsset(ctx context.Context, img ai.Image) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []goopenai.ChatCompletionMessage{{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: "Describe the main subject of this image in one short phrase suitable for a product photography prompt. Respond with the phrase only."},
				{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL(img)}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("openai: describe asset: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) RemoveBackground(ctx context.Context, img ai.Image) (*ai.Image, error) {
	return c.editWithMask(ctx, img, nil, "Remove the background completely, keep only the subject on transparency.")
}

func (c *Client) GenerateImage(ctx context.Context, p ai.GenerateParams) (*ai.Image, error) {
	prompt := p.Prompt
	if neg := strings.TrimSpace(p.NegativePrompt); neg != "" {
		prompt += " Avoid: " + neg + "."
	}
	req := goopenai.ImageRequest{
		Prompt:         prompt,
		Model:          c.imageModel,
		N:              1,
		Size:           imageSize(p.AspectRatio),
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	}
	if c.imageModel == defaultImageModel {
		req.Style = goopenai.CreateImageStyleVivid
	}
	resp, err := c.api.CreateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai: empty image response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: decode image data: %w", err)
	}
	return &ai.Image{MIME: "image/png", Data: data}, nil
}

func (c *Client) EditImage(ctx context.Context, p ai.EditParams) (*ai.Image, error) {
	return c.editWithMask(ctx, p.Image, p.Mask, p.Prompt)
}

func (c *Client) EnhanceImage(ctx context.Context, img ai.Image, prompt string) (*ai.Image, error) {
	return c.editWithMask(ctx, img, nil, prompt)
}

func (c *Client) ExtractPalette(ctx context.Context, img ai.Image) ([]string, error) {
	raw, err := c.visionJSON(ctx, img, "Extract the five dominant colors of this image. Respond with a JSON object {\"colors\": [\"#aabbcc\", ...]}.")
	if err != nil {
		return nil, fmt.Errorf("openai: extract palette: %w", err)
	}
	var payload struct {
		Colors []string `json:"colors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("openai: decode palette: %w", err)
	}
	return payload.Colors, nil
}

func (c *Client) GenerateText(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []goopenai.ChatCompletionMessage{{
			Role:    goopenai.ChatMessageRoleUser,
			Content: prompt,
		}},
	}
	if schema != nil {
		shape, _ := json.Marshal(schema)
		req.Messages[0].Content += "\nRespond with JSON shaped like: " + string(shape)
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: text generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateVideo is not available through the OpenAI image API.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, base *ai.Image) (*ai.Video, error) {
	return nil, fmt.Errorf("openai: video generation is not supported by this provider")
}

func (c *Client) visionJSON(ctx context.Context, img ai.Image, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []goopenai.ChatCompletionMessage{{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
				{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL(img)}},
			},
		}},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// editWithMask goes through the image-edit endpoint, which takes file
// handles; the in-memory bytes are staged in temp files for the call.
func (c *Client) editWithMask(ctx context.Context, img ai.Image, mask []byte, prompt string) (*ai.Image, error) {
	imgFile, err := stageTempFile("tasweer-edit-*.png", img.Data)
	if err != nil {
		return nil, fmt.Errorf("openai: stage image: %w", err)
	}
	defer cleanupTempFile(imgFile)

	req := goopenai.ImageEditRequest{
		Image:          imgFile,
		Prompt:         prompt,
		N:              1,
		Size:           goopenai.CreateImageSize1024x1024,
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	}
	if len(mask) > 0 {
		maskFile, err := stageTempFile("tasweer-mask-*.png", mask)
		if err != nil {
			return nil, fmt.Errorf("openai: stage mask: %w", err)
		}
		defer cleanupTempFile(maskFile)
		req.Mask = maskFile
	}

	resp, err := c.api.CreateEditImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: image edit: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai: empty edit response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: decode edit data: %w", err)
	}
	return &ai.Image{MIME: "image/png", Data: data}, nil
}

func stageTempFile(pattern string, data []byte) (*os.File, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		cleanupTempFile(f)
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		cleanupTempFile(f)
		return nil, err
	}
	return f, nil
}

func cleanupTempFile(f *os.File) {
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
}

func dataURL(img ai.Image) string {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func imageSize(aspect string) string {
	switch strings.TrimSpace(aspect) {
	case "16:9", "4:3":
		return goopenai.CreateImageSize1792x1024
	case "9:16", "3:4":
		return goopenai.CreateImageSize1024x1792
	default:
		return goopenai.CreateImageSize1024x1024
	}
}
