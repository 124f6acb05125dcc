// Package ai defines the contract the studio consumes from a generative
// backend. Implementations translate these calls into provider APIs; the
// studio never depends on a concrete provider.
package ai

import "context"

// Image is the normalized binary handle exchanged with a provider.
type Image struct {
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// Video is a generated video clip.
type Video struct {
	MIME    string
	Data    []byte
	Seconds int
}

// GenerateParams carries everything one image-generation request needs.
type GenerateParams struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Seed           *int64
	Base           *Image
	StyleRef       *Image
}

// EditParams carries a mask-scoped image edit (inpaint, remove-object,
// expand).
type EditParams struct {
	Image  Image
	Mask   []byte
	Prompt string
}

// Service is the generative backend contract. Every method blocks until the
// provider settles; cancellation flows through ctx and there is no
// client-side timeout beyond what the provider's HTTP client enforces.
type Service interface {
	DescribeAsset(ctx context.Context, img Image) (string, error)
	RemoveBackground(ctx context.Context, img Image) (*Image, error)
	GenerateImage(ctx context.Context, p GenerateParams) (*Image, error)
	EditImage(ctx context.Context, p EditParams) (*Image, error)
	EnhanceImage(ctx context.Context, img Image, prompt string) (*Image, error)
	ExtractPalette(ctx context.Context, img Image) ([]string, error)
	GenerateText(ctx context.Context, prompt string, schema map[string]any) (string, error)
	GenerateVideo(ctx context.Context, prompt string, base *Image) (*Video, error)
}
