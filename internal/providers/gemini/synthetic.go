package gemini

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/providers/ai"
)

// Synthetic output is deterministic in its inputs: the same prompt and seed
// always render the same bytes. That keeps tests and keyless local runs
// reproducible end to end.

func imageSeed(img ai.Image) string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])[:16]
}

func generateSeed(p ai.GenerateParams) string {
	h := sha256.New()
	h.Write([]byte(p.Prompt))
	h.Write([]byte{'|'})
	h.Write([]byte(p.NegativePrompt))
	h.Write([]byte{'|'})
	if p.Seed != nil {
		h.Write([]byte(strconv.FormatInt(*p.Seed, 10)))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func syntheticDescription(img ai.Image) string {
	subjects := []string{
		"a ceramic mug", "a leather satchel", "a glass perfume bottle",
		"a pair of canvas sneakers", "a bar of artisan soap", "a woven basket",
		"a stainless water flask", "a scented soy candle",
	}
	seed := imageSeed(img)
	n, _ := strconv.ParseUint(seed[:8], 16, 64)
	return subjects[int(n)%len(subjects)]
}

func syntheticImage(prompt, mime, seed, aspect string) *ai.Image {
	width, height := aspectDimensions(aspect)
	if mime == "" {
		mime = "image/png"
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	band := height / 8
	if band < 16 {
		band = 16
	}
	for y := 0; y < height; y += band * 2 {
		top := y
		bottom := y + band
		if bottom > height {
			bottom = height
		}
		draw.Draw(img, image.Rect(0, top, width, bottom), &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return &ai.Image{MIME: "image/png"}
	}
	return &ai.Image{MIME: "image/png", Data: buf.Bytes(), Width: width, Height: height}
}

func syntheticPalette(seed string) []string {
	colors := make([]string, 5)
	for i := range colors {
		c := colorFromSeed(seed, i)
		colors[i] = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return colors
}

func syntheticText(prompt string, schema map[string]any) string {
	if schema == nil {
		return "Synthetic response for: " + strings.TrimSpace(prompt)
	}
	out := map[string]any{}
	for key, shape := range schema {
		switch shape.(type) {
		case []string:
			out[key] = []string{"#synthetic"}
		default:
			out[key] = "synthetic " + key
		}
	}
	data, _ := json.Marshal(out)
	return string(data)
}

func syntheticVideo(prompt string) *ai.Video {
	lines := []string{
		"Synthetic video placeholder",
		"Prompt: " + strings.TrimSpace(prompt),
	}
	return &ai.Video{MIME: "video/mp4", Data: []byte(strings.Join(lines, "\n")), Seconds: 8}
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = seed + "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: hexByte(segment[0:2]),
		G: hexByte(segment[2:4]),
		B: hexByte(segment[4:6]),
		A: 255,
	}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func aspectDimensions(aspect string) (int, int) {
	switch strings.TrimSpace(aspect) {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	case "4:3":
		return 1024, 768
	case "3:4":
		return 768, 1024
	default:
		return 1024, 1024
	}
}
