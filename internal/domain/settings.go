package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultAspectRatio    = "1:1"
	DefaultNumberOfImages = 1
	MaxNumberOfImages     = 8
)

// Settings is the configuration record driving prompt synthesis and
// generation. The base fields apply to every mode; per-mode extensions live in
// the optional pointers and exactly the extension matching Mode may be set.
type Settings struct {
	Mode           Mode   `json:"mode" validate:"required,oneof=product mockup social design character video"`
	AspectRatio    string `json:"aspect_ratio" validate:"required,oneof=1:1 4:3 3:4 16:9 9:16"`
	Lighting       string `json:"lighting" validate:"omitempty,oneof=studio_softbox natural golden_hour neon dramatic"`
	Perspective    string `json:"perspective" validate:"omitempty,oneof=eye_level top_down close_up three_quarter"`
	Style          string `json:"style" validate:"max=160"`
	NegativePrompt string `json:"negative_prompt" validate:"max=300"`
	Seed           string `json:"seed" validate:"omitempty,numeric"`
	NumberOfImages int    `json:"number_of_images" validate:"min=1,max=8"`
	Description    string `json:"description" validate:"max=600"`

	Mockup    *MockupSettings    `json:"mockup,omitempty"`
	Social    *SocialSettings    `json:"social,omitempty"`
	Design    *DesignSettings    `json:"design,omitempty"`
	Character *CharacterSettings `json:"character,omitempty"`
	Video     *VideoSettings     `json:"video,omitempty"`
}

// MockupSettings configures the surface a product is placed on.
type MockupSettings struct {
	Surface string `json:"surface" validate:"required,oneof=tshirt mug tote poster billboard phone_case"`
	Color   string `json:"color" validate:"omitempty,hexcolor"`
}

// SocialSettings configures social-post composition.
type SocialSettings struct {
	Platform string `json:"platform" validate:"required,oneof=instagram facebook x tiktok"`
	Headline string `json:"headline" validate:"max=120"`
}

// DesignSettings configures flat design artwork output.
type DesignSettings struct {
	Medium string `json:"medium" validate:"required,oneof=logo flyer banner packaging"`
}

// CharacterSettings configures reference-consistent character art.
type CharacterSettings struct {
	Pose       string `json:"pose" validate:"max=120"`
	Expression string `json:"expression" validate:"max=120"`
}

// VideoSettings configures promotional video output.
type VideoSettings struct {
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,min=2,max=30"`
	Motion          string `json:"motion" validate:"omitempty,oneof=orbit pan zoom static"`
}

// DefaultSettings returns the settings a fresh session starts with.
func DefaultSettings() Settings {
	return Settings{
		Mode:           ModeProduct,
		AspectRatio:    DefaultAspectRatio,
		Lighting:       "studio_softbox",
		Perspective:    "eye_level",
		NumberOfImages: DefaultNumberOfImages,
	}
}

// BaseSeed parses the optional seed field. The second return is false when no
// seed is configured, meaning every request in a batch gets provider-side
// randomness.
func (s Settings) BaseSeed() (int64, bool) {
	raw := strings.TrimSpace(s.Seed)
	if raw == "" {
		return 0, false
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return seed, true
}

// BatchSize returns how many generation requests a run fans out.
func (s Settings) BatchSize() int {
	if s.Mode.SingleResult() {
		return 1
	}
	n := s.NumberOfImages
	if n < 1 {
		n = DefaultNumberOfImages
	}
	if n > MaxNumberOfImages {
		n = MaxNumberOfImages
	}
	return n
}

// Validate runs the struct tags and the mode/extension pairing rule.
func (s Settings) Validate(v *validator.Validate) error {
	if err := v.Struct(s); err != nil {
		return err
	}
	return s.checkExtensions()
}

func (s Settings) checkExtensions() error {
	set := map[Mode]bool{
		ModeMockup:    s.Mockup != nil,
		ModeSocial:    s.Social != nil,
		ModeDesign:    s.Design != nil,
		ModeCharacter: s.Character != nil,
		ModeVideo:     s.Video != nil,
	}
	for mode, present := range set {
		if present && mode != s.Mode {
			return fmt.Errorf("settings: %s extension set but mode is %s", mode, s.Mode)
		}
	}
	return nil
}

// Clone deep-copies the settings, including the per-mode extensions, so
// snapshots cannot be reshaped through shared pointers.
func (s Settings) Clone() Settings {
	out := s
	if s.Mockup != nil {
		v := *s.Mockup
		out.Mockup = &v
	}
	if s.Social != nil {
		v := *s.Social
		out.Social = &v
	}
	if s.Design != nil {
		v := *s.Design
		out.Design = &v
	}
	if s.Character != nil {
		v := *s.Character
		out.Character = &v
	}
	if s.Video != nil {
		v := *s.Video
		out.Video = &v
	}
	return out
}

// SettingsPatch carries a partial settings update. Nil fields are untouched.
type SettingsPatch struct {
	Mode           *string `json:"mode,omitempty"`
	AspectRatio    *string `json:"aspect_ratio,omitempty"`
	Lighting       *string `json:"lighting,omitempty"`
	Perspective    *string `json:"perspective,omitempty"`
	Style          *string `json:"style,omitempty"`
	NegativePrompt *string `json:"negative_prompt,omitempty"`
	Seed           *string `json:"seed,omitempty"`
	NumberOfImages *int    `json:"number_of_images,omitempty"`
	Description    *string `json:"description,omitempty"`

	Mockup    *MockupSettings    `json:"mockup,omitempty"`
	Social    *SocialSettings    `json:"social,omitempty"`
	Design    *DesignSettings    `json:"design,omitempty"`
	Character *CharacterSettings `json:"character,omitempty"`
	Video     *VideoSettings     `json:"video,omitempty"`
}

// Apply merges the patch into a copy of base and returns it. Switching mode
// drops extensions that no longer match.
func (p SettingsPatch) Apply(base Settings) Settings {
	out := base
	if p.Mode != nil {
		out.Mode = NormalizeMode(*p.Mode)
	}
	if p.AspectRatio != nil {
		out.AspectRatio = *p.AspectRatio
	}
	if p.Lighting != nil {
		out.Lighting = *p.Lighting
	}
	if p.Perspective != nil {
		out.Perspective = *p.Perspective
	}
	if p.Style != nil {
		out.Style = *p.Style
	}
	if p.NegativePrompt != nil {
		out.NegativePrompt = *p.NegativePrompt
	}
	if p.Seed != nil {
		out.Seed = *p.Seed
	}
	if p.NumberOfImages != nil {
		out.NumberOfImages = *p.NumberOfImages
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Mockup != nil {
		out.Mockup = p.Mockup
	}
	if p.Social != nil {
		out.Social = p.Social
	}
	if p.Design != nil {
		out.Design = p.Design
	}
	if p.Character != nil {
		out.Character = p.Character
	}
	if p.Video != nil {
		out.Video = p.Video
	}
	if p.Mode != nil {
		out.dropMismatchedExtensions()
	}
	return out
}

func (s *Settings) dropMismatchedExtensions() {
	if s.Mode != ModeMockup {
		s.Mockup = nil
	}
	if s.Mode != ModeSocial {
		s.Social = nil
	}
	if s.Mode != ModeDesign {
		s.Design = nil
	}
	if s.Mode != ModeCharacter {
		s.Character = nil
	}
	if s.Mode != ModeVideo {
		s.Video = nil
	}
}
