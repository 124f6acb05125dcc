package studio

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
)

// Synthesize builds the auto prompt from the settings. It is pure and
// deterministic, and returns "" while no description of the source asset is
// available yet.
func Synthesize(s domain.Settings) string {
	subject := strings.TrimSpace(s.Description)
	if subject == "" {
		return ""
	}

	parts := []string{opening(s.Mode, subject)}
	if p, ok := perspectivePhrases[s.Perspective]; ok {
		parts = append(parts, p)
	}
	if l, ok := lightingPhrases[s.Lighting]; ok {
		parts = append(parts, l)
	}
	prompt := strings.Join(parts, ", ") + "."

	if style := strings.TrimSpace(s.Style); style != "" {
		prompt += " Style: " + style + "."
	}
	if ext := extensionPhrase(s); ext != "" {
		prompt += " " + ext
	}
	return prompt
}

func opening(mode domain.Mode, subject string) string {
	switch mode {
	case domain.ModeMockup:
		return "A realistic product mockup featuring " + subject
	case domain.ModeSocial:
		return "An eye-catching social media visual of " + subject
	case domain.ModeDesign:
		return "Clean graphic design artwork built around " + subject
	case domain.ModeCharacter:
		return "Character art of " + subject + ", matching the reference image"
	case domain.ModeVideo:
		return "A short promotional video of " + subject
	default:
		return "Professional product photography of " + subject
	}
}

var perspectivePhrases = map[string]string{
	"eye_level":     "eye-level",
	"top_down":      "top-down view",
	"close_up":      "close-up",
	"three_quarter": "three-quarter view",
}

var lightingPhrases = map[string]string{
	"studio_softbox": "studio softbox",
	"natural":        "natural light",
	"golden_hour":    "golden hour glow",
	"neon":           "neon accents",
	"dramatic":       "dramatic shadows",
}

func extensionPhrase(s domain.Settings) string {
	switch {
	case s.Mockup != nil:
		phrase := "Printed on a " + strings.ReplaceAll(s.Mockup.Surface, "_", " ") + "."
		if s.Mockup.Color != "" {
			phrase += " Base color " + s.Mockup.Color + "."
		}
		return phrase
	case s.Social != nil:
		phrase := "Composed for " + s.Social.Platform + "."
		if h := strings.TrimSpace(s.Social.Headline); h != "" {
			phrase += " Headline text: \"" + h + "\"."
		}
		return phrase
	case s.Design != nil:
		return "Delivered as a " + s.Design.Medium + " design."
	case s.Character != nil:
		var bits []string
		if p := strings.TrimSpace(s.Character.Pose); p != "" {
			bits = append(bits, "pose: "+p)
		}
		if e := strings.TrimSpace(s.Character.Expression); e != "" {
			bits = append(bits, "expression: "+e)
		}
		if len(bits) == 0 {
			return ""
		}
		return "Character direction, " + strings.Join(bits, "; ") + "."
	case s.Video != nil:
		if s.Video.Motion != "" {
			return "Camera motion: " + s.Video.Motion + "."
		}
		return ""
	default:
		return ""
	}
}

const titleWordLimit = 8

// DeriveTitle condenses a prompt into a short, searchable history title.
func DeriveTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "Untitled"
	}
	if len(words) > titleWordLimit {
		words = words[:titleWordLimit]
	}
	title := strings.Join(words, " ")
	title = strings.TrimRight(title, ".,;:")
	return cases.Title(language.English).String(title)
}
