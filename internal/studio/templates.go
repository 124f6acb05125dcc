package studio

import "strings"

// Template is a prebuilt scene prompt. Selecting one counts as a manual
// prompt edit: it is applied as an override, replacing whatever override or
// auto prompt was in effect.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

const subjectPlaceholder = "{subject}"

var templates = []Template{
	{ID: "marble-counter", Name: "Marble Counter", Text: "Professional photo of {subject} on a white marble counter, soft morning window light, shallow depth of field."},
	{ID: "beach-sunset", Name: "Beach Sunset", Text: "{subject} on warm sand at golden sunset, gentle waves blurred in the background."},
	{ID: "forest-moss", Name: "Forest Moss", Text: "{subject} resting on mossy stone in a misty forest, diffused daylight, earthy tones."},
	{ID: "studio-gradient", Name: "Studio Gradient", Text: "{subject} centered on a seamless pastel gradient backdrop, crisp studio softbox lighting."},
	{ID: "cafe-table", Name: "Cafe Table", Text: "{subject} on a rustic wooden cafe table, latte and linen napkin nearby, cozy ambient light."},
	{ID: "neon-noir", Name: "Neon Noir", Text: "{subject} under moody neon reflections on wet asphalt, cinematic night scene."},
}

// Templates returns the scene template catalog.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// RenderTemplate expands a template against the current subject description.
// The second return is false for an unknown template ID.
func RenderTemplate(id, description string) (string, bool) {
	subject := strings.TrimSpace(description)
	if subject == "" {
		subject = "the product"
	}
	for _, t := range templates {
		if t.ID == id {
			return strings.ReplaceAll(t.Text, subjectPlaceholder, subject), true
		}
	}
	return "", false
}
