package studio

import "github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"

// AssetView is the renderable shape of a stored asset.
type AssetView struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	URL  string `json:"url"`
	MIME string `json:"mime"`
}

// DerivationView reports one derivation's lifecycle state.
type DerivationView struct {
	Kind   string `json:"kind"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Err    string `json:"error,omitempty"`
}

// ResultView is one result slot as the UI binds to it.
type ResultView struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Prompt string `json:"prompt"`
	Seed   *int64 `json:"seed,omitempty"`
	Err    string `json:"error,omitempty"`
}

// PromptView exposes the effective prompt plus whether the user has taken
// manual control of it.
type PromptView struct {
	Auto      string `json:"auto"`
	Effective string `json:"effective"`
	Dirty     bool   `json:"dirty"`
}

// SessionView is the full derived view state rendered to the presentation
// layer after every intent.
type SessionView struct {
	ID             string           `json:"id"`
	State          string           `json:"state"`
	Busy           bool             `json:"busy"`
	RunError       string           `json:"run_error,omitempty"`
	CanGenerate    bool             `json:"can_generate"`
	Settings       domain.Settings  `json:"settings"`
	Prompt         PromptView       `json:"prompt"`
	Source         *AssetView       `json:"source,omitempty"`
	Reference      *AssetView       `json:"reference,omitempty"`
	Derivations    []DerivationView `json:"derivations"`
	Results        []ResultView     `json:"results"`
	SelectionID    string           `json:"selection_id,omitempty"`
	SelectionIndex int              `json:"selection_index"`
}

// View assembles a consistent snapshot of the session under the lock.
func (c *Controller) View() SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := SessionView{
		ID:             c.session.ID,
		State:          string(c.session.State),
		Busy:           c.running,
		RunError:       c.session.RunErr,
		Settings:       c.session.Settings.Clone(),
		SelectionID:    c.session.SelectionID,
		SelectionIndex: c.session.SelectionIndex(),
		Prompt: PromptView{
			Auto:      c.session.Prompt.Auto,
			Effective: c.session.Prompt.Effective(),
			Dirty:     c.session.Prompt.Dirty(),
		},
	}
	v.Source = assetView(c.assets.Source())
	v.Reference = assetView(c.assets.Reference())
	for _, kind := range []domain.DerivationKind{domain.DerivationBackgroundRemoved, domain.DerivationDescription} {
		d := c.assets.Derivation(kind)
		dv := DerivationView{Kind: string(d.Kind), Status: string(d.Status), Err: d.Err}
		if d.Asset != nil {
			dv.URL = d.Asset.URL
		}
		v.Derivations = append(v.Derivations, dv)
	}
	for _, r := range c.session.Results {
		rv := ResultView{
			ID:     r.ID,
			Kind:   string(r.Kind),
			Status: string(r.Status),
			Prompt: r.SourcePrompt,
			Seed:   r.Seed,
			Err:    r.Err,
		}
		if r.Content != nil {
			rv.URL = r.Content.URL
		}
		v.Results = append(v.Results, rv)
	}

	// Mirrors the run precondition at the affordance level so the UI can
	// disable the action instead of relying on the rejection alone.
	if !c.running && c.session.Prompt.Effective() != "" {
		if _, _, err := c.preconditionLocked(c.session.Settings.Mode); err == nil {
			v.CanGenerate = true
		}
	}
	return v
}

func assetView(a *domain.Asset) *AssetView {
	if a == nil {
		return nil
	}
	return &AssetView{ID: a.ID, Kind: string(a.Kind), URL: a.URL, MIME: a.MIME}
}
