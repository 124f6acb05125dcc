package domain

import "time"

// AssetKind enumerates asset content types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// Asset is an opaque binary handle: bytes held for the session's lifetime plus
// the storage key and URL under which they are served.
type Asset struct {
	ID        string
	Kind      AssetKind
	Key       string
	URL       string
	MIME      string
	Data      []byte
	Width     int
	Height    int
	Checksum  string
	CreatedAt time.Time
}

// Clone returns a deep copy, including the byte payload.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Data != nil {
		cp.Data = append([]byte(nil), a.Data...)
	}
	return &cp
}

// DerivationKind names an asset derived asynchronously from the source.
type DerivationKind string

const (
	DerivationBackgroundRemoved DerivationKind = "background-removed"
	DerivationDescription       DerivationKind = "description"
)

// DerivationStatus tracks the lifecycle of a derived asset.
type DerivationStatus string

const (
	DerivationAbsent  DerivationStatus = "absent"
	DerivationPending DerivationStatus = "pending"
	DerivationReady   DerivationStatus = "ready"
	DerivationFailed  DerivationStatus = "failed"
)

// DerivedAsset is one entry of the session's derivation map. Text derivations
// (the source description) carry Text instead of Asset.
type DerivedAsset struct {
	Kind   DerivationKind
	Status DerivationStatus
	Asset  *Asset
	Text   string
	Err    string
}

// ResultStatus tracks one generation output slot.
type ResultStatus string

const (
	ResultPending ResultStatus = "pending"
	ResultReady   ResultStatus = "ready"
	ResultFailed  ResultStatus = "failed"
)

// Result is one output slot of the current run. Its ID is assigned at dispatch
// time and never changes, so asynchronous completions and edits write back by
// ID rather than by position.
type Result struct {
	ID           string
	Kind         AssetKind
	Status       ResultStatus
	Content      *Asset
	SourcePrompt string
	Seed         *int64
	Err          string
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Content = r.Content.Clone()
	if r.Seed != nil {
		seed := *r.Seed
		cp.Seed = &seed
	}
	return &cp
}

// CloneResults deep-copies a result slice, preserving order.
func CloneResults(in []*Result) []*Result {
	if in == nil {
		return nil
	}
	out := make([]*Result, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// RunState is the generation state machine's externally visible state.
// Succeeded and failed are terminal for one run; a new run re-enters
// validating from either.
type RunState string

const (
	RunIdle       RunState = "idle"
	RunValidating RunState = "validating"
	RunRunning    RunState = "running"
	RunSucceeded  RunState = "succeeded"
	RunFailed     RunState = "failed"
)

// PromptState holds the auto-synthesized prompt and the optional user
// override. Auto keeps recomputing in the background; the override, once set,
// is what the user sees and what generation receives.
type PromptState struct {
	Auto     string
	Override *string
}

// Effective returns the prompt actually sent to generation.
func (p PromptState) Effective() string {
	if p.Override != nil {
		return *p.Override
	}
	return p.Auto
}

// Dirty reports whether the user has taken manual control of the prompt.
func (p PromptState) Dirty() bool {
	return p.Override != nil
}

// Session is the live, mutable working state for one creative task.
type Session struct {
	ID          string
	Settings    Settings
	Prompt      PromptState
	Results     []*Result
	SelectionID string
	State       RunState
	RunErr      string
	CreatedAt   time.Time
}

// ResultByID finds a result slot by its stable ID.
func (s *Session) ResultByID(id string) *Result {
	for _, r := range s.Results {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// SelectionIndex resolves the selected result's position, or -1.
func (s *Session) SelectionIndex() int {
	if s.SelectionID == "" {
		return -1
	}
	for i, r := range s.Results {
		if r.ID == s.SelectionID {
			return i
		}
	}
	return -1
}
