package domain

import "strings"

// Mode enumerates the creative workflows the studio supports.
type Mode string

const (
	ModeProduct   Mode = "product"
	ModeMockup    Mode = "mockup"
	ModeSocial    Mode = "social"
	ModeDesign    Mode = "design"
	ModeCharacter Mode = "character"
	ModeVideo     Mode = "video"
)

// NormalizeMode sanitizes free-form user input into a supported mode.
func NormalizeMode(mode string) Mode {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case string(ModeMockup):
		return ModeMockup
	case string(ModeSocial):
		return ModeSocial
	case string(ModeDesign):
		return ModeDesign
	case string(ModeCharacter):
		return ModeCharacter
	case string(ModeVideo):
		return ModeVideo
	default:
		return ModeProduct
	}
}

// RequiredDerivation reports which derived asset must be ready before a run
// may start in the given mode, if any.
func (m Mode) RequiredDerivation() (DerivationKind, bool) {
	switch m {
	case ModeProduct, ModeMockup:
		return DerivationBackgroundRemoved, true
	default:
		return "", false
	}
}

// NeedsReference reports whether the mode conditions generation on a
// separately uploaded reference image.
func (m Mode) NeedsReference() bool {
	return m == ModeCharacter
}

// SingleResult reports whether the mode always produces exactly one output.
func (m Mode) SingleResult() bool {
	return m == ModeVideo
}
