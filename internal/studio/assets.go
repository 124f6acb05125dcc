package studio

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
)

// AssetStore owns the session's uploaded source image, the reference image
// and the derivation map. It is plain data guarded by the controller's lock;
// all async transitions go through the controller.
type AssetStore struct {
	source    *domain.Asset
	reference *domain.Asset
	derived   map[domain.DerivationKind]*domain.DerivedAsset
}

func NewAssetStore() *AssetStore {
	return &AssetStore{derived: map[domain.DerivationKind]*domain.DerivedAsset{}}
}

// Source returns the uploaded source asset, or nil.
func (s *AssetStore) Source() *domain.Asset { return s.source }

// Reference returns the uploaded reference image, or nil.
func (s *AssetStore) Reference() *domain.Asset { return s.reference }

// SetSource replaces the source wholesale and clears every derivation, since
// derived assets are only invalidated by a new source.
func (s *AssetStore) SetSource(a *domain.Asset) {
	s.source = a
	s.derived = map[domain.DerivationKind]*domain.DerivedAsset{}
}

func (s *AssetStore) SetReference(a *domain.Asset) {
	s.reference = a
}

// Derivation returns the state of one derivation, defaulting to absent.
func (s *AssetStore) Derivation(kind domain.DerivationKind) *domain.DerivedAsset {
	if d, ok := s.derived[kind]; ok {
		return d
	}
	return &domain.DerivedAsset{Kind: kind, Status: domain.DerivationAbsent}
}

// BeginDerivation marks a derivation pending.
func (s *AssetStore) BeginDerivation(kind domain.DerivationKind) {
	s.derived[kind] = &domain.DerivedAsset{Kind: kind, Status: domain.DerivationPending}
}

// CompleteDerivation stores a successful derivation result.
func (s *AssetStore) CompleteDerivation(kind domain.DerivationKind, asset *domain.Asset, text string) {
	s.derived[kind] = &domain.DerivedAsset{Kind: kind, Status: domain.DerivationReady, Asset: asset, Text: text}
}

// FailDerivation records a derivation failure.
func (s *AssetStore) FailDerivation(kind domain.DerivationKind, err error) {
	d := &domain.DerivedAsset{Kind: kind, Status: domain.DerivationFailed}
	if err != nil {
		d.Err = err.Error()
	}
	s.derived[kind] = d
}

// Release drops everything; used by "start over".
func (s *AssetStore) Release() {
	s.source = nil
	s.reference = nil
	s.derived = map[domain.DerivationKind]*domain.DerivedAsset{}
}

// newAsset wraps raw bytes into a domain asset with a fresh ID and checksum.
func newAsset(kind domain.AssetKind, data []byte, mime, key, url string) *domain.Asset {
	sum := sha256.Sum256(data)
	return &domain.Asset{
		ID:        uuid.NewString(),
		Kind:      kind,
		Key:       key,
		URL:       url,
		MIME:      mime,
		Data:      data,
		Checksum:  hex.EncodeToString(sum[:]),
		CreatedAt: time.Now().UTC(),
	}
}
