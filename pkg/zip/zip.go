// Package zip bundles generated assets into a single downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets writes the assets into a zip archive in order. Duplicate
// filenames get a numeric suffix so no entry is silently dropped.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := map[string]int{}
	for _, asset := range assets {
		name := asset.Filename
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%d-%s", n, name)
		}
		seen[asset.Filename]++
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
