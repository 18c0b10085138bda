package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScanDirectory walks root for accepted photo extensions, skipping hidden
// entries when asked. Files with identical content are reported once; later
// copies come back with Deduplicated set.
func ScanDirectory(root string, skipHidden bool) ([]Photo, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	if st, err := os.Stat(root); err != nil {
		return nil, DirStats{}, fmt.Errorf("stat root: %w", err)
	} else if !st.IsDir() {
		return nil, DirStats{}, fmt.Errorf("root %q is not a directory", root)
	}

	var photos []Photo
	var stats DirStats
	seen := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			photos = append(photos, Photo{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		p := Photo{Path: path, Ext: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}
		p.Field, p.FieldKnown = FieldFromPath(path)
		if !p.FieldKnown {
			stats.Unclassified++
		}

		hash, err := hashFile(path)
		if err != nil {
			p.Err = err.Error()
			photos = append(photos, p)
			stats.Failed++
			return nil
		}
		p.HashHex = hash
		if first, dup := seen[hash]; dup {
			p.Deduplicated = true
			p.Err = "duplicate of " + first
			stats.Deduplicated++
		} else {
			seen[hash] = path
		}
		photos = append(photos, p)
		return nil
	})
	if err != nil {
		return photos, stats, fmt.Errorf("walk: %w", err)
	}
	return photos, stats, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
