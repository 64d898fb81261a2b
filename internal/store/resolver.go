// Package store owns the on-disk layout of attachment files: path
// resolution, placement of backing files, legacy-root migration, and
// consistent deletion of a record together with its cached renditions.
package store

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/filex"
)

// Thumbnail tier bounds, in pixels: the longest side of a generated
// rendition never exceeds its tier's bound.
const (
	ThumbnailDimSmall  = 200
	ThumbnailDimMedium = 450
	ThumbnailDimLarge  = 600
)

// ThumbnailDims lists every tier that is materialized on disk, ascending.
var ThumbnailDims = []int{ThumbnailDimSmall, ThumbnailDimMedium, ThumbnailDimLarge}

// Resolver maps record identity to on-disk locations under a storage root,
// and knows about the legacy root that predates the shared data directory.
type Resolver struct {
	root       string
	legacyRoot string
}

func NewResolver(root, legacyRoot string) *Resolver {
	return &Resolver{root: root, legacyRoot: legacyRoot}
}

// Root returns the current storage root, creating it if absent.
func (r *Resolver) Root() (string, error) {
	if err := filex.EnsureDir(r.root); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return r.root, nil
}

// LegacyRoot returns the pre-migration storage root. It is never created;
// it either exists from an earlier installation or it does not.
func (r *Resolver) LegacyRoot() string {
	return r.legacyRoot
}

// RelativePath derives the relative backing-file path for a record id.
// The first four characters of the id fan files out over two directory
// levels so no single directory grows unbounded. Distinct ids always map
// to distinct paths.
func (r *Resolver) RelativePath(id, contentType string) string {
	fan := strings.ReplaceAll(id, "-", "")
	if len(fan) < 4 {
		fan = (fan + "0000")[:4]
	}
	return path.Join(fan[0:2], fan[2:4], id+attachment.ExtensionForMIME(contentType))
}

// AbsolutePathFor joins a relative path onto the current root.
func (r *Resolver) AbsolutePathFor(relPath string) string {
	return filepath.Join(r.root, filepath.FromSlash(relPath))
}

// AbsolutePath returns the full path of the record's backing file, or
// ErrNoBackingFile when none has been written yet.
func (r *Resolver) AbsolutePath(rec *attachment.Record) (string, error) {
	rel, ok := rec.LocalRelativeFilePath()
	if !ok {
		return "", common.ErrNoBackingFile
	}
	return r.AbsolutePathFor(rel), nil
}

// ThumbnailPath returns the cache-file path for the record's rendition at
// the given tier bound. Deterministic: derived from the backing file path
// plus the tier, so repeated generations land on the same file.
func (r *Resolver) ThumbnailPath(rec *attachment.Record, dimensionPoints int) (string, error) {
	abs, err := r.AbsolutePath(rec)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.thumbnail.%d.jpg", abs, dimensionPoints), nil
}

// AllSecondaryPaths lists every cache file that may exist for the record:
// one per materialized thumbnail tier. Paths are returned whether or not
// the files currently exist.
func (r *Resolver) AllSecondaryPaths(rec *attachment.Record) ([]string, error) {
	if _, ok := rec.LocalRelativeFilePath(); !ok {
		return nil, nil
	}
	paths := make([]string, 0, len(ThumbnailDims))
	for _, dim := range ThumbnailDims {
		p, err := r.ThumbnailPath(rec, dim)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
