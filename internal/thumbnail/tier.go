package thumbnail

import "github.com/dmitrijs2005/mediavault/internal/store"

// TierForHint maps an arbitrary size hint (longest side, in pixels) to the
// materialized tier that will be generated: the smallest tier whose bound
// covers the hint, capped at the large tier. Hints of zero or less map to
// the small tier.
func TierForHint(hintPx int) int {
	if hintPx <= 0 {
		return store.ThumbnailDimSmall
	}
	for _, dim := range store.ThumbnailDims {
		if hintPx <= dim {
			return dim
		}
	}
	return store.ThumbnailDimLarge
}
