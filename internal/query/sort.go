package query

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/grepug/xcodebuilder/internal/model"
)

// sortSchemes orders schemes by display order, breaking ties by name under
// Unicode collation (so "Überbuild" sorts next to "Uberbuild" instead of
// after "z"), then by id for full determinism.
//
// A fresh collator per call: collate.Collator is not safe for concurrent use.
func sortSchemes(schemes []model.Scheme) {
	c := collate.New(language.Und)
	sort.SliceStable(schemes, func(i, j int) bool {
		a, b := schemes[i], schemes[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if cmp := c.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
}
