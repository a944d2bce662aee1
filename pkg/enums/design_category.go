package enums

// DesignCategory is the catalog grouping a design is sold under. Categories
// arrive as free text from the catalog table, so helpers tolerate unknown
// values instead of rejecting them.
type DesignCategory string

const (
	CategoryBudgetFriendly   DesignCategory = "budget-friendly"
	CategoryExclusive        DesignCategory = "exclusive"
	CategoryMirrorWork       DesignCategory = "mirror-work"
	CategoryLinesDesign      DesignCategory = "lines-design"
	CategoryHandAllOver      DesignCategory = "hand-all-over"
	CategoryKutchWork        DesignCategory = "kutch-work"
	CategoryBridal           DesignCategory = "bridal"
	CategoryEmbroideryFrames DesignCategory = "embroidery-frames"

	// UnknownCategoryCode is stamped into order ids when the design's
	// category has no registered code.
	UnknownCategoryCode = "XX"
)

var categoryCodes = map[DesignCategory]string{
	CategoryBudgetFriendly:   "BF",
	CategoryExclusive:        "EX",
	CategoryMirrorWork:       "MW",
	CategoryLinesDesign:      "LD",
	CategoryHandAllOver:      "HA",
	CategoryKutchWork:        "KW",
	CategoryBridal:           "BR",
	CategoryEmbroideryFrames: "EF",
}

// String implements fmt.Stringer.
func (c DesignCategory) String() string {
	return string(c)
}

// Code returns the fixed two-letter code used in human-readable order ids.
func (c DesignCategory) Code() string {
	if code, ok := categoryCodes[c]; ok {
		return code
	}
	return UnknownCategoryCode
}

// IsKnown reports whether the category has a registered code.
func (c DesignCategory) IsKnown() bool {
	_, ok := categoryCodes[c]
	return ok
}
