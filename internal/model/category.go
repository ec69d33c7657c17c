package model

import "fmt"

// Category is the severity bucket of a reconciled record.
// The set is closed; Categories lists it in tier order.
type Category int

const (
	CategoryValid Category = iota
	CategoryRounding
	CategorySmall
	CategoryMedium
	CategoryBig
	CategoryMissing
)

var categoryLabels = [...]string{
	CategoryValid:    "Valid",
	CategoryRounding: "Rounding (< 2k)",
	CategorySmall:    "Small (2k–10k)",
	CategoryMedium:   "Medium (10k–100k)",
	CategoryBig:      "Big (> 100k)",
	CategoryMissing:  "Missing",
}

// Categories returns every category in tier order.
func Categories() []Category {
	return []Category{
		CategoryValid,
		CategoryRounding,
		CategorySmall,
		CategoryMedium,
		CategoryBig,
		CategoryMissing,
	}
}

// String returns the display label, e.g. "Small (2k–10k)".
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryLabels) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryLabels[c]
}

// ParseCategory converts a display label back to a Category.
// A plain hyphen is accepted in place of the en dash.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if s == c.String() || s == hyphenated(c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categoryLabels) {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func hyphenated(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '–' {
			out[i] = '-'
		}
	}
	return string(out)
}
