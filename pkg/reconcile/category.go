package reconcile

import (
	"fmt"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// Category is one of the three role families a survey label is matched against.
type Category int

const (
	// TU is the control category (ТУ, "Управление").
	TU Category = iota
	// TV is the operated category (ТВ, "Ведение").
	TV
	// IV is the informational-maintenance category (ИВ).
	IV
)

// numCategories sizes the per-category arrays; the enumeration is closed.
const numCategories = 3

var categoryInfo = [numCategories]struct {
	code   string
	prefix string
	title  string
}{
	TU: {code: "TU", prefix: "ТУ", title: "Управление (ТУ)"},
	TV: {code: "TV", prefix: "ТВ", title: "Ведение (ТВ)"},
	IV: {code: "IV", prefix: "ИВ", title: "Информационное ведение (ИВ)"},
}

// Categories returns every category in canonical order.
func Categories() []Category {
	return []Category{TU, TV, IV}
}

// Valid reports whether c is one of TU, TV, IV.
func (c Category) Valid() bool {
	return c >= TU && c <= IV
}

// String returns the wire code ("TU", "TV", "IV").
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryInfo[c].code
}

// Prefix returns the Cyrillic role-name prefix used in the role catalog.
func (c Category) Prefix() string {
	if !c.Valid() {
		return ""
	}
	return categoryInfo[c].prefix
}

// Title returns a human label for tables and reports.
func (c Category) Title() string {
	if !c.Valid() {
		return c.String()
	}
	return categoryInfo[c].title
}

// SummaryKey returns the key the processing backend uses for this category's summary.
func (c Category) SummaryKey() string {
	return strings.ToLower(c.String()) + "_summary"
}

// ParseCategory parses a wire code case-insensitively. The Cyrillic prefixes
// are accepted as well.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, categoryInfo[c].code) || strings.EqualFold(s, categoryInfo[c].prefix) {
			return c, nil
		}
	}
	return 0, errors.NewInputValidationError(fmt.Sprintf("unknown category %q", s), "category")
}

// CategoryOfRole derives the category from a catalog role name ("ТУ Объект 1" → TU).
func CategoryOfRole(roleName string) (Category, bool) {
	roleName = strings.TrimSpace(roleName)
	for _, c := range Categories() {
		if strings.HasPrefix(roleName, categoryInfo[c].prefix+" ") {
			return c, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler so categories work as map keys.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
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
