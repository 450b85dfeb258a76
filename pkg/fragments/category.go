package fragments

// Category is the fixed classification every fragment belongs to.
type Category string

const (
	CategoryPersona    Category = "persona"
	CategorySkill      Category = "skill"
	CategoryContext    Category = "context"
	CategoryTone       Category = "tone"
	CategoryConstraint Category = "constraint"
)

var allCategories = []Category{
	CategoryPersona,
	CategorySkill,
	CategoryContext,
	CategoryTone,
	CategoryConstraint,
}

// Categories returns every category in canonical order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// DirName returns the storage directory name for the category.
func (c Category) DirName() string {
	switch c {
	case CategoryPersona:
		return "personas"
	case CategorySkill:
		return "skills"
	case CategoryContext:
		return "contexts"
	case CategoryTone:
		return "tones"
	case CategoryConstraint:
		return "constraints"
	default:
		return ""
	}
}

func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	return c.DirName() != ""
}

// CategoryFromDir maps a storage directory name back to its category.
func CategoryFromDir(dir string) (Category, bool) {
	for _, c := range allCategories {
		if c.DirName() == dir {
			return c, true
		}
	}
	return "", false
}

// ParseCategory accepts both singular ("skill") and plural ("skills") forms.
// Matching is exact and case-sensitive.
func ParseCategory(name string) (Category, bool) {
	for _, c := range allCategories {
		if name == string(c) || name == c.DirName() {
			return c, true
		}
	}
	return "", false
}
