// Package grades holds the fixed military rank vocabulary used for agents and
// trainers: its ordering and the category each rank belongs to.
package grades

import (
	"github.com/maritime-school/training-admin/internal/utils"
)

// UnknownRank orders unrecognised grades after every known one.
const UnknownRank = 999

const (
	CategorieOfficierSuperieur = "ضابط سامي"
	CategorieOfficier          = "ضابط"
	CategorieSousOfficier      = "ضابط صف"
	CategorieAgent             = "عون"
)

// Grades lists the recognised ranks from highest to lowest.
var Grades = []string{
	"عميد",
	"عقيد",
	"مقدم",
	"رائد",
	"نقيب",
	"ملازم أول",
	"ملازم",
	"وكيل أعلى",
	"وكيل أول",
	"وكيل",
	"عريف أول",
	"عريف",
	"حرس أول",
	"حرس",
}

var categories = map[string]string{
	"عميد":      CategorieOfficierSuperieur,
	"عقيد":      CategorieOfficierSuperieur,
	"مقدم":      CategorieOfficierSuperieur,
	"رائد":      CategorieOfficierSuperieur,
	"نقيب":      CategorieOfficier,
	"ملازم أول": CategorieOfficier,
	"ملازم":     CategorieOfficier,
	"وكيل أعلى": CategorieSousOfficier,
	"وكيل أول":  CategorieSousOfficier,
	"وكيل":      CategorieSousOfficier,
	"عريف أول":  CategorieAgent,
	"عريف":      CategorieAgent,
	"حرس أول":   CategorieAgent,
	"حرس":       CategorieAgent,
}

var (
	rankByKey     = make(map[string]int, len(Grades))
	categoryByKey = make(map[string]string, len(Grades))
)

func init() {
	for i, g := range Grades {
		key := utils.NormalizeArabic(g)
		rankByKey[key] = i + 1
		categoryByKey[key] = categories[g]
	}
}

// Rank returns the position of grade in the hierarchy, 1 for the highest rank.
// Unknown grades return UnknownRank.
func Rank(grade string) int {
	if r, ok := rankByKey[utils.NormalizeArabic(grade)]; ok {
		return r
	}
	return UnknownRank
}

// IsKnown reports whether grade belongs to the rank vocabulary.
func IsKnown(grade string) bool {
	return Rank(grade) != UnknownRank
}

// Categorie derives the personnel category from a grade. Unknown grades fall
// back to CategorieSousOfficier.
func Categorie(grade string) string {
	if c, ok := categoryByKey[utils.NormalizeArabic(grade)]; ok {
		return c
	}
	return CategorieSousOfficier
}

// Canonical returns the vocabulary spelling of grade, or grade unchanged when unknown.
func Canonical(grade string) string {
	r := Rank(grade)
	if r == UnknownRank {
		return grade
	}
	return Grades[r-1]
}

// Compare orders two grades by rank, highest rank first.
func Compare(a, b string) int {
	ra, rb := Rank(a), Rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// Categories lists the derived categories in hierarchy order.
func Categories() []string {
	return []string{CategorieOfficierSuperieur, CategorieOfficier, CategorieSousOfficier, CategorieAgent}
}
