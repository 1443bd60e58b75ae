// Package nutrients computes the gram quantities of a nutrient mix for a
// given water volume. The calculator is stateless: same recipe and liters
// always produce the same output, and nothing is persisted.
package nutrients

import (
	"errors"
	"strconv"

	"github.com/agrovida/hidrofresa/internal/domain/models"
)

var (
	// ErrNoRecipe indicates no recipe was selected.
	ErrNoRecipe = errors.New("a recipe must be selected")
	// ErrInvalidLiters indicates a non-positive water volume.
	ErrInvalidLiters = errors.New("liters must be a positive number")
)

// Mix is the computed quantity for one nutrient. Grams is pre-formatted
// with two decimals, matching how the value is displayed and recorded.
type Mix struct {
	Name  string `json:"name"`
	Grams string `json:"grams"`
}

// Calculate applies grams = proportion (g/L) * liters to every nutrient of
// the recipe. It returns either the full mix or an error, never a partial
// result.
func Calculate(recipe models.NutrientRecipe, liters float64) ([]Mix, error) {
	if len(recipe.Nutrients) == 0 {
		return nil, ErrNoRecipe
	}
	if liters <= 0 {
		return nil, ErrInvalidLiters
	}

	mix := make([]Mix, 0, len(recipe.Nutrients))
	for _, n := range recipe.Nutrients {
		mix = append(mix, Mix{
			Name:  n.Name,
			Grams: strconv.FormatFloat(n.Proportion*liters, 'f', 2, 64),
		})
	}
	return mix, nil
}
