// Package model defines the core domain models used throughout the application.
package model

// Category is the product category that selects a weight formula.
type Category string

// Product categories, in the order the keyword dictionary is searched.
const (
	CategorySmallElec  Category = "small_elec"
	CategoryRiceCooker Category = "rice_cooker"
	CategoryKettle     Category = "kettle"
	CategoryThermos    Category = "thermos"
	CategoryAirFryer   Category = "air_fryer"
	CategoryBlender    Category = "blender"
	CategoryShoes      Category = "shoes"
	CategoryClothing   Category = "clothing"
	CategoryContainer  Category = "container"
	CategoryPotPan     Category = "pot_pan"
	CategoryBeauty     Category = "beauty"
)

// Categories returns every known category in dictionary order.
func Categories() []Category {
	return []Category{
		CategorySmallElec,
		CategoryRiceCooker,
		CategoryKettle,
		CategoryThermos,
		CategoryAirFryer,
		CategoryBlender,
		CategoryShoes,
		CategoryClothing,
		CategoryContainer,
		CategoryPotPan,
		CategoryBeauty,
	}
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.IsValid()
}

func (c Category) String() string {
	return string(c)
}
