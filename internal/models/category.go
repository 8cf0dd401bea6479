package models

// Category is one of the fixed expense categories.
type Category string

const (
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryUtilities      Category = "Utilities"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEducation      Category = "Education"
	CategoryTravel         Category = "Travel"
	CategoryGroceries      Category = "Groceries"
	CategoryDiningOut      Category = "Dining Out"
	CategorySubscriptions  Category = "Subscriptions"
	CategoryInsurance      Category = "Insurance"
	CategoryOther          Category = "Other"
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransportation,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryShopping,
		CategoryHealthcare,
		CategoryEducation,
		CategoryTravel,
		CategoryGroceries,
		CategoryDiningOut,
		CategorySubscriptions,
		CategoryInsurance,
		CategoryOther,
	}
}

// IsValid reports whether c is an exact member of the category set.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
