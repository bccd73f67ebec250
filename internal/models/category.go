package models

// Category is the fixed spending taxonomy used by the categorizer and the
// dashboard. Entries and summaries always carry one of these values;
// anything the importer cannot place lands in CategoryOther.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryHousing       Category = "housing"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategorySavings       Category = "savings"
	CategoryDataAirtime   Category = "data_airtime"
	CategoryFamily        Category = "family"
	CategoryDebt          Category = "debt"
	CategoryPersonalCare  Category = "personal_care"
	CategoryInvestment    Category = "investment"
	CategoryTax           Category = "tax"
	CategorySalary        Category = "salary"
	CategoryBusiness      Category = "business"
	CategoryGift          Category = "gift"
	CategoryTravel        Category = "travel"
	CategoryInsurance     Category = "insurance"
	CategorySubscriptions Category = "subscriptions"
	CategoryCharity       Category = "charity"
	CategoryOther         Category = "other"
)

// Categories lists every valid category value.
var Categories = []Category{
	CategoryFood, CategoryTransport, CategoryUtilities, CategoryHousing,
	CategoryEntertainment, CategoryShopping, CategoryHealth, CategoryEducation,
	CategorySavings, CategoryDataAirtime, CategoryFamily, CategoryDebt,
	CategoryPersonalCare, CategoryInvestment, CategoryTax, CategorySalary,
	CategoryBusiness, CategoryGift, CategoryTravel, CategoryInsurance,
	CategorySubscriptions, CategoryCharity, CategoryOther,
}

var categorySet = func() map[Category]bool {
	set := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		set[c] = true
	}
	return set
}()

// ValidCategory reports whether c is one of the known category values.
func ValidCategory(c Category) bool {
	return categorySet[c]
}
