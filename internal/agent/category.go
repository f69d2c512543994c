package agent

// Category identifies which specialised advisor persona handles a query.
// The set is closed — dispatch happens over an exhaustive switch, and any
// string that does not parse lands on CategoryOther rather than silently
// borrowing another persona.
type Category string

const (
	// CategoryWeather covers forecasts and weather-driven farming decisions.
	CategoryWeather Category = "weather"
	// CategoryCrop covers crop selection, growth stages, pests and harvest.
	CategoryCrop Category = "crop"
	// CategoryMarket covers mandi prices, trends and selling strategy.
	CategoryMarket Category = "market"
	// CategoryFinance covers loans, insurance and investment planning.
	CategoryFinance Category = "finance"
	// CategorySoil covers soil testing, fertility and erosion control.
	CategorySoil Category = "soil"
	// CategoryFertilizer covers fertilizer selection, rates and timing.
	CategoryFertilizer Category = "fertilizer"
	// CategoryGovSchemes covers government schemes, subsidies and eligibility.
	CategoryGovSchemes Category = "gov_schemes"
	// CategoryOther covers general farming topics outside the above.
	CategoryOther Category = "other"
)

// Categories lists every valid category, in dispatch order.
func Categories() []Category {
	return []Category{
		CategoryWeather,
		CategoryCrop,
		CategoryMarket,
		CategoryFinance,
		CategorySoil,
		CategoryFertilizer,
		CategoryGovSchemes,
		CategoryOther,
	}
}

// categoryAliases maps legacy client category strings onto the closed enum.
var categoryAliases = map[string]Category{
	"weather_info": CategoryWeather,
	"crop_info":    CategoryCrop,
	"crop_science": CategoryCrop,
	"market_info":  CategoryMarket,
	"finance_info": CategoryFinance,
	"soil_info":    CategorySoil,
	"soil_health":  CategorySoil,
	"schemes":      CategoryGovSchemes,
}

// ParseCategory resolves a client-supplied category string (canonical name or
// legacy alias, case-sensitive lowercase expected) to a Category. The second
// return is false when the input was not recognised and CategoryOther was
// substituted.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryWeather, CategoryCrop, CategoryMarket, CategoryFinance,
		CategorySoil, CategoryFertilizer, CategoryGovSchemes, CategoryOther:
		return Category(s), true
	}
	if c, ok := categoryAliases[s]; ok {
		return c, true
	}
	return CategoryOther, false
}
