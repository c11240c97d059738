package core

// DefaultColor is used when a transaction or budget references a category
// that is missing from the reference set.
const DefaultColor = "#6B7280"

// DefaultExpenseCategories is the built-in expense taxonomy seeded on first run.
var DefaultExpenseCategories = []Category{
	{Name: "Food & Dining", Color: "#EF4444", Icon: "utensils", Kind: KindExpense},
	{Name: "Transportation", Color: "#F97316", Icon: "car", Kind: KindExpense},
	{Name: "Shopping", Color: "#EAB308", Icon: "shopping-bag", Kind: KindExpense},
	{Name: "Entertainment", Color: "#8B5CF6", Icon: "film", Kind: KindExpense},
	{Name: "Bills & Utilities", Color: "#3B82F6", Icon: "zap", Kind: KindExpense},
	{Name: "Healthcare", Color: "#10B981", Icon: "heart", Kind: KindExpense},
	{Name: "Education", Color: "#06B6D4", Icon: "book", Kind: KindExpense},
	{Name: "Travel", Color: "#F59E0B", Icon: "plane", Kind: KindExpense},
	{Name: "Other", Color: "#6B7280", Icon: "more-horizontal", Kind: KindExpense},
}

// DefaultIncomeCategories is the built-in income taxonomy seeded on first run.
var DefaultIncomeCategories = []Category{
	{Name: "Salary", Color: "#10B981", Icon: "briefcase", Kind: KindIncome},
	{Name: "Freelance", Color: "#3B82F6", Icon: "laptop", Kind: KindIncome},
	{Name: "Investment", Color: "#8B5CF6", Icon: "trending-up", Kind: KindIncome},
	{Name: "Business", Color: "#F59E0B", Icon: "building", Kind: KindIncome},
	{Name: "Other", Color: "#6B7280", Icon: "more-horizontal", Kind: KindIncome},
}

// Catalog resolves category names to their display attributes.
type Catalog map[string]Category

// NewCatalog builds a name-keyed catalog. Later entries win on name collision,
// which lets user-defined categories shadow the built-ins.
func NewCatalog(sets ...[]Category) Catalog {
	c := make(Catalog)
	for _, set := range sets {
		for _, cat := range set {
			c[cat.Name] = cat
		}
	}
	return c
}

// DefaultCatalog returns the built-in expense and income reference set.
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultExpenseCategories, DefaultIncomeCategories)
}

// Color returns the display color for name, falling back to DefaultColor
// when the name is not in the reference set. Never errors.
func (c Catalog) Color(name string) string {
	if cat, ok := c[name]; ok && cat.Color != "" {
		return cat.Color
	}
	return DefaultColor
}

// Lookup returns the category for name if present.
func (c Catalog) Lookup(name string) (Category, bool) {
	cat, ok := c[name]
	return cat, ok
}
