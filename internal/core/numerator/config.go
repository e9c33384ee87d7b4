// Package numerator provides domain contracts for document numbering.
package numerator

// Family identifies one independent numbering sequence.
type Family struct {
	// Code is the counter key stored in the database (e.g. "sale")
	Code string

	// Prefix added to formatted numbers (e.g. "SAL" -> SAL-00042)
	Prefix string

	// PadWidth is the minimum digit width (default 5)
	PadWidth int
}

// Document families. Quick sales number independently from regular
// sales even though both share the sale aggregate.
var (
	FamilySale      = Family{Code: "sale", Prefix: "SAL", PadWidth: 5}
	FamilyQuickSale = Family{Code: "quick_sale", Prefix: "QSL", PadWidth: 5}
	FamilyPurchase  = Family{Code: "purchase", Prefix: "PUR", PadWidth: 5}
)
