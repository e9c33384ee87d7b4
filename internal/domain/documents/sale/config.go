package sale

import "backoffice/internal/core/numerator"

// FamilyConfig parameterizes the sale aggregate per document family.
// Regular sales and quick sales share all behavior but number from
// separate sequences and carry different workflow labels.
type FamilyConfig struct {
	// Name is the entity label used in errors and logs
	Name string

	// Numbering is the sequence family for document numbers
	Numbering numerator.Family

	// Statuses are the allowed workflow labels, in order
	Statuses []string

	// DefaultStatus is assigned when the client sends none
	DefaultStatus string

	// FinalStatus marks the document as no longer pending
	FinalStatus string

	// MovementSubtype tags projected cash movements
	MovementSubtype string
}

var (
	ConfigSale = FamilyConfig{
		Name:            "sale",
		Numbering:       numerator.FamilySale,
		Statuses:        []string{"ordered", "in_production", "ready", "delivered"},
		DefaultStatus:   "ordered",
		FinalStatus:     "delivered",
		MovementSubtype: "sale",
	}

	// Quick sales are over-the-counter: no production workflow, the
	// document is delivered the moment it exists.
	ConfigQuickSale = FamilyConfig{
		Name:            "quick_sale",
		Numbering:       numerator.FamilyQuickSale,
		Statuses:        []string{"ready", "delivered"},
		DefaultStatus:   "delivered",
		FinalStatus:     "delivered",
		MovementSubtype: "quick_sale",
	}
)

// ValidStatus reports whether label is allowed for this family.
func (c FamilyConfig) ValidStatus(label string) bool {
	for _, s := range c.Statuses {
		if s == label {
			return true
		}
	}
	return false
}
