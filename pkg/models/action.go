package models

// Category groups action definitions in the catalogue.
type Category string

const (
	CategoryProcessing Category = "processing" // Cleanup and conversion of raw input
	CategoryEditorial  Category = "editorial"  // Rewriting, proofreading, translation
	CategoryAnalysis   Category = "analysis"   // Extraction and classification
	CategoryOutput     Category = "output"     // Final formatting of deliverables
)

// Categories returns the closed set of action categories in display order.
func Categories() []Category {
	return []Category{CategoryProcessing, CategoryEditorial, CategoryAnalysis, CategoryOutput}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryProcessing, CategoryEditorial, CategoryAnalysis, CategoryOutput:
		return true
	default:
		return false
	}
}

// ActionDefinition describes an operation a workflow node can perform.
// Definitions are immutable once registered; nodes hold a copy.
type ActionDefinition struct {
	ID          string   `json:"id"                validate:"required"`
	Label       string   `json:"label"             validate:"required"`
	Category    Category `json:"category"          validate:"required,oneof=processing editorial analysis output"`
	Icon        string   `json:"icon,omitempty"`
	Description string   `json:"description"`
	Prompt      string   `json:"prompt,omitempty"` // Default instruction template, rendered per node
}
