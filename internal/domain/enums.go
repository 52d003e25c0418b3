package domain

type RotationStatus string

const (
	RotationDraft    RotationStatus = "draft"
	RotationActive   RotationStatus = "active"
	RotationArchived RotationStatus = "archived"
)

// ValidRotationStatuses is the canonical set of accepted rotation status strings.
var ValidRotationStatuses = map[string]bool{
	"draft": true, "active": true, "archived": true,
}

type CatalogFormat string

const (
	FormatYAML CatalogFormat = "yaml"
	FormatJSON CatalogFormat = "json"
)
