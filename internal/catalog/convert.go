package catalog

import (
	"strings"
	"time"

	"github.com/alexanderramin/fallow/internal/domain"
	"github.com/google/uuid"
)

// DefaultNoRepeatYears applies when a catalog crop omits no_repeat_years.
const DefaultNoRepeatYears = 1

// Convert turns a validated schema into domain crops with fresh IDs.
// Call ValidateCatalog first; Convert assumes the schema is valid.
func Convert(schema *CatalogSchema) []*domain.Crop {
	now := time.Now().UTC()
	crops := make([]*domain.Crop, 0, len(schema.Crops))
	for _, c := range schema.Crops {
		crops = append(crops, &domain.Crop{
			ID:             uuid.New().String(),
			Name:           strings.TrimSpace(c.Name),
			NitrogenSupply: *c.NitrogenSupply,
			NitrogenDemand: *c.NitrogenDemand,
			NoRepeatYears:  domain.ValueOr(DefaultNoRepeatYears, c.NoRepeatYears),
			Pests:          trimLabels(c.Pests),
			Diseases:       trimLabels(c.Diseases),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return crops
}

func trimLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
