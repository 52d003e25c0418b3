package catalog

import (
	"fmt"
	"math"
	"strings"
)

// ValidateCatalog checks the schema before conversion and returns every
// problem found, not just the first.
func ValidateCatalog(schema *CatalogSchema) []error {
	var errs []error

	if len(schema.Crops) == 0 {
		errs = append(errs, fmt.Errorf("crops: at least one crop is required"))
	}

	names := make(map[string]int)
	for i, c := range schema.Crops {
		prefix := fmt.Sprintf("crops[%d]", i)

		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if first, dup := names[strings.ToLower(name)]; dup {
			errs = append(errs, fmt.Errorf("%s.name: duplicate crop %q (first at crops[%d])", prefix, c.Name, first))
		} else {
			names[strings.ToLower(name)] = i
		}

		errs = append(errs, validateAmount(prefix+".nitrogen_supply", c.NitrogenSupply)...)
		errs = append(errs, validateAmount(prefix+".nitrogen_demand", c.NitrogenDemand)...)

		if c.NoRepeatYears != nil && *c.NoRepeatYears < 0 {
			errs = append(errs, fmt.Errorf("%s.no_repeat_years must be >= 0, got %d", prefix, *c.NoRepeatYears))
		}
		errs = append(errs, validateLabels(prefix+".pests", c.Pests)...)
		errs = append(errs, validateLabels(prefix+".diseases", c.Diseases)...)
	}

	return errs
}

func validateAmount(field string, v *float64) []error {
	if v == nil {
		return []error{fmt.Errorf("%s is required", field)}
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return []error{fmt.Errorf("%s must be a finite number", field)}
	}
	if *v < 0 {
		return []error{fmt.Errorf("%s must be >= 0, got %g", field, *v)}
	}
	return nil
}

func validateLabels(field string, labels []string) []error {
	var errs []error
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			errs = append(errs, fmt.Errorf("%s[%d] is empty", field, i))
		}
	}
	return errs
}
