package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned when a catalog file extension is neither
// YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// CatalogSchema is the top-level structure of a crop catalog file.
type CatalogSchema struct {
	Crops []CropImport `json:"crops" yaml:"crops"`
}

// CropImport defines one crop in the catalog file. Nitrogen amounts are
// required; the remaining pointer fields fall back to defaults.
type CropImport struct {
	Name           string   `json:"name" yaml:"name"`
	NitrogenSupply *float64 `json:"nitrogen_supply" yaml:"nitrogen_supply"`
	NitrogenDemand *float64 `json:"nitrogen_demand" yaml:"nitrogen_demand"`
	NoRepeatYears  *int     `json:"no_repeat_years,omitempty" yaml:"no_repeat_years,omitempty"`
	Pests          []string `json:"pests,omitempty" yaml:"pests,omitempty"`
	Diseases       []string `json:"diseases,omitempty" yaml:"diseases,omitempty"`
}

// DetectFormat maps a file extension to a catalog format.
func DetectFormat(path string) (domain.CatalogFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return domain.FormatYAML, nil
	case ".json":
		return domain.FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .yaml, .yml or .json)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadCatalog reads and parses a crop catalog file, picking the decoder from
// the file extension.
func LoadCatalog(path string) (*CatalogSchema, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, format)
}

// Parse decodes catalog bytes. Unknown fields are rejected so typos in
// nitrogen keys do not silently default to zero.
func Parse(data []byte, format domain.CatalogFormat) (*CatalogSchema, error) {
	var schema CatalogSchema
	switch format {
	case domain.FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&schema); err != nil {
			return nil, fmt.Errorf("parsing catalog yaml: %w", err)
		}
	case domain.FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&schema); err != nil {
			return nil, fmt.Errorf("parsing catalog json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &schema, nil
}

// Encode renders crops as a catalog document. The output parses back with
// Parse into an equivalent schema.
func Encode(crops []*domain.Crop, format domain.CatalogFormat) ([]byte, error) {
	schema := CatalogSchema{Crops: make([]CropImport, 0, len(crops))}
	for _, c := range crops {
		supply, demand, noRepeat := c.NitrogenSupply, c.NitrogenDemand, c.NoRepeatYears
		schema.Crops = append(schema.Crops, CropImport{
			Name:           c.Name,
			NitrogenSupply: &supply,
			NitrogenDemand: &demand,
			NoRepeatYears:  &noRepeat,
			Pests:          c.Pests,
			Diseases:       c.Diseases,
		})
	}
	switch format {
	case domain.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(schema); err != nil {
			return nil, fmt.Errorf("encoding catalog yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding catalog yaml: %w", err)
		}
		return buf.Bytes(), nil
	case domain.FormatJSON:
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding catalog json: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
