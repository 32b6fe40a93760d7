package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadFile reads a catalog from a YAML file containing a `books` list.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var doc struct {
		Books []Item `yaml:"books"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	return Catalog(doc.Books), nil
}
