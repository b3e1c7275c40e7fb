// Package catalog reads catalog descriptor files into entities.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/savaki/entity-builder/internal/errors"
	"github.com/savaki/entity-builder/internal/models"
	"gopkg.in/yaml.v3"
)

// descriptor is the subset of a catalog-info.yaml document used here
type descriptor struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Metadata   struct {
		UID         string            `yaml:"uid"`
		Name        string            `yaml:"name"`
		Namespace   string            `yaml:"namespace"`
		Annotations map[string]string `yaml:"annotations"`
	} `yaml:"metadata"`
}

// ReadEntity returns the first Component in a catalog-info.yaml stream.
// Documents of other kinds are skipped.
func ReadEntity(r io.Reader) (models.Entity, error) {
	decoder := yaml.NewDecoder(r)
	for {
		var doc descriptor
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return models.Entity{}, fmt.Errorf("%w: no Component found", apperrors.ErrInvalidEntity)
		}
		if err != nil {
			return models.Entity{}, fmt.Errorf("failed to parse catalog descriptor: %w", err)
		}

		if !strings.EqualFold(doc.Kind, "Component") {
			continue
		}

		return models.Entity{
			UID:         doc.Metadata.UID,
			Namespace:   doc.Metadata.Namespace,
			Name:        doc.Metadata.Name,
			Annotations: doc.Metadata.Annotations,
		}, nil
	}
}

// LoadEntity reads the first Component from a catalog-info.yaml file
func LoadEntity(path string) (models.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Entity{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadEntity(f)
}

// ReadBuildParameters reads an ordered list of name/value pairs
//
//	- name: MODULE_STACK_NAME
//	  value: acdp-cms-sample
func ReadBuildParameters(r io.Reader) (models.BuildParameters, error) {
	var params models.BuildParameters
	if err := yaml.NewDecoder(r).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse build parameters: %w", err)
	}
	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("build parameter %d has no name", i)
		}
	}
	if params == nil {
		params = models.BuildParameters{}
	}
	return params, nil
}

// LoadBuildParameters reads build parameters from a YAML file
func LoadBuildParameters(path string) (models.BuildParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadBuildParameters(f)
}

// ParseBuildParameters parses NAME=VALUE pairs, keeping their order
func ParseBuildParameters(pairs []string) (models.BuildParameters, error) {
	params := make(models.BuildParameters, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid build parameter %q, expected NAME=VALUE", pair)
		}
		params = append(params, models.BuildParameter{Name: strings.TrimSpace(name), Value: value})
	}
	return params, nil
}
