package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/savaki/entity-builder/internal/constants"
	apperrors "github.com/savaki/entity-builder/internal/errors"
)

// DefaultNamespace is assumed when an entity does not declare one
const DefaultNamespace = "default"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Entity is the read-only view of a catalog component needed to drive its builds
type Entity struct {
	UID         string            `json:"uid" yaml:"uid"`
	Namespace   string            `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name        string            `json:"name" yaml:"name"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// GetNamespace returns the entity namespace, falling back to DefaultNamespace
func (e Entity) GetNamespace() string {
	if e.Namespace == "" {
		return DefaultNamespace
	}
	return e.Namespace
}

// Ref returns the entity reference in {namespace}/{name} form
func (e Entity) Ref() string {
	return e.GetNamespace() + "/" + e.Name
}

// Validate ensures the entity identity can be used to derive parameter keys
// and correlation tags
func (e Entity) Validate() error {
	if e.UID == "" {
		return fmt.Errorf("%w: uid is required", apperrors.ErrInvalidEntity)
	}
	if !namePattern.MatchString(e.GetNamespace()) {
		return fmt.Errorf("%w: invalid namespace %q", apperrors.ErrInvalidEntity, e.Namespace)
	}
	if !namePattern.MatchString(e.Name) {
		return fmt.Errorf("%w: invalid name %q", apperrors.ErrInvalidEntity, e.Name)
	}
	return nil
}

// Annotations is the typed view of the annotations this service recognizes
type Annotations struct {
	DeployOnCreate    bool
	DeploymentTarget  string
	DeployBuildspec   string
	UpdateBuildspec   string
	TeardownBuildspec string
	AssetsRef         string
	AssetsStored      bool
}

// ParseAnnotations validates the entity annotations and returns their typed form
func (e Entity) ParseAnnotations() (Annotations, error) {
	get := func(key string) string {
		return strings.TrimSpace(e.Annotations[key])
	}

	deployOnCreate, err := parseBool(constants.DeployOnCreateAnnotation, get(constants.DeployOnCreateAnnotation))
	if err != nil {
		return Annotations{}, err
	}
	assetsStored, err := parseBool(constants.AssetsStoredAnnotation, get(constants.AssetsStoredAnnotation))
	if err != nil {
		return Annotations{}, err
	}

	return Annotations{
		DeployOnCreate:    deployOnCreate,
		DeploymentTarget:  get(constants.DeploymentTargetAnnotation),
		DeployBuildspec:   get(constants.DeployBuildspecAnnotation),
		UpdateBuildspec:   get(constants.UpdateBuildspecAnnotation),
		TeardownBuildspec: get(constants.TeardownBuildspecAnnotation),
		AssetsRef:         get(constants.AssetsRefAnnotation),
		AssetsStored:      assetsStored,
	}, nil
}

func parseBool(key, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: annotation %s must be a boolean, got %q", apperrors.ErrInvalidEntity, key, value)
	}
	return b, nil
}
