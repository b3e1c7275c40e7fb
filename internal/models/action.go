package models

import (
	"fmt"
	"strings"

	"github.com/savaki/entity-builder/internal/constants"
	apperrors "github.com/savaki/entity-builder/internal/errors"
)

// Action is a lifecycle action that can be run against an entity
type Action string

const (
	ActionDeploy   Action = "DEPLOY"
	ActionUpdate   Action = "UPDATE"
	ActionTeardown Action = "TEARDOWN"
)

// Actions lists every supported action
var Actions = []Action{ActionDeploy, ActionUpdate, ActionTeardown}

type actionSpec struct {
	annotation      string
	defaultLocation string
	buildspec       func(Annotations) string
}

var actionSpecs = map[Action]actionSpec{
	ActionDeploy: {
		annotation:      constants.DeployBuildspecAnnotation,
		defaultLocation: constants.DefaultDeployBuildspecLocation,
		buildspec:       func(a Annotations) string { return a.DeployBuildspec },
	},
	ActionUpdate: {
		annotation:      constants.UpdateBuildspecAnnotation,
		defaultLocation: constants.DefaultUpdateBuildspecLocation,
		buildspec:       func(a Annotations) string { return a.UpdateBuildspec },
	},
	ActionTeardown: {
		annotation:      constants.TeardownBuildspecAnnotation,
		defaultLocation: constants.DefaultTeardownBuildspecLocation,
		buildspec:       func(a Annotations) string { return a.TeardownBuildspec },
	},
}

// ParseAction converts a case-insensitive action name into an Action
func ParseAction(s string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := actionSpecs[action]; !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidAction, s)
	}
	return action, nil
}

// Valid reports whether a is one of the supported actions
func (a Action) Valid() bool {
	_, ok := actionSpecs[a]
	return ok
}

// BuildspecAnnotation returns the annotation that overrides the buildspec for this action
func (a Action) BuildspecAnnotation() string {
	return actionSpecs[a].annotation
}

// DefaultBuildspecLocation returns the buildspec used when the entity has no override
func (a Action) DefaultBuildspecLocation() string {
	return actionSpecs[a].defaultLocation
}

// Buildspec returns the configured override from the annotations, or "" if none
func (a Action) Buildspec(annotations Annotations) string {
	spec, ok := actionSpecs[a]
	if !ok {
		return ""
	}
	return spec.buildspec(annotations)
}

func (a Action) String() string {
	return string(a)
}
