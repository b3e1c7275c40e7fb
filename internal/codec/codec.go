// Package codec derives parameter store keys and build overrides from a
// catalog entity, and correlates build records back to the entity that
// started them.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/savaki/entity-builder/internal/constants"
	"github.com/savaki/entity-builder/internal/models"
)

// Kind identifies which per-entity parameter a key refers to
type Kind string

const (
	KindBuildParameters Kind = constants.BuildParametersSuffix
	KindSourceConfig    Kind = constants.SourceConfigSuffix
)

// ParameterKey returns the parameter store key for the entity and kind
// Format: /entity-builder/{namespace}/{name}/{kind}
func ParameterKey(entity models.Entity, kind Kind) string {
	return fmt.Sprintf("%s/%s/%s/%s", constants.ParameterPrefix, entity.GetNamespace(), entity.Name, kind)
}

// DeploymentTarget returns the declared deployment target or the default target
func DeploymentTarget(annotations models.Annotations) string {
	if annotations.DeploymentTarget != "" {
		return annotations.DeploymentTarget
	}
	return constants.DefaultDeploymentTarget
}

// BuildspecLocation returns the buildspec the action should run with
func BuildspecLocation(annotations models.Annotations, action models.Action) string {
	if location := action.Buildspec(annotations); location != "" {
		return location
	}
	return action.DefaultBuildspecLocation()
}

// CorrelationEnvVar returns the environment variable that ties a build to its entity
func CorrelationEnvVar(entity models.Entity) types.EnvironmentVariable {
	return types.EnvironmentVariable{
		Name:  aws.String(constants.EntityUIDEnvironmentVariable),
		Value: aws.String(entity.UID),
		Type:  types.EnvironmentVariableTypePlaintext,
	}
}

// MatchesEntity reports whether the build was started on behalf of the entity.
// Any correlation variable carrying the entity uid matches, wherever it
// appears in the build environment.
func MatchesEntity(build types.Build, entity models.Entity) bool {
	if build.Environment == nil || entity.UID == "" {
		return false
	}
	for _, v := range build.Environment.EnvironmentVariables {
		if aws.ToString(v.Name) == constants.EntityUIDEnvironmentVariable && aws.ToString(v.Value) == entity.UID {
			return true
		}
	}
	return false
}

// SourceConfigFor derives the source config to persist from the entity annotations
func SourceConfigFor(annotations models.Annotations) models.SourceConfig {
	return models.SourceConfig{
		UseEntityAssets: annotations.AssetsStored,
	}
}

// EncodeBuildParameters serializes parameters as a JSON array, preserving order
func EncodeBuildParameters(params models.BuildParameters) (string, error) {
	if params == nil {
		params = models.BuildParameters{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode build parameters: %w", err)
	}
	return string(data), nil
}

// DecodeBuildParameters parses a value written by EncodeBuildParameters
// An empty value decodes to no parameters
func DecodeBuildParameters(value string) (models.BuildParameters, error) {
	if value == "" {
		return nil, nil
	}
	var params models.BuildParameters
	if err := json.Unmarshal([]byte(value), &params); err != nil {
		return nil, fmt.Errorf("failed to decode build parameters: %w", err)
	}
	return params, nil
}

// EncodeSourceConfig serializes the source config as JSON
func EncodeSourceConfig(config models.SourceConfig) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to encode source config: %w", err)
	}
	return string(data), nil
}

// DecodeSourceConfig parses a value written by EncodeSourceConfig
// An empty value decodes to the zero config
func DecodeSourceConfig(value string) (models.SourceConfig, error) {
	var config models.SourceConfig
	if value == "" {
		return config, nil
	}
	if err := json.Unmarshal([]byte(value), &config); err != nil {
		return models.SourceConfig{}, fmt.Errorf("failed to decode source config: %w", err)
	}
	return config, nil
}

// Overrides builds the environment variable overrides for a build start.
// Stored parameters come first in their stored order, then the source config,
// then the correlation variable. A stored parameter can never replace the
// correlation variable.
func Overrides(params models.BuildParameters, source *models.SourceConfig, entity models.Entity) []types.EnvironmentVariable {
	overrides := make([]types.EnvironmentVariable, 0, len(params)+2)
	for _, p := range params {
		if p.Name == constants.EntityUIDEnvironmentVariable {
			continue
		}
		overrides = append(overrides, plaintext(p.Name, p.Value))
	}
	if source != nil {
		overrides = append(overrides, plaintext(constants.UseEntityAssetsEnvironmentVariable, strconv.FormatBool(source.UseEntityAssets)))
	}
	return append(overrides, CorrelationEnvVar(entity))
}

func plaintext(name, value string) types.EnvironmentVariable {
	return types.EnvironmentVariable{
		Name:  aws.String(name),
		Value: aws.String(value),
		Type:  types.EnvironmentVariableTypePlaintext,
	}
}
