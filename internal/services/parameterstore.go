package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/constants"
	apperrors "github.com/savaki/entity-builder/internal/errors"
)

// Config holds the service configuration loaded from Parameter Store
type Config struct {
	// DefaultProjectArn is the CodeBuild project used by the default deployment target
	DefaultProjectArn string
	// TargetProjectArns maps a deployment target to its CodeBuild project
	TargetProjectArns map[string]string
	// HistoryTable optionally names the DynamoDB table that records lifecycle actions
	HistoryTable string
	// StrictWrites surfaces parameter write failures instead of starting the build anyway
	StrictWrites bool
}

// ProjectArn resolves the project configured for a deployment target
func (c *Config) ProjectArn(target string) (string, bool) {
	if arn, ok := c.TargetProjectArns[target]; ok && arn != "" {
		return arn, true
	}
	if target == constants.DefaultDeploymentTarget && c.DefaultProjectArn != "" {
		return c.DefaultProjectArn, true
	}
	return "", false
}

// ParameterStore defines the interface for per-entity parameters and service configuration
type ParameterStore interface {
	// GetParameter retrieves a single parameter by name
	GetParameter(ctx context.Context, name string) (string, error)

	// PutParameter creates or overwrites a parameter and returns its new version
	PutParameter(ctx context.Context, name, value string) (int64, error)

	// GetConfig loads the service configuration
	GetConfig(ctx context.Context) (*Config, error)
}

// SSMAPI is the subset of the SSM client used by SSMParameterStore
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMParameterStore implements ParameterStore using AWS Systems Manager Parameter Store
type SSMParameterStore struct {
	client SSMAPI
	env    string
}

// NewSSMParameterStore creates a new SSM-backed parameter store
func NewSSMParameterStore(client SSMAPI, env string) *SSMParameterStore {
	return &SSMParameterStore{
		client: client,
		env:    env,
	}
}

// GetParameter retrieves a single parameter from SSM Parameter Store
func (s *SSMParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrParameterNotFound, name)
		}
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrParameterNotFound, name)
	}

	return *result.Parameter.Value, nil
}

// PutParameter writes a parameter to SSM Parameter Store, overwriting any existing value
func (s *SSMParameterStore) PutParameter(ctx context.Context, name, value string) (int64, error) {
	result, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put parameter %s: %w", name, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("name", name).
		Int64("version", result.Version).
		Msg("Parameter written")

	return result.Version, nil
}

// GetConfig loads the service configuration from /{env}/entity-builder
func (s *SSMParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	path := fmt.Sprintf("/%s/entity-builder", s.env)

	params := make(map[string]string)
	var nextToken *string
	for {
		result, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(path),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get parameters by path %s: %w", path, err)
		}

		for _, param := range result.Parameters {
			if param.Name != nil && param.Value != nil {
				params[strings.TrimPrefix(*param.Name, path+"/")] = *param.Value
			}
		}

		if aws.ToString(result.NextToken) == "" {
			break
		}
		nextToken = result.NextToken
	}

	return parseConfig(params), nil
}

// parseConfig builds a Config from parameter names relative to the config path
//
//	project-arn                    default target project
//	targets/{target}/project-arn   per-target project
//	history-table                  action history table
//	strict-writes                  "true" to surface write failures
func parseConfig(params map[string]string) *Config {
	config := &Config{
		DefaultProjectArn: params["project-arn"],
		TargetProjectArns: map[string]string{},
		HistoryTable:      params["history-table"],
	}
	config.StrictWrites, _ = strconv.ParseBool(params["strict-writes"])

	for name, value := range params {
		parts := strings.Split(name, "/")
		if len(parts) == 3 && parts[0] == "targets" && parts[2] == "project-arn" {
			config.TargetProjectArns[parts[1]] = value
		}
	}

	return config
}

// LocalParameterStore implements ParameterStore in memory with configuration
// read from environment variables. It is used for local development without
// an AWS connection.
type LocalParameterStore struct {
	mu       sync.RWMutex
	values   map[string]string
	versions map[string]int64
}

// NewLocalParameterStore creates a new in-memory parameter store
func NewLocalParameterStore() *LocalParameterStore {
	return &LocalParameterStore{
		values:   map[string]string{},
		versions: map[string]int64{},
	}
}

// GetParameter retrieves a parameter previously written with PutParameter
func (l *LocalParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	value, ok := l.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrParameterNotFound, name)
	}
	return value, nil
}

// PutParameter stores a parameter in memory
func (l *LocalParameterStore) PutParameter(ctx context.Context, name, value string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.values[name] = value
	l.versions[name]++
	return l.versions[name], nil
}

// GetConfig loads the service configuration from environment variables
// TARGET_PROJECT_ARNS is a comma-separated list of target=arn pairs
func (l *LocalParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	params := map[string]string{
		"project-arn":   os.Getenv("PROJECT_ARN"),
		"history-table": os.Getenv("HISTORY_TABLE"),
		"strict-writes": os.Getenv("STRICT_WRITES"),
	}

	for _, pair := range strings.Split(os.Getenv("TARGET_PROJECT_ARNS"), ",") {
		target, arn, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || target == "" {
			continue
		}
		params["targets/"+target+"/project-arn"] = arn
	}

	return parseConfig(params), nil
}
