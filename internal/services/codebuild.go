package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/rs/zerolog"
	apperrors "github.com/savaki/entity-builder/internal/errors"
)

// maxBatchGetBuilds is the number of ids CodeBuild accepts per BatchGetBuilds call
const maxBatchGetBuilds = 100

// CodeBuildAPI is the subset of the CodeBuild client used by CodeBuildService
type CodeBuildAPI interface {
	BatchGetProjects(ctx context.Context, params *codebuild.BatchGetProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetProjectsOutput, error)
	StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
	ListBuildsForProject(ctx context.Context, params *codebuild.ListBuildsForProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.ListBuildsForProjectOutput, error)
	BatchGetBuilds(ctx context.Context, params *codebuild.BatchGetBuildsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetBuildsOutput, error)
}

// StartBuildInput contains the overrides applied to a single build
type StartBuildInput struct {
	ProjectArn           string
	BuildspecOverride    string
	EnvironmentVariables []types.EnvironmentVariable
}

// CodeBuildService starts and reads builds of CodeBuild projects
type CodeBuildService struct {
	client CodeBuildAPI
}

// NewCodeBuildService creates a new CodeBuildService
func NewCodeBuildService(client CodeBuildAPI) *CodeBuildService {
	return &CodeBuildService{client: client}
}

// ProjectName extracts the project name from a CodeBuild project ARN
// Example: arn:aws:codebuild:us-west-2:111111111111:project/my-project => my-project
func ProjectName(projectArn string) (string, error) {
	parsed, err := arn.Parse(projectArn)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidProjectArn, projectArn, err)
	}
	if parsed.Service != "codebuild" {
		return "", fmt.Errorf("%w: %s: expected codebuild service", apperrors.ErrInvalidProjectArn, projectArn)
	}

	name, ok := strings.CutPrefix(parsed.Resource, "project/")
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %s: expected project/{name} resource", apperrors.ErrInvalidProjectArn, projectArn)
	}
	return name, nil
}

// GetProjectByArn returns the project with the given ARN
func (s *CodeBuildService) GetProjectByArn(ctx context.Context, projectArn string) (types.Project, error) {
	result, err := s.client.BatchGetProjects(ctx, &codebuild.BatchGetProjectsInput{
		Names: []string{projectArn},
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return types.Project{}, fmt.Errorf("%w: %s", apperrors.ErrProjectNotFound, projectArn)
		}
		return types.Project{}, fmt.Errorf("failed to get project %s: %w", projectArn, err)
	}

	if len(result.Projects) == 0 {
		return types.Project{}, fmt.Errorf("%w: %s", apperrors.ErrProjectNotFound, projectArn)
	}

	return result.Projects[0], nil
}

// StartBuild starts a build of the project with the given overrides
func (s *CodeBuildService) StartBuild(ctx context.Context, input StartBuildInput) (types.Build, error) {
	projectName, err := ProjectName(input.ProjectArn)
	if err != nil {
		return types.Build{}, err
	}

	params := &codebuild.StartBuildInput{
		ProjectName:                  aws.String(projectName),
		EnvironmentVariablesOverride: input.EnvironmentVariables,
	}
	if input.BuildspecOverride != "" {
		params.BuildspecOverride = aws.String(input.BuildspecOverride)
	}

	result, err := s.client.StartBuild(ctx, params)
	if err != nil {
		return types.Build{}, fmt.Errorf("failed to start build for project %s: %w", projectName, err)
	}
	if result.Build == nil {
		return types.Build{}, fmt.Errorf("failed to start build for project %s: empty response", projectName)
	}

	zerolog.Ctx(ctx).Info().
		Str("project", projectName).
		Str("build_id", aws.ToString(result.Build.Id)).
		Msg("Started CodeBuild build")

	return *result.Build, nil
}

// ListBuildIDsForProject returns the ids of every build of the project
func (s *CodeBuildService) ListBuildIDsForProject(ctx context.Context, projectArn string) ([]string, error) {
	projectName, err := ProjectName(projectArn)
	if err != nil {
		return nil, err
	}

	var ids []string
	var nextToken *string
	for {
		result, err := s.client.ListBuildsForProject(ctx, &codebuild.ListBuildsForProjectInput{
			ProjectName: aws.String(projectName),
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list builds for project %s: %w", projectName, err)
		}

		ids = append(ids, result.Ids...)

		if aws.ToString(result.NextToken) == "" {
			break
		}
		nextToken = result.NextToken
	}

	return ids, nil
}

// BatchGetBuilds returns the builds with the given ids in the order CodeBuild
// returns them. Ids that CodeBuild cannot resolve are omitted.
func (s *CodeBuildService) BatchGetBuilds(ctx context.Context, ids []string) ([]types.Build, error) {
	var builds []types.Build
	for start := 0; start < len(ids); start += maxBatchGetBuilds {
		end := min(start+maxBatchGetBuilds, len(ids))

		result, err := s.client.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{
			Ids: ids[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get builds: %w", err)
		}

		if len(result.BuildsNotFound) > 0 {
			zerolog.Ctx(ctx).Debug().
				Strs("build_ids", result.BuildsNotFound).
				Msg("Builds not found")
		}

		builds = append(builds, result.Builds...)
	}

	return builds, nil
}
