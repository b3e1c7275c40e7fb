package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/codec"
	apperrors "github.com/savaki/entity-builder/internal/errors"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/entity-builder/internal/services"
)

// ParameterStore is the parameter store capability the orchestrator needs
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value string) (int64, error)
}

// BuildBackend is the build runner capability the orchestrator needs
type BuildBackend interface {
	GetProjectByArn(ctx context.Context, projectArn string) (types.Project, error)
	StartBuild(ctx context.Context, input services.StartBuildInput) (types.Build, error)
	ListBuildIDsForProject(ctx context.Context, projectArn string) ([]string, error)
	BatchGetBuilds(ctx context.Context, ids []string) ([]types.Build, error)
}

// ProjectResolver maps a deployment target to a build project ARN
type ProjectResolver interface {
	ProjectArn(target string) (string, bool)
}

// Recorder is notified of every build the orchestrator starts
type Recorder interface {
	RecordBuild(ctx context.Context, input RecordInput) error
}

// RecordInput describes a started build
type RecordInput struct {
	Entity   models.Entity
	Action   models.Action
	BuildID  string
	BuildArn string
}

// StartBuildInput requests a lifecycle build for an entity
type StartBuildInput struct {
	Entity models.Entity
	Action models.Action
	// BuildParameters are persisted before the build starts when non-nil
	BuildParameters models.BuildParameters
}

// Orchestrator starts and lists the builds that deploy, update and tear down catalog entities
type Orchestrator struct {
	store        ParameterStore
	backend      BuildBackend
	projects     ProjectResolver
	recorder     Recorder
	strictWrites bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRecorder records every started build
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithStrictWrites fails StartBuild when persisting build parameters fails.
// By default the failure is logged and the build starts with whatever the
// parameter store holds.
func WithStrictWrites(strict bool) Option {
	return func(o *Orchestrator) {
		o.strictWrites = strict
	}
}

// New creates a new Orchestrator instance
func New(store ParameterStore, backend BuildBackend, projects ProjectResolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		backend:  backend,
		projects: projects,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// resolveProjectArn returns the project configured for the entity's deployment target
func (o *Orchestrator) resolveProjectArn(entity models.Entity) (models.Annotations, string, error) {
	if err := entity.Validate(); err != nil {
		return models.Annotations{}, "", err
	}

	annotations, err := entity.ParseAnnotations()
	if err != nil {
		return models.Annotations{}, "", err
	}

	target := codec.DeploymentTarget(annotations)
	projectArn, ok := o.projects.ProjectArn(target)
	if !ok {
		return annotations, "", fmt.Errorf("%w: %s", apperrors.ErrNoProjectConfigured, target)
	}

	return annotations, projectArn, nil
}

// GetProject returns the build project for the entity, or nil if the entity's
// deployment target has no configured project or the project does not exist
func (o *Orchestrator) GetProject(ctx context.Context, entity models.Entity) (*types.Project, error) {
	logger := zerolog.Ctx(ctx)

	_, projectArn, err := o.resolveProjectArn(entity)
	if errors.Is(err, apperrors.ErrNoProjectConfigured) {
		logger.Debug().Err(err).Str("entity", entity.Ref()).Msg("No project configured")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	project, err := o.backend.GetProjectByArn(ctx, projectArn)
	if errors.Is(err, apperrors.ErrProjectNotFound) {
		logger.Debug().Str("project_arn", projectArn).Msg("Project not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &project, nil
}

// GetBuilds returns the builds started for the entity in the order the
// backend returns them. The project may be shared by many entities, so
// builds are matched on their correlation variable. An entity whose target
// has no configured project has no builds.
func (o *Orchestrator) GetBuilds(ctx context.Context, entity models.Entity) ([]types.Build, error) {
	_, projectArn, err := o.resolveProjectArn(entity)
	if errors.Is(err, apperrors.ErrNoProjectConfigured) {
		zerolog.Ctx(ctx).Debug().Err(err).Str("entity", entity.Ref()).Msg("No project configured")
		return []types.Build{}, nil
	}
	if err != nil {
		return nil, err
	}

	ids, err := o.backend.ListBuildIDsForProject(ctx, projectArn)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []types.Build{}, nil
	}

	builds, err := o.backend.BatchGetBuilds(ctx, ids)
	if err != nil {
		return nil, err
	}

	matched := make([]types.Build, 0, len(builds))
	for _, build := range builds {
		if codec.MatchesEntity(build, entity) {
			matched = append(matched, build)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("entity", entity.Ref()).
		Int("listed", len(ids)).
		Int("matched", len(matched)).
		Msg("Filtered builds for entity")

	return matched, nil
}

// StartBuild persists any supplied build parameters, then starts a build of
// the entity's project with the stored parameters, the source config and the
// correlation variable as environment overrides.
//
// Parameter store writes are not atomic with each other or with the build
// start. Writes always happen before the build starts so the build reads the
// state it was started with.
func (o *Orchestrator) StartBuild(ctx context.Context, input StartBuildInput) (types.Build, error) {
	entity := input.Entity
	logger := zerolog.Ctx(ctx).With().
		Str("entity", entity.Ref()).
		Str("entity_uid", entity.UID).
		Str("action", input.Action.String()).
		Logger()

	if !input.Action.Valid() {
		return types.Build{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidAction, input.Action)
	}

	annotations, projectArn, err := o.resolveProjectArn(entity)
	if err != nil {
		return types.Build{}, err
	}

	if input.BuildParameters != nil {
		if err := o.writeParameters(ctx, entity, annotations, input.BuildParameters); err != nil {
			if o.strictWrites {
				return types.Build{}, err
			}
			logger.Warn().Err(err).Msg("Failed to persist build parameters, starting build with stored parameters")
		}
	}

	params, err := o.readBuildParameters(ctx, entity)
	if err != nil {
		return types.Build{}, err
	}

	source, err := o.readSourceConfig(ctx, entity)
	if err != nil {
		return types.Build{}, err
	}

	build, err := o.backend.StartBuild(ctx, services.StartBuildInput{
		ProjectArn:           projectArn,
		BuildspecOverride:    codec.BuildspecLocation(annotations, input.Action),
		EnvironmentVariables: codec.Overrides(params, source, entity),
	})
	if err != nil {
		return types.Build{}, err
	}

	logger.Info().
		Str("project_arn", projectArn).
		Str("build_id", aws.ToString(build.Id)).
		Msg("Started entity build")

	if o.recorder != nil {
		if err := o.recorder.RecordBuild(ctx, RecordInput{
			Entity:   entity,
			Action:   input.Action,
			BuildID:  aws.ToString(build.Id),
			BuildArn: aws.ToString(build.Arn),
		}); err != nil {
			logger.Warn().Err(err).Msg("Failed to record build")
		}
	}

	return build, nil
}

// GetBuildParameters returns the build parameters stored for the entity
func (o *Orchestrator) GetBuildParameters(ctx context.Context, entity models.Entity) (models.BuildParameters, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	return o.readBuildParameters(ctx, entity)
}

// writeParameters stores the build parameters and source config. Both writes
// are attempted; a failure of one does not undo the other.
func (o *Orchestrator) writeParameters(ctx context.Context, entity models.Entity, annotations models.Annotations, params models.BuildParameters) error {
	encodedParams, err := codec.EncodeBuildParameters(params)
	if err != nil {
		return err
	}
	encodedSource, err := codec.EncodeSourceConfig(codec.SourceConfigFor(annotations))
	if err != nil {
		return err
	}

	_, paramsErr := o.store.PutParameter(ctx, codec.ParameterKey(entity, codec.KindBuildParameters), encodedParams)
	_, sourceErr := o.store.PutParameter(ctx, codec.ParameterKey(entity, codec.KindSourceConfig), encodedSource)

	return errors.Join(paramsErr, sourceErr)
}

func (o *Orchestrator) readBuildParameters(ctx context.Context, entity models.Entity) (models.BuildParameters, error) {
	value, err := o.store.GetParameter(ctx, codec.ParameterKey(entity, codec.KindBuildParameters))
	if errors.Is(err, apperrors.ErrParameterNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeBuildParameters(value)
}

func (o *Orchestrator) readSourceConfig(ctx context.Context, entity models.Entity) (*models.SourceConfig, error) {
	value, err := o.store.GetParameter(ctx, codec.ParameterKey(entity, codec.KindSourceConfig))
	if errors.Is(err, apperrors.ErrParameterNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	source, err := codec.DecodeSourceConfig(value)
	if err != nil {
		return nil, err
	}
	return &source, nil
}
