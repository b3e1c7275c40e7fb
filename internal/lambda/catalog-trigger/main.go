package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/di"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

const (
	// DetailTypeEntityCreated is published by the catalog when a component is registered
	DetailTypeEntityCreated = "Entity Created"
	// DetailTypeBuildRequested is published when a user asks for a lifecycle action
	DetailTypeBuildRequested = "Entity Build Requested"
)

// Starter starts lifecycle builds
type Starter interface {
	StartBuild(ctx context.Context, input orchestrator.StartBuildInput) (types.Build, error)
}

// EntityCreatedDetail is the detail of an Entity Created event
type EntityCreatedDetail struct {
	Entity models.Entity `json:"entity"`
}

// BuildRequestedDetail is the detail of an Entity Build Requested event
type BuildRequestedDetail struct {
	Entity          models.Entity          `json:"entity"`
	Action          string                 `json:"action"`
	BuildParameters models.BuildParameters `json:"buildParameters,omitempty"`
}

type Handler struct {
	starter Starter
}

func NewHandler(starter Starter) *Handler {
	return &Handler{starter: starter}
}

// HandleEvent routes catalog events by detail type
func (h *Handler) HandleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	logger := zerolog.Ctx(ctx)

	switch event.DetailType {
	case DetailTypeEntityCreated:
		var detail EntityCreatedDetail
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			return fmt.Errorf("failed to decode %s detail: %w", event.DetailType, err)
		}
		return h.handleEntityCreated(ctx, detail)

	case DetailTypeBuildRequested:
		var detail BuildRequestedDetail
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			return fmt.Errorf("failed to decode %s detail: %w", event.DetailType, err)
		}
		return h.handleBuildRequested(ctx, detail)

	default:
		logger.Info().
			Str("event_id", event.ID).
			Str("detail_type", event.DetailType).
			Msg("Skipping unsupported event")
		return nil
	}
}

func (h *Handler) handleEntityCreated(ctx context.Context, detail EntityCreatedDetail) error {
	logger := zerolog.Ctx(ctx)
	entity := detail.Entity

	annotations, err := entity.ParseAnnotations()
	if err != nil {
		return err
	}
	if !annotations.DeployOnCreate {
		logger.Info().
			Str("entity", entity.Ref()).
			Msg("Entity does not deploy on create")
		return nil
	}

	return h.start(ctx, orchestrator.StartBuildInput{
		Entity: entity,
		Action: models.ActionDeploy,
	})
}

func (h *Handler) handleBuildRequested(ctx context.Context, detail BuildRequestedDetail) error {
	action, err := models.ParseAction(detail.Action)
	if err != nil {
		return err
	}

	return h.start(ctx, orchestrator.StartBuildInput{
		Entity:          detail.Entity,
		Action:          action,
		BuildParameters: detail.BuildParameters,
	})
}

func (h *Handler) start(ctx context.Context, input orchestrator.StartBuildInput) error {
	logger := zerolog.Ctx(ctx)

	build, err := h.starter.StartBuild(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to start %s build for %s: %w", input.Action, input.Entity.Ref(), err)
	}

	logger.Info().
		Str("entity_uid", input.Entity.UID).
		Str("entity", input.Entity.Ref()).
		Str("action", input.Action.String()).
		Str("build_id", aws.ToString(build.Id)).
		Msg("Started build")

	return nil
}

func newHandler(ctx context.Context, env string) (*Handler, error) {
	container, err := di.New(env, di.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create DI container: %w", err)
	}

	o, err := di.Get[*orchestrator.Orchestrator](container)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return NewHandler(o), nil
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "catalog-trigger").Logger()
	ctx := logger.WithContext(context.Background())

	env := os.Getenv("ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		logger.Error().Msg("ENV or ENVIRONMENT variable is required")
		os.Exit(1)
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		handler, err := newHandler(ctx, env)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create handler")
			os.Exit(1)
		}

		wrappedHandler := func(ctx context.Context, event events.CloudWatchEvent) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleEvent(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	// CLI mode replays a single event from a file
	app := &cli.App{
		Name:  "catalog-trigger",
		Usage: "Start entity builds from catalog EventBridge events",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "event-file",
				Usage:    "Path to an EventBridge event JSON document",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "disable-ssm",
				Usage:   "Disable AWS Systems Manager Parameter Store (use environment variables)",
				EnvVars: []string{"DISABLE_SSM"},
			},
		},
		Action: func(c *cli.Context) error {
			data, err := os.ReadFile(c.String("event-file"))
			if err != nil {
				return fmt.Errorf("failed to read event file: %w", err)
			}

			var event events.CloudWatchEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("failed to decode event: %w", err)
			}

			handler, err := newHandler(c.Context, env)
			if err != nil {
				return err
			}
			return handler.HandleEvent(c.Context, event)
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
