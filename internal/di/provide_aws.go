package di

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/savaki/entity-builder/internal/dao/actiondao"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/savaki/entity-builder/internal/services"
)

// ProvideAWSConfig loads the default AWS config, assuming roleArn when set
func ProvideAWSConfig(ctx context.Context, roleArn RoleArn) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, err
	}

	if roleArn != "" {
		zerolog.Ctx(ctx).Info().Str("role_arn", string(roleArn)).Msg("Assuming role for AWS clients")
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), string(roleArn))
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	return cfg, nil
}

func ProvideCodeBuild(config aws.Config) *services.CodeBuildService {
	return services.NewCodeBuildService(codebuild.NewFromConfig(config))
}

func ProvideCloudFormation(config aws.Config) *services.StackService {
	return services.NewStackService(cloudformation.NewFromConfig(config))
}

func ProvideDynamoDB(config aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(config)
}

// ProvideHistoryDAO returns the action history DAO, or nil when no history
// table is configured
func ProvideHistoryDAO(ctx context.Context, client *dynamodb.Client, config *services.Config) *actiondao.DAO {
	if config.HistoryTable == "" || os.Getenv("DISABLE_HISTORY") == "true" {
		zerolog.Ctx(ctx).Debug().Msg("Action history disabled")
		return nil
	}
	return actiondao.New(client, config.HistoryTable)
}

func ProvideOrchestrator(store services.ParameterStore, codeBuild *services.CodeBuildService, config *services.Config, history *actiondao.DAO) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithStrictWrites(config.StrictWrites),
	}
	if history != nil {
		opts = append(opts, orchestrator.WithRecorder(history))
	}
	return orchestrator.New(store, codeBuild, config, opts...)
}
