package constants

// Catalog annotations recognized on component entities
const (
	// DeployOnCreateAnnotation requests a DEPLOY build as soon as the entity is registered
	DeployOnCreateAnnotation = "aws.amazon.com/acdp-deploy-on-create"

	// DeploymentTargetAnnotation selects which configured build project applies
	DeploymentTargetAnnotation = "aws.amazon.com/acdp-deployment-target"

	DeployBuildspecAnnotation   = "aws.amazon.com/acdp-deploy-buildspec"
	UpdateBuildspecAnnotation   = "aws.amazon.com/acdp-update-buildspec"
	TeardownBuildspecAnnotation = "aws.amazon.com/acdp-teardown-buildspec"

	// AssetsRefAnnotation points at the entity's own asset bundle
	AssetsRefAnnotation = "aws.amazon.com/acdp-assets-ref"

	// AssetsStoredAnnotation marks that deployment assets come from the entity's asset bundle
	AssetsStoredAnnotation = "aws.amazon.com/acdp-assets-stored"
)

// DefaultDeploymentTarget is used when an entity does not declare a deployment target
const DefaultDeploymentTarget = "default"

// Buildspec locations used when the entity does not override them
const (
	DefaultDeployBuildspecLocation   = "dir:./.acdp/deploy.buildspec.yaml"
	DefaultUpdateBuildspecLocation   = "dir:./.acdp/update.buildspec.yaml"
	DefaultTeardownBuildspecLocation = "dir:./.acdp/teardown.buildspec.yaml"
)

// Build environment variables
const (
	// EntityUIDEnvironmentVariable carries the owning entity's uid in every started build
	EntityUIDEnvironmentVariable = "BACKSTAGE_ENTITY_UID"

	// UseEntityAssetsEnvironmentVariable mirrors the stored source config
	UseEntityAssetsEnvironmentVariable = "USE_ENTITY_ASSETS"

	// ModuleStackNameParameter is the build parameter naming the deployed CloudFormation stack
	ModuleStackNameParameter = "MODULE_STACK_NAME"
)

// Parameter store key suffixes
const (
	BuildParametersSuffix = "build-parameters"
	SourceConfigSuffix    = "source-config"
)

// ParameterPrefix is the root of every per-entity parameter store key
const ParameterPrefix = "/entity-builder"
