package commands

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/savaki/entity-builder/internal/di"
	apperrors "github.com/savaki/entity-builder/internal/errors"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet(t.Name(), flag.ContinueOnError)
	for _, f := range flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const catalogInfo = `apiVersion: backstage.io/v1alpha1
kind: Component
metadata:
  uid: 0f8d6c1e-1111-2222-3333-444455556666
  name: sample
  annotations:
    aws.amazon.com/acdp-deployment-target: staging
`

func TestLoadEntity_UIDOverride(t *testing.T) {
	path := writeFile(t, "catalog-info.yaml", catalogInfo)

	c := newContext(t, commonFlags(), "--entity-file", path, "--uid", "override")
	entity, err := loadEntity(c)
	require.NoError(t, err)
	assert.Equal(t, "override", entity.UID)
	assert.Equal(t, "sample", entity.Name)

	c = newContext(t, commonFlags(), "--entity-file", path)
	entity, err = loadEntity(c)
	require.NoError(t, err)
	assert.Equal(t, "0f8d6c1e-1111-2222-3333-444455556666", entity.UID)
}

func TestLoadEntity_Invalid(t *testing.T) {
	path := writeFile(t, "catalog-info.yaml", "kind: Component\nmetadata:\n  name: sample\n")

	c := newContext(t, commonFlags(), "--entity-file", path)
	_, err := loadEntity(c)
	assert.ErrorIs(t, err, apperrors.ErrInvalidEntity)
}

func TestBuildParameters(t *testing.T) {
	flags := startCommand(nil, models.ActionDeploy, true).Flags

	t.Run("none supplied", func(t *testing.T) {
		params, err := buildParameters(newContext(t, flags))
		require.NoError(t, err)
		assert.Nil(t, params)
	})

	t.Run("flags", func(t *testing.T) {
		c := newContext(t, flags, "--param", "B=2", "--param", "A=1")
		params, err := buildParameters(c)
		require.NoError(t, err)
		assert.Equal(t, models.BuildParameters{{Name: "B", Value: "2"}, {Name: "A", Value: "1"}}, params)
	})

	t.Run("file then flags", func(t *testing.T) {
		path := writeFile(t, "params.yaml", "- name: MODULE_STACK_NAME\n  value: acdp-sample\n")
		c := newContext(t, flags, "--params-file", path, "--param", "A=1")
		params, err := buildParameters(c)
		require.NoError(t, err)
		assert.Equal(t, models.BuildParameters{
			{Name: "MODULE_STACK_NAME", Value: "acdp-sample"},
			{Name: "A", Value: "1"},
		}, params)
	})

	t.Run("malformed pair", func(t *testing.T) {
		_, err := buildParameters(newContext(t, flags, "--param", "nope"))
		assert.Error(t, err)
	})
}

func TestStartCommand_TeardownHasNoParameterFlags(t *testing.T) {
	cmd := TeardownCommand(nil)
	assert.Equal(t, "teardown", cmd.Name)
	for _, f := range cmd.Flags {
		assert.NotContains(t, f.Names(), "param")
	}
}

func TestSummarizeAll(t *testing.T) {
	started := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	builds := []types.Build{
		{
			Id:           aws.String("sample:1"),
			Arn:          aws.String("arn:aws:codebuild:us-west-2:111111111111:build/sample:1"),
			BuildNumber:  aws.Int64(1),
			BuildStatus:  types.StatusTypeSucceeded,
			CurrentPhase: aws.String("COMPLETED"),
			StartTime:    &started,
		},
		{Id: aws.String("sample:2"), BuildStatus: types.StatusTypeInProgress},
	}

	summaries := summarizeAll(builds)
	require.Len(t, summaries, 2)
	assert.Equal(t, "sample:1", summaries[0].ID)
	assert.Equal(t, int64(1), summaries[0].Number)
	assert.Equal(t, "SUCCEEDED", summaries[0].Status)
	assert.Equal(t, &started, summaries[0].StartedAt)
	assert.Equal(t, "IN_PROGRESS", summaries[1].Status)
	assert.Nil(t, summaries[1].EndedAt)
}

func TestResolve(t *testing.T) {
	container, err := di.New("dev")
	require.NoError(t, err)

	env, err := resolve[string](container)
	require.NoError(t, err)
	assert.Equal(t, "dev", env)

	assert.NotPanics(t, func() {
		_, err = resolve[*testing.T](container)
	})
	assert.ErrorContains(t, err, "failed to resolve dependencies")
}
