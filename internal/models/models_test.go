package models

import (
	"errors"
	"testing"

	"github.com/savaki/entity-builder/internal/constants"
	apperrors "github.com/savaki/entity-builder/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestEntity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		wantErr bool
	}{
		{
			name:   "valid",
			entity: Entity{UID: "uid", Namespace: "default", Name: "cms-sample"},
		},
		{
			name:   "empty namespace",
			entity: Entity{UID: "uid", Name: "cms.sample_v2"},
		},
		{
			name:    "missing uid",
			entity:  Entity{Name: "cms-sample"},
			wantErr: true,
		},
		{
			name:    "slash in name",
			entity:  Entity{UID: "uid", Name: "cms/sample"},
			wantErr: true,
		},
		{
			name:    "slash in namespace",
			entity:  Entity{UID: "uid", Namespace: "a/b", Name: "cms"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrInvalidEntity), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEntity_Ref(t *testing.T) {
	assert.Equal(t, "default/svc", Entity{Name: "svc"}.Ref())
	assert.Equal(t, "team/svc", Entity{Namespace: "team", Name: "svc"}.Ref())
}

func TestEntity_ParseAnnotations(t *testing.T) {
	entity := Entity{
		UID:  "uid",
		Name: "svc",
		Annotations: map[string]string{
			constants.DeployOnCreateAnnotation:    "true",
			constants.DeploymentTargetAnnotation:  " prod ",
			constants.TeardownBuildspecAnnotation: "dir:./teardown.yaml",
			constants.AssetsRefAnnotation:         "s3://bucket/assets.zip",
			constants.AssetsStoredAnnotation:      "TRUE",
		},
	}

	got, err := entity.ParseAnnotations()
	assert.NoError(t, err)
	assert.Equal(t, Annotations{
		DeployOnCreate:    true,
		DeploymentTarget:  "prod",
		TeardownBuildspec: "dir:./teardown.yaml",
		AssetsRef:         "s3://bucket/assets.zip",
		AssetsStored:      true,
	}, got)
}

func TestEntity_ParseAnnotations_InvalidBool(t *testing.T) {
	entity := Entity{
		UID:         "uid",
		Name:        "svc",
		Annotations: map[string]string{constants.AssetsStoredAnnotation: "sometimes"},
	}

	_, err := entity.ParseAnnotations()
	assert.True(t, errors.Is(err, apperrors.ErrInvalidEntity))
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{in: "DEPLOY", want: ActionDeploy},
		{in: "update", want: ActionUpdate},
		{in: " Teardown ", want: ActionTeardown},
		{in: "destroy", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrInvalidAction))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestAction_Buildspec(t *testing.T) {
	annotations := Annotations{
		DeployBuildspec: "deploy",
		UpdateBuildspec: "update",
	}
	assert.Equal(t, "deploy", ActionDeploy.Buildspec(annotations))
	assert.Equal(t, "update", ActionUpdate.Buildspec(annotations))
	assert.Equal(t, "", ActionTeardown.Buildspec(annotations))
	assert.Equal(t, "", Action("BOGUS").Buildspec(annotations))
}

func TestBuildParameters_Get(t *testing.T) {
	params := BuildParameters{
		{Name: "A", Value: "1"},
		{Name: "B", Value: "2"},
		{Name: "A", Value: "3"},
	}

	v, ok := params.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = params.Get("C")
	assert.False(t, ok)
}
