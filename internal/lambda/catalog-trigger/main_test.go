package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/savaki/entity-builder/internal/constants"
	apperrors "github.com/savaki/entity-builder/internal/errors"
	"github.com/savaki/entity-builder/internal/models"
	"github.com/savaki/entity-builder/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStarter struct {
	inputs []orchestrator.StartBuildInput
	err    error
}

func (m *mockStarter) StartBuild(_ context.Context, input orchestrator.StartBuildInput) (types.Build, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return types.Build{}, m.err
	}
	return types.Build{Id: aws.String("sample:1")}, nil
}

func newEvent(t *testing.T, detailType string, detail any) events.CloudWatchEvent {
	t.Helper()
	data, err := json.Marshal(detail)
	require.NoError(t, err)
	return events.CloudWatchEvent{
		ID:         "event-1",
		DetailType: detailType,
		Source:     "backstage.catalog",
		Detail:     data,
	}
}

func sampleEntity(annotations map[string]string) models.Entity {
	return models.Entity{
		UID:         "0f8d6c1e-1111-2222-3333-444455556666",
		Name:        "sample",
		Annotations: annotations,
	}
}

func TestHandleEvent_EntityCreated(t *testing.T) {
	tests := []struct {
		name        string
		annotations map[string]string
		wantStarts  int
		wantErr     error
	}{
		{
			name:        "deploy on create",
			annotations: map[string]string{constants.DeployOnCreateAnnotation: "true"},
			wantStarts:  1,
		},
		{
			name:       "no annotation",
			wantStarts: 0,
		},
		{
			name:        "explicitly disabled",
			annotations: map[string]string{constants.DeployOnCreateAnnotation: "false"},
			wantStarts:  0,
		},
		{
			name:        "bad boolean",
			annotations: map[string]string{constants.DeployOnCreateAnnotation: "sometimes"},
			wantStarts:  0,
			wantErr:     apperrors.ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := &mockStarter{}
			handler := NewHandler(starter)

			event := newEvent(t, DetailTypeEntityCreated, EntityCreatedDetail{Entity: sampleEntity(tt.annotations)})
			err := handler.HandleEvent(context.Background(), event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			require.Len(t, starter.inputs, tt.wantStarts)
			for _, input := range starter.inputs {
				assert.Equal(t, models.ActionDeploy, input.Action)
				assert.Nil(t, input.BuildParameters)
			}
		})
	}
}

func TestHandleEvent_BuildRequested(t *testing.T) {
	starter := &mockStarter{}
	handler := NewHandler(starter)

	params := models.BuildParameters{{Name: "MODULE_STACK_NAME", Value: "acdp-sample"}}
	event := newEvent(t, DetailTypeBuildRequested, BuildRequestedDetail{
		Entity:          sampleEntity(nil),
		Action:          "update",
		BuildParameters: params,
	})

	require.NoError(t, handler.HandleEvent(context.Background(), event))
	require.Len(t, starter.inputs, 1)
	assert.Equal(t, models.ActionUpdate, starter.inputs[0].Action)
	assert.Equal(t, params, starter.inputs[0].BuildParameters)
	assert.Equal(t, "sample", starter.inputs[0].Entity.Name)
}

func TestHandleEvent_BuildRequestedInvalidAction(t *testing.T) {
	starter := &mockStarter{}
	handler := NewHandler(starter)

	event := newEvent(t, DetailTypeBuildRequested, BuildRequestedDetail{
		Entity: sampleEntity(nil),
		Action: "restart",
	})

	err := handler.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAction)
	assert.Empty(t, starter.inputs)
}

func TestHandleEvent_StartFailure(t *testing.T) {
	boom := errors.New("boom")
	starter := &mockStarter{err: boom}
	handler := NewHandler(starter)

	event := newEvent(t, DetailTypeBuildRequested, BuildRequestedDetail{
		Entity: sampleEntity(nil),
		Action: "TEARDOWN",
	})

	err := handler.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, boom)
}

func TestHandleEvent_UnsupportedDetailType(t *testing.T) {
	starter := &mockStarter{}
	handler := NewHandler(starter)

	event := newEvent(t, "Entity Deleted", map[string]string{"uid": "x"})
	assert.NoError(t, handler.HandleEvent(context.Background(), event))
	assert.Empty(t, starter.inputs)
}

func TestHandleEvent_MalformedDetail(t *testing.T) {
	handler := NewHandler(&mockStarter{})

	event := events.CloudWatchEvent{
		DetailType: DetailTypeBuildRequested,
		Detail:     json.RawMessage(`{"entity": 42}`),
	}
	assert.Error(t, handler.HandleEvent(context.Background(), event))
}
