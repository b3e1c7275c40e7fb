package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"
)

// CloudFormationAPI is the subset of the CloudFormation client used by StackService
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// StackStatus summarizes the CloudFormation stack a module build deploys
type StackStatus struct {
	StackName    string            `json:"stack_name"`
	Exists       bool              `json:"exists"`
	Status       string            `json:"status,omitempty"`
	StatusReason string            `json:"status_reason,omitempty"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`
	Outputs      map[string]string `json:"outputs,omitempty"`
}

// StackService reads the status of module stacks
type StackService struct {
	client CloudFormationAPI
}

// NewStackService creates a new StackService
func NewStackService(client CloudFormationAPI) *StackService {
	return &StackService{client: client}
}

// Describe returns the status of the named stack. A stack that does not exist
// is reported with Exists set to false rather than as an error.
func (s *StackService) Describe(ctx context.Context, stackName string) (StackStatus, error) {
	result, err := s.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist") {
				return StackStatus{StackName: stackName}, nil
			}
		}
		return StackStatus{}, fmt.Errorf("failed to describe stack %s: %w", stackName, err)
	}

	if len(result.Stacks) == 0 {
		return StackStatus{StackName: stackName}, nil
	}

	stack := result.Stacks[0]
	status := StackStatus{
		StackName:    stackName,
		Exists:       true,
		Status:       string(stack.StackStatus),
		StatusReason: aws.ToString(stack.StackStatusReason),
		UpdatedAt:    stack.LastUpdatedTime,
	}
	if status.UpdatedAt == nil {
		status.UpdatedAt = stack.CreationTime
	}

	for _, output := range stack.Outputs {
		if status.Outputs == nil {
			status.Outputs = map[string]string{}
		}
		status.Outputs[aws.ToString(output.OutputKey)] = aws.ToString(output.OutputValue)
	}

	return status, nil
}
