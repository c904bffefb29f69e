package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

type StackOutputs map[string]string

// Require returns the named output or an error telling the user the stack must be deployed first.
func (o StackOutputs) Require(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w - stack output %s is missing, deploy the stack first", lib.NotFoundError, key)
	}
	return v, nil
}

type OutputsReader struct {
	cfn CloudFormationAPI
}

func NewOutputsReader(cfg awssdk.Config) *OutputsReader {
	return &OutputsReader{cfn: cloudformation.NewFromConfig(cfg)}
}

func (r *OutputsReader) StackOutputs(ctx context.Context, stackName string) (StackOutputs, error) {
	out, err := r.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: &stackName,
	})
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, fmt.Errorf("%w - stack %s is not deployed", lib.NotFoundError, stackName)
		}
		return nil, fmt.Errorf("describing stack %s: %w", stackName, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%w - stack %s is not deployed", lib.NotFoundError, stackName)
	}

	outputs := StackOutputs{}
	for _, o := range out.Stacks[0].Outputs {
		outputs[awssdk.ToString(o.OutputKey)] = awssdk.ToString(o.OutputValue)
	}

	return outputs, nil
}
