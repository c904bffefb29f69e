package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
)

type EcsConfig struct {
	ServiceARN    string        `mapstructure:"service_arn"`
	ContainerName string        `mapstructure:"container_name"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`
}

const defaultWaitTimeout = 10 * time.Minute

// LoadConfig loads the default credential chain. An empty region keeps whatever the chain
// resolves (AWS_REGION, profile, IMDS).
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	var opts []func(*aws_config.LoadOptions) error
	if region != "" {
		opts = append(opts, aws_config.WithRegion(region))
	}

	cfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}
