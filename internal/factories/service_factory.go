package factories

import (
	"context"
	"fmt"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds/aws"
	"github.com/AnotherFullstackDev/fargatectl/internal/config"
	"github.com/AnotherFullstackDev/fargatectl/internal/container_image"
	"github.com/AnotherFullstackDev/fargatectl/internal/container_image/registry"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/AnotherFullstackDev/fargatectl/internal/placeholders"
	"github.com/AnotherFullstackDev/fargatectl/internal/stack"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
)

const (
	imageConfigKey   = "image"
	rolloutConfigKey = "rollout"
)

type StackFactory struct {
	stack               string
	config              *config.Config
	placeholdersService *placeholders.Service
	credentialsStorage  func() lib.CredentialsStorage
}

// NewStackFactory builds the services of one stack. Its placeholders know stack.name and
// env.name on top of the shared ones.
func NewStackFactory(stackName string, locator *SharedServicesLocator) *StackFactory {
	return &StackFactory{
		stack:  stackName,
		config: locator.Config,
		placeholdersService: locator.PlaceholdersService.WithValues(map[string]string{
			"stack.name": stackName,
			"env.name":   locator.Config.Environment(),
		}),
		credentialsStorage: locator.CredentialsStorage,
	}
}

func (f *StackFactory) Settings() (stack.Settings, error) {
	if !f.config.HasStack(f.stack) {
		return stack.Settings{}, fmt.Errorf("%w - stack %s not found in config", lib.BadUserInputError, f.stack)
	}

	settings, err := stack.LoadSettings(f.config, f.stack, f.placeholdersService)
	if err != nil {
		return stack.Settings{}, fmt.Errorf("loading settings for stack %s: %w", f.stack, err)
	}
	return settings, nil
}

func (f *StackFactory) CredentialsStorage() lib.CredentialsStorage {
	return f.credentialsStorage()
}

func (f *StackFactory) NewImageService(settings stack.Settings) (*container_image.Service, error) {
	var imageConfig container_image.Config
	if f.config.HasStackConfigPart(f.stack, imageConfigKey) {
		if err := f.config.LoadStackConfigPart(&imageConfig, f.stack, imageConfigKey); err != nil {
			return nil, fmt.Errorf("error loading image build config: %w", err)
		}
	}

	return container_image.NewService(imageConfig.WithDefaults(settings.Build.DockerDir), settings.Container.Name, f.placeholdersService), nil
}

func (f *StackFactory) AwsConfig(ctx context.Context, settings stack.Settings) (awssdk.Config, error) {
	return aws.LoadConfig(ctx, settings.Region)
}

// StackOutputs reads the outputs of the deployed stack. The operator commands rely on them to
// find the repository and the service.
func (f *StackFactory) StackOutputs(ctx context.Context, awsCfg awssdk.Config, settings stack.Settings) (aws.StackOutputs, error) {
	return aws.NewOutputsReader(awsCfg).StackOutputs(ctx, settings.StackName)
}

func (f *StackFactory) NewRegistry(outputs aws.StackOutputs, tag string) (*registry.AwsECR, error) {
	repositoryURI, err := outputs.Require(lib.OutputEcrRepositoryUri)
	if err != nil {
		return nil, err
	}
	return registry.NewAwsECR(repositoryURI, tag), nil
}

// NewEcsProvider targets the stack's service unless the rollout section overrides it.
func (f *StackFactory) NewEcsProvider(awsCfg awssdk.Config, settings stack.Settings, outputs aws.StackOutputs) (*aws.EcsProvider, error) {
	ecsCfg, err := f.EcsConfig(settings, outputs)
	if err != nil {
		return nil, err
	}
	return aws.NewEcsProvider(awsCfg, ecsCfg)
}

func (f *StackFactory) EcsConfig(settings stack.Settings, outputs aws.StackOutputs) (aws.EcsConfig, error) {
	var ecsCfg aws.EcsConfig
	if f.config.HasStackConfigPart(f.stack, rolloutConfigKey) {
		if err := f.config.LoadStackConfigPart(&ecsCfg, f.stack, rolloutConfigKey); err != nil {
			return aws.EcsConfig{}, fmt.Errorf("error loading AWS ECS config: %w", err)
		}
	}

	if ecsCfg.ServiceARN == "" {
		serviceARN, err := outputs.Require(lib.OutputServiceArn)
		if err != nil {
			return aws.EcsConfig{}, err
		}
		ecsCfg.ServiceARN = serviceARN
	}
	if ecsCfg.ContainerName == "" {
		ecsCfg.ContainerName = settings.Container.Name
	}

	return ecsCfg, nil
}
