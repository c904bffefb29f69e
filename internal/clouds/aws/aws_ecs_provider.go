package aws

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

type EcsAPI interface {
	ecs.DescribeServicesAPIClient
	DescribeTaskDefinition(ctx context.Context, params *ecs.DescribeTaskDefinitionInput, optFns ...func(*ecs.Options)) (*ecs.DescribeTaskDefinitionOutput, error)
	RegisterTaskDefinition(ctx context.Context, params *ecs.RegisterTaskDefinitionInput, optFns ...func(*ecs.Options)) (*ecs.RegisterTaskDefinitionOutput, error)
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
}

type serviceRef struct {
	cluster string
	service string
}

var _ clouds.ServiceDeployer = (*EcsProvider)(nil)

type EcsProvider struct {
	config     EcsConfig
	ref        serviceRef
	ecs        EcsAPI
	waitStable func(ctx context.Context, cluster, service string, timeout time.Duration) error
}

// parseServiceARN splits arn:aws:ecs:<region>:<account>:service/<cluster>/<service>.
func parseServiceARN(serviceARN string) (arn.ARN, serviceRef, error) {
	parsed, err := arn.Parse(serviceARN)
	if err != nil {
		return arn.ARN{}, serviceRef{}, fmt.Errorf("%w - parsing ECS service ARN: %w", lib.BadUserInputError, err)
	}

	parts := strings.Split(parsed.Resource, "/")
	if parsed.Service != "ecs" || len(parts) != 3 || parts[0] != "service" {
		return arn.ARN{}, serviceRef{}, fmt.Errorf("%w - invalid ECS service ARN: %s", lib.BadUserInputError, serviceARN)
	}

	return parsed, serviceRef{cluster: parts[1], service: parts[2]}, nil
}

func NewEcsProvider(cfg awssdk.Config, config EcsConfig) (*EcsProvider, error) {
	parsed, ref, err := parseServiceARN(config.ServiceARN)
	if err != nil {
		return nil, err
	}

	client := ecs.NewFromConfig(cfg, func(o *ecs.Options) {
		o.Region = parsed.Region
	})

	p := &EcsProvider{config: config, ref: ref, ecs: client}
	p.waitStable = p.waitServiceStable
	return p, nil
}

// DeployServiceFromImage registers a new task definition revision with the container image
// replaced and moves the service to it.
func (p *EcsProvider) DeployServiceFromImage(ctx context.Context, registry clouds.ImageRegistry) error {
	imageRef, err := registry.GetImageRef()
	if err != nil {
		return fmt.Errorf("getting image reference for service %s: %w", p.config.ServiceARN, err)
	}
	if imageRef == "" {
		return fmt.Errorf("%w - image reference is empty for service %s", lib.BadUserInputError, p.config.ServiceARN)
	}

	slog.DebugContext(ctx, "describing ECS service",
		"cluster", p.ref.cluster,
		"service", p.ref.service)

	services, err := p.ecs.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Services: []string{p.ref.service},
		Cluster:  &p.ref.cluster,
	})
	if err != nil {
		return fmt.Errorf("describing ECS services: %w", err)
	}
	serviceIdx := slices.IndexFunc(services.Services, func(s types.Service) bool {
		return awssdk.ToString(s.ServiceArn) == p.config.ServiceARN
	})
	if serviceIdx == -1 {
		return fmt.Errorf("%w - ECS service %s", lib.NotFoundError, p.config.ServiceARN)
	}
	service := services.Services[serviceIdx]

	taskDefOutput, err := p.ecs.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{
		TaskDefinition: service.TaskDefinition,
		Include:        []types.TaskDefinitionField{types.TaskDefinitionFieldTags},
	})
	if err != nil {
		return fmt.Errorf("describing ECS task definition: %w", err)
	}
	taskDef := taskDefOutput.TaskDefinition

	containerDefs := slices.Clone(taskDef.ContainerDefinitions)
	containerIdx := slices.IndexFunc(containerDefs, func(c types.ContainerDefinition) bool {
		return awssdk.ToString(c.Name) == p.config.ContainerName
	})
	if containerIdx < 0 {
		return fmt.Errorf("%w - container %s not found in task definition %s", lib.BadUserInputError, p.config.ContainerName, awssdk.ToString(taskDef.TaskDefinitionArn))
	}

	previousImage := awssdk.ToString(containerDefs[containerIdx].Image)
	containerDefs[containerIdx].Image = &imageRef

	slog.InfoContext(ctx, "registering task definition revision",
		"family", awssdk.ToString(taskDef.Family),
		"container", p.config.ContainerName,
		"from", previousImage,
		"to", imageRef)

	registerOutput, err := p.ecs.RegisterTaskDefinition(ctx, &ecs.RegisterTaskDefinitionInput{
		ContainerDefinitions:    containerDefs,
		Family:                  taskDef.Family,
		Cpu:                     taskDef.Cpu,
		EphemeralStorage:        taskDef.EphemeralStorage,
		ExecutionRoleArn:        taskDef.ExecutionRoleArn,
		IpcMode:                 taskDef.IpcMode,
		Memory:                  taskDef.Memory,
		NetworkMode:             taskDef.NetworkMode,
		PidMode:                 taskDef.PidMode,
		PlacementConstraints:    taskDef.PlacementConstraints,
		ProxyConfiguration:      taskDef.ProxyConfiguration,
		RequiresCompatibilities: taskDef.RequiresCompatibilities,
		RuntimePlatform:         taskDef.RuntimePlatform,
		Tags:                    taskDefOutput.Tags,
		TaskRoleArn:             taskDef.TaskRoleArn,
		Volumes:                 taskDef.Volumes,
	})
	if err != nil {
		return fmt.Errorf("registering ECS task definition: %w", err)
	}

	_, err = p.ecs.UpdateService(ctx, &ecs.UpdateServiceInput{
		Service:            service.ServiceName,
		Cluster:            service.ClusterArn,
		TaskDefinition:     registerOutput.TaskDefinition.TaskDefinitionArn,
		ForceNewDeployment: true,
	})
	if err != nil {
		return fmt.Errorf("updating ECS service to new task definition: %w", err)
	}

	timeout := p.config.WaitTimeout
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	slog.InfoContext(ctx, "waiting for ECS service to be stable",
		"service", awssdk.ToString(service.ServiceName),
		"cluster", awssdk.ToString(service.ClusterArn),
		"timeout", timeout)

	if err := p.waitStable(ctx, awssdk.ToString(service.ClusterArn), awssdk.ToString(service.ServiceName), timeout); err != nil {
		return fmt.Errorf("waiting for ECS service to be stable: %w", err)
	}

	slog.InfoContext(ctx, "ECS service is stable",
		"service", awssdk.ToString(service.ServiceName),
		"task_definition", awssdk.ToString(registerOutput.TaskDefinition.TaskDefinitionArn))

	return nil
}

func (p *EcsProvider) waitServiceStable(ctx context.Context, cluster, service string, timeout time.Duration) error {
	waiter := ecs.NewServicesStableWaiter(p.ecs, func(o *ecs.ServicesStableWaiterOptions) {
		o.MinDelay = 10 * time.Second
		o.MaxDelay = 30 * time.Second
	})

	return waiter.Wait(ctx, &ecs.DescribeServicesInput{
		Cluster:  &cluster,
		Services: []string{service},
	}, timeout)
}
