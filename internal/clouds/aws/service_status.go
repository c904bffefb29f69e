package aws

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"golang.org/x/sync/errgroup"
)

type TargetHealthAPI interface {
	DescribeTargetHealth(ctx context.Context, params *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error)
}

type ServiceStatus struct {
	Service      string
	Status       string
	TaskDef      string
	Desired      int32
	Running      int32
	Pending      int32
	Deployments  int
	TargetStates map[string]int
}

// HealthyTargets is the number of targets the load balancer currently routes to.
func (s ServiceStatus) HealthyTargets() int {
	return s.TargetStates["healthy"]
}

// States returns the target states in a stable order for printing.
func (s ServiceStatus) States() []string {
	return slices.Sorted(maps.Keys(s.TargetStates))
}

type StatusReader struct {
	ecs ecs.DescribeServicesAPIClient
	elb TargetHealthAPI
}

func NewStatusReader(cfg awssdk.Config) *StatusReader {
	return &StatusReader{
		ecs: ecs.NewFromConfig(cfg),
		elb: elbv2.NewFromConfig(cfg),
	}
}

// Status reads the service counters and the target group health concurrently. Both calls go
// to the regions named in the ARNs, whatever the ambient region is.
func (r *StatusReader) Status(ctx context.Context, serviceARN, targetGroupARN string) (ServiceStatus, error) {
	serviceArn, ref, err := parseServiceARN(serviceARN)
	if err != nil {
		return ServiceStatus{}, err
	}
	targetGroupArn, err := arn.Parse(targetGroupARN)
	if err != nil {
		return ServiceStatus{}, fmt.Errorf("%w - parsing target group ARN: %w", lib.BadUserInputError, err)
	}

	status := ServiceStatus{TargetStates: map[string]int{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := r.ecs.DescribeServices(gctx, &ecs.DescribeServicesInput{
			Cluster:  &ref.cluster,
			Services: []string{ref.service},
		}, func(o *ecs.Options) {
			o.Region = serviceArn.Region
		})
		if err != nil {
			return fmt.Errorf("describing ECS service: %w", err)
		}
		if len(out.Services) == 0 {
			return fmt.Errorf("%w - ECS service %s", lib.NotFoundError, serviceARN)
		}

		svc := out.Services[0]
		status.Service = awssdk.ToString(svc.ServiceName)
		status.Status = awssdk.ToString(svc.Status)
		status.TaskDef = awssdk.ToString(svc.TaskDefinition)
		status.Desired = svc.DesiredCount
		status.Running = svc.RunningCount
		status.Pending = svc.PendingCount
		status.Deployments = len(svc.Deployments)
		return nil
	})

	targetStates := map[string]int{}
	g.Go(func() error {
		out, err := r.elb.DescribeTargetHealth(gctx, &elbv2.DescribeTargetHealthInput{
			TargetGroupArn: &targetGroupARN,
		}, func(o *elbv2.Options) {
			o.Region = targetGroupArn.Region
		})
		if err != nil {
			return fmt.Errorf("describing target health: %w", err)
		}

		for _, d := range out.TargetHealthDescriptions {
			state := "unknown"
			if d.TargetHealth != nil {
				state = string(d.TargetHealth.State)
			}
			targetStates[state]++
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return ServiceStatus{}, err
	}
	status.TargetStates = targetStates

	return status, nil
}
