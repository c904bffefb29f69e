package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapplicationautoscaling"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecspatterns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/jsii-runtime-go"
)

const ecsTasksPrincipal = "ecs-tasks.amazonaws.com"

func (s *Stack) declareNetwork() {
	cfg := s.Settings.Network
	s.Vpc = awsec2.NewVpc(s.Stack, jsii.String("ecs-vpc"), &awsec2.VpcProps{
		IpAddresses: awsec2.IpAddresses_Cidr(jsii.String(cfg.CIDR)),
		NatGateways: number(cfg.NatGateways),
		MaxAzs:      number(cfg.MaxAzs),
	})
}

func (s *Stack) declareClusterAdminRole() {
	s.ClusterAdminRole = awsiam.NewRole(s.Stack, jsii.String("AdminRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewAccountRootPrincipal(),
	})
}

func (s *Stack) declareCluster() {
	s.Cluster = awsecs.NewCluster(s.Stack, jsii.String("ecs-cluster"), &awsecs.ClusterProps{
		Vpc: s.Vpc,
	})
}

func (s *Stack) declareTaskRole() {
	s.TaskRole = awsiam.NewRole(s.Stack, jsii.String("ecs-taskRole"), &awsiam.RoleProps{
		RoleName:  optionalString(s.Settings.Task.RoleName),
		AssumedBy: awsiam.NewServicePrincipal(jsii.String(ecsTasksPrincipal), nil),
	})
}

func (s *Stack) declareTaskDefinition() {
	s.TaskDefinition = awsecs.NewFargateTaskDefinition(s.Stack, jsii.String("ecs-taskdef"), &awsecs.FargateTaskDefinitionProps{
		TaskRole: s.TaskRole,
	})

	if len(s.Settings.Task.ExecutionActions) > 0 {
		s.TaskDefinition.AddToExecutionRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Effect:    awsiam.Effect_ALLOW,
			Resources: jsii.Strings("*"),
			Actions:   jsii.Strings(s.Settings.Task.ExecutionActions...),
		}))
	}
}

func (s *Stack) declareContainer() {
	cfg := s.Settings.Container
	s.Container = s.TaskDefinition.AddContainer(jsii.String(cfg.Name), &awsecs.ContainerDefinitionOptions{
		Image:          awsecs.ContainerImage_FromRegistry(jsii.String(cfg.Image), nil),
		MemoryLimitMiB: number(cfg.MemoryLimitMiB),
		Cpu:            number(cfg.CPU),
		Logging: awsecs.NewAwsLogDriver(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String(s.Settings.Task.LogStreamPrefix),
		}),
	})

	s.Container.AddPortMappings(&awsecs.PortMapping{
		ContainerPort: number(cfg.Port),
		Protocol:      awsecs.Protocol_TCP,
	})
}

func (s *Stack) declareService() {
	cfg := s.Settings.Service
	s.Service = awsecspatterns.NewApplicationLoadBalancedFargateService(s.Stack, jsii.String("ecs-service"), &awsecspatterns.ApplicationLoadBalancedFargateServiceProps{
		Cluster:            s.Cluster,
		TaskDefinition:     s.TaskDefinition,
		PublicLoadBalancer: jsii.Bool(cfg.PublicLoadBalancer),
		DesiredCount:       number(cfg.DesiredCount),
		ListenerPort:       number(cfg.ListenerPort),
	})
}

func (s *Stack) declareAutoscaling() {
	cfg := s.Settings.Scaling
	s.Scaling = s.Service.Service().AutoScaleTaskCount(&awsapplicationautoscaling.EnableScalingProps{
		MaxCapacity: number(cfg.MaxCapacity),
	})

	s.Scaling.ScaleOnCpuUtilization(jsii.String("CpuScaling"), &awsecs.CpuUtilizationScalingProps{
		TargetUtilizationPercent: number(cfg.CPUTargetPercent),
		ScaleInCooldown:          awscdk.Duration_Seconds(jsii.Number(cfg.ScaleInCooldown.Seconds())),
		ScaleOutCooldown:         awscdk.Duration_Seconds(jsii.Number(cfg.ScaleOutCooldown.Seconds())),
	})
}
