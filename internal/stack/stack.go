// Package stack declares the Fargate service stack and its delivery pipeline with the AWS CDK.
//
// Nothing here provisions anything: New builds a construct tree that the CDK synthesizes into a
// CloudFormation template. Ordering, creation and failure handling of the resources belong to
// CloudFormation.
package stack

import (
	"fmt"
	"log/slog"

	"github.com/AnotherFullstackDev/fargatectl/internal/plan"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecspatterns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	ComponentNetwork          = "network"
	ComponentClusterAdminRole = "cluster-admin-role"
	ComponentCluster          = "cluster"
	ComponentTaskRole         = "task-role"
	ComponentTaskDefinition   = "task-definition"
	ComponentContainer        = "container"
	ComponentService          = "service"
	ComponentAutoscaling      = "autoscaling"
	ComponentRepository       = "repository"
	ComponentBuildProject     = "build-project"
	ComponentPipeline         = "pipeline"
	ComponentGrants           = "grants"
	ComponentOutputs          = "outputs"
)

type Stack struct {
	awscdk.Stack

	Settings Settings
	Plan     *plan.Plan

	Vpc              awsec2.Vpc
	ClusterAdminRole awsiam.Role
	Cluster          awsecs.Cluster
	TaskRole         awsiam.Role
	TaskDefinition   awsecs.FargateTaskDefinition
	Container        awsecs.ContainerDefinition
	Service          awsecspatterns.ApplicationLoadBalancedFargateService
	Scaling          awsecs.ScalableTaskCount
	Repository       awsecr.Repository
	Project          awscodebuild.Project
	Pipeline         awscodepipeline.Pipeline
}

type declaration struct {
	name      string
	kind      string
	dependsOn []string
	declare   func()
}

// New declares the whole stack under scope.
func New(scope constructs.Construct, settings Settings) (*Stack, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	props := &awscdk.StackProps{
		Description: jsii.String(fmt.Sprintf("ECS Fargate service %s with its CI/CD pipeline", settings.Container.Name)),
	}
	if settings.Account != "" || settings.Region != "" {
		props.Env = &awscdk.Environment{
			Account: optionalString(settings.Account),
			Region:  optionalString(settings.Region),
		}
	}

	s := &Stack{Settings: settings, Plan: plan.New()}
	if err := catchJsii(func() { s.Stack = awscdk.NewStack(scope, jsii.String(settings.StackName), props) }); err != nil {
		return nil, fmt.Errorf("creating stack %s: %w", settings.StackName, err)
	}

	for _, d := range s.declarations() {
		if d.declare == nil {
			continue
		}
		slog.Debug("declaring component", "stack", settings.StackName, "component", d.name, "kind", d.kind)
		if err := catchJsii(d.declare); err != nil {
			return nil, fmt.Errorf("declaring %s: %w", d.name, err)
		}
		if err := s.Plan.Add(d.name, d.kind, d.dependsOn...); err != nil {
			return nil, fmt.Errorf("recording component %s: %w", d.name, err)
		}
	}

	return s, nil
}

func (s *Stack) declarations() []declaration {
	var adminRole func()
	if s.Settings.Cluster.AdminRole {
		adminRole = s.declareClusterAdminRole
	}

	return []declaration{
		{ComponentNetwork, "AWS::EC2::VPC", nil, s.declareNetwork},
		{ComponentClusterAdminRole, "AWS::IAM::Role", nil, adminRole},
		{ComponentCluster, "AWS::ECS::Cluster", []string{ComponentNetwork}, s.declareCluster},
		{ComponentTaskRole, "AWS::IAM::Role", nil, s.declareTaskRole},
		{ComponentTaskDefinition, "AWS::ECS::TaskDefinition", []string{ComponentTaskRole}, s.declareTaskDefinition},
		{ComponentContainer, "ContainerDefinition", []string{ComponentTaskDefinition}, s.declareContainer},
		{ComponentService, "ApplicationLoadBalancedFargateService", []string{ComponentCluster, ComponentContainer}, s.declareService},
		{ComponentAutoscaling, "AWS::ApplicationAutoScaling::ScalingPolicy", []string{ComponentService}, s.declareAutoscaling},
		{ComponentRepository, "AWS::ECR::Repository", nil, s.declareRepository},
		{ComponentBuildProject, "AWS::CodeBuild::Project", []string{ComponentRepository, ComponentCluster}, s.declareBuildProject},
		{ComponentPipeline, "AWS::CodePipeline::Pipeline", []string{ComponentBuildProject, ComponentService}, s.declarePipeline},
		{ComponentGrants, "AWS::IAM::Policy", []string{ComponentRepository, ComponentBuildProject, ComponentCluster}, s.declareGrants},
		{ComponentOutputs, "Outputs", []string{ComponentService, ComponentRepository, ComponentPipeline}, s.declareOutputs},
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return jsii.String(v)
}

func number(v int) *float64 {
	return jsii.Number(float64(v))
}
