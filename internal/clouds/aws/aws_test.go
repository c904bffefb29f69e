package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/require"
)

const (
	testServiceARN = "arn:aws:ecs:eu-west-1:123456789012:service/web-cluster/web-service"
	testTaskDefARN = "arn:aws:ecs:eu-west-1:123456789012:task-definition/web:7"
	testNewTaskDef = "arn:aws:ecs:eu-west-1:123456789012:task-definition/web:8"
)

type fakeEcs struct {
	region     string
	services   []ecstypes.Service
	containers []ecstypes.ContainerDefinition
	registered *ecs.RegisterTaskDefinitionInput
	updated    *ecs.UpdateServiceInput
}

func (f *fakeEcs) DescribeServices(_ context.Context, _ *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	var o ecs.Options
	for _, fn := range optFns {
		fn(&o)
	}
	f.region = o.Region
	return &ecs.DescribeServicesOutput{Services: f.services}, nil
}

func (f *fakeEcs) DescribeTaskDefinition(_ context.Context, in *ecs.DescribeTaskDefinitionInput, _ ...func(*ecs.Options)) (*ecs.DescribeTaskDefinitionOutput, error) {
	return &ecs.DescribeTaskDefinitionOutput{
		TaskDefinition: &ecstypes.TaskDefinition{
			TaskDefinitionArn:    in.TaskDefinition,
			Family:               awssdk.String("web"),
			Cpu:                  awssdk.String("256"),
			Memory:               awssdk.String("512"),
			ContainerDefinitions: f.containers,
		},
	}, nil
}

func (f *fakeEcs) RegisterTaskDefinition(_ context.Context, in *ecs.RegisterTaskDefinitionInput, _ ...func(*ecs.Options)) (*ecs.RegisterTaskDefinitionOutput, error) {
	f.registered = in
	return &ecs.RegisterTaskDefinitionOutput{
		TaskDefinition: &ecstypes.TaskDefinition{TaskDefinitionArn: awssdk.String(testNewTaskDef)},
	}, nil
}

func (f *fakeEcs) UpdateService(_ context.Context, in *ecs.UpdateServiceInput, _ ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error) {
	f.updated = in
	return &ecs.UpdateServiceOutput{}, nil
}

func newFakeEcs() *fakeEcs {
	return &fakeEcs{
		services: []ecstypes.Service{{
			ServiceArn:     awssdk.String(testServiceARN),
			ServiceName:    awssdk.String("web-service"),
			ClusterArn:     awssdk.String("arn:aws:ecs:eu-west-1:123456789012:cluster/web-cluster"),
			TaskDefinition: awssdk.String(testTaskDefARN),
			Status:         awssdk.String("ACTIVE"),
			DesiredCount:   3,
			RunningCount:   2,
			PendingCount:   1,
			Deployments:    []ecstypes.Deployment{{}, {}},
		}},
		containers: []ecstypes.ContainerDefinition{
			{Name: awssdk.String("sidecar"), Image: awssdk.String("envoy:1")},
			{Name: awssdk.String("flask-app"), Image: awssdk.String("nikunjv/flask-image:blue")},
		},
	}
}

func newTestProvider(t *testing.T, client EcsAPI, container string) (*EcsProvider, *[]string) {
	t.Helper()
	_, ref, err := parseServiceARN(testServiceARN)
	require.NoError(t, err)

	var waited []string
	p := &EcsProvider{
		config: EcsConfig{ServiceARN: testServiceARN, ContainerName: container},
		ref:    ref,
		ecs:    client,
		waitStable: func(_ context.Context, cluster, service string, timeout time.Duration) error {
			waited = append(waited, cluster, service, timeout.String())
			return nil
		},
	}
	return p, &waited
}

func TestParseServiceARN(t *testing.T) {
	r := require.New(t)

	parsed, ref, err := parseServiceARN(testServiceARN)
	r.NoError(err)
	r.Equal("eu-west-1", parsed.Region)
	r.Equal(serviceRef{cluster: "web-cluster", service: "web-service"}, ref)

	for _, bad := range []string{
		"not-an-arn",
		"arn:aws:ecs:eu-west-1:123456789012:service/web-service",
		"arn:aws:ecs:eu-west-1:123456789012:task/web-cluster/abc",
		"arn:aws:s3:::bucket/a/b",
	} {
		_, _, err := parseServiceARN(bad)
		r.ErrorIs(err, lib.BadUserInputError, bad)
	}
}

func TestEcsProviderDeploy(t *testing.T) {
	t.Run("replaces the image of the named container only", func(t *testing.T) {
		r := require.New(t)
		client := newFakeEcs()
		p, waited := newTestProvider(t, client, "flask-app")

		image := "123456789012.dkr.ecr.eu-west-1.amazonaws.com/web:abc"
		r.NoError(p.DeployServiceFromImage(context.Background(), clouds.StaticImageRef(image)))

		r.NotNil(client.registered)
		r.Equal("web", *client.registered.Family)
		r.Equal("envoy:1", *client.registered.ContainerDefinitions[0].Image)
		r.Equal(image, *client.registered.ContainerDefinitions[1].Image)
		r.Equal("nikunjv/flask-image:blue", *client.containers[1].Image, "described task definition must not be mutated")

		r.NotNil(client.updated)
		r.Equal(testNewTaskDef, *client.updated.TaskDefinition)
		r.True(client.updated.ForceNewDeployment)
		r.Equal([]string{"arn:aws:ecs:eu-west-1:123456789012:cluster/web-cluster", "web-service", "10m0s"}, *waited)
	})

	t.Run("fails on unknown container", func(t *testing.T) {
		r := require.New(t)
		client := newFakeEcs()
		p, _ := newTestProvider(t, client, "worker")

		err := p.DeployServiceFromImage(context.Background(), clouds.StaticImageRef("img:1"))
		r.ErrorIs(err, lib.BadUserInputError)
		r.Nil(client.registered)
	})

	t.Run("fails when the service is gone", func(t *testing.T) {
		r := require.New(t)
		client := newFakeEcs()
		client.services = nil
		p, _ := newTestProvider(t, client, "flask-app")

		err := p.DeployServiceFromImage(context.Background(), clouds.StaticImageRef("img:1"))
		r.ErrorIs(err, lib.NotFoundError)
	})

	t.Run("fails on empty image", func(t *testing.T) {
		r := require.New(t)
		p, _ := newTestProvider(t, newFakeEcs(), "flask-app")

		err := p.DeployServiceFromImage(context.Background(), clouds.StaticImageRef(""))
		r.ErrorIs(err, lib.BadUserInputError)
	})
}

type fakeCfn struct {
	out *cloudformation.DescribeStacksOutput
	err error
}

func (f fakeCfn) DescribeStacks(_ context.Context, _ *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	return f.out, f.err
}

func TestStackOutputs(t *testing.T) {
	r := require.New(t)

	reader := &OutputsReader{cfn: fakeCfn{out: &cloudformation.DescribeStacksOutput{
		Stacks: []cfntypes.Stack{{
			Outputs: []cfntypes.Output{
				{OutputKey: awssdk.String(lib.OutputLoadBalancerDNS), OutputValue: awssdk.String("web-123.eu-west-1.elb.amazonaws.com")},
			},
		}},
	}}}

	outputs, err := reader.StackOutputs(context.Background(), "Web")
	r.NoError(err)
	dns, err := outputs.Require(lib.OutputLoadBalancerDNS)
	r.NoError(err)
	r.Equal("web-123.eu-west-1.elb.amazonaws.com", dns)

	_, err = outputs.Require(lib.OutputServiceArn)
	r.ErrorIs(err, lib.NotFoundError)

	missing := &OutputsReader{cfn: fakeCfn{err: errors.New("ValidationError: Stack with id Web does not exist")}}
	_, err = missing.StackOutputs(context.Background(), "Web")
	r.ErrorIs(err, lib.NotFoundError)
}

type fakeSecrets struct {
	exists  bool
	created *secretsmanager.CreateSecretInput
	put     *secretsmanager.PutSecretValueInput
}

func (f *fakeSecrets) DescribeSecret(_ context.Context, _ *secretsmanager.DescribeSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	if !f.exists {
		return nil, &smtypes.ResourceNotFoundException{Message: awssdk.String("not found")}
	}
	return &secretsmanager.DescribeSecretOutput{}, nil
}

func (f *fakeSecrets) CreateSecret(_ context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.created = in
	return &secretsmanager.CreateSecretOutput{ARN: awssdk.String("arn:created")}, nil
}

func (f *fakeSecrets) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.put = in
	return &secretsmanager.PutSecretValueOutput{ARN: awssdk.String("arn:updated")}, nil
}

func TestPutSecret(t *testing.T) {
	t.Run("creates missing secret", func(t *testing.T) {
		r := require.New(t)
		fake := &fakeSecrets{}
		arn, err := (&SecretsStore{sm: fake}).PutSecret(context.Background(), "/my/github/token", "ghp_x", "token")
		r.NoError(err)
		r.Equal("arn:created", arn)
		r.Equal("ghp_x", *fake.created.SecretString)
		r.Nil(fake.put)
	})

	t.Run("puts a new version of an existing secret", func(t *testing.T) {
		r := require.New(t)
		fake := &fakeSecrets{exists: true}
		arn, err := (&SecretsStore{sm: fake}).PutSecret(context.Background(), "/my/github/token", "ghp_y", "token")
		r.NoError(err)
		r.Equal("arn:updated", arn)
		r.Equal("ghp_y", *fake.put.SecretString)
		r.Nil(fake.created)
	})
}

type fakeTargets struct {
	region string
	states []elbtypes.TargetHealthStateEnum
}

func (f *fakeTargets) DescribeTargetHealth(_ context.Context, _ *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error) {
	var o elbv2.Options
	for _, fn := range optFns {
		fn(&o)
	}
	f.region = o.Region

	out := &elbv2.DescribeTargetHealthOutput{}
	for _, s := range f.states {
		out.TargetHealthDescriptions = append(out.TargetHealthDescriptions, elbtypes.TargetHealthDescription{
			TargetHealth: &elbtypes.TargetHealth{State: s},
		})
	}
	return out, nil
}

func TestServiceStatus(t *testing.T) {
	r := require.New(t)
	services := newFakeEcs()
	targets := &fakeTargets{states: []elbtypes.TargetHealthStateEnum{
		elbtypes.TargetHealthStateEnumHealthy,
		elbtypes.TargetHealthStateEnumHealthy,
		elbtypes.TargetHealthStateEnumInitial,
	}}
	reader := &StatusReader{ecs: services, elb: targets}

	status, err := reader.Status(context.Background(), testServiceARN, "arn:aws:elasticloadbalancing:eu-west-1:123456789012:targetgroup/web/abc")
	r.NoError(err)
	r.Equal("eu-west-1", services.region)
	r.Equal("eu-west-1", targets.region)
	r.Equal("web-service", status.Service)
	r.Equal(int32(3), status.Desired)
	r.Equal(int32(2), status.Running)
	r.Equal(2, status.Deployments)
	r.Equal(2, status.HealthyTargets())
	r.Equal([]string{"healthy", "initial"}, status.States())

	_, err = reader.Status(context.Background(), testServiceARN, "web-targets")
	r.ErrorIs(err, lib.BadUserInputError)
}
