package stack

import (
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func (s *Stack) declareOutputs() {
	outputs := []struct {
		id, description string
		value           *string
	}{
		{lib.OutputLoadBalancerDNS, "Public DNS name of the service load balancer", s.Service.LoadBalancer().LoadBalancerDnsName()},
		{lib.OutputEcrRepositoryUri, "Repository the pipeline pushes images to", s.Repository.RepositoryUri()},
		{lib.OutputClusterName, "ECS cluster name", s.Cluster.ClusterName()},
		{lib.OutputServiceArn, "ECS service ARN", s.Service.Service().ServiceArn()},
		{lib.OutputTargetGroupArn, "Load balancer target group ARN", s.Service.TargetGroup().TargetGroupArn()},
		{lib.OutputPipelineName, "CodePipeline name", s.Pipeline.PipelineName()},
	}

	for _, o := range outputs {
		awscdk.NewCfnOutput(s.Stack, jsii.String(o.id), &awscdk.CfnOutputProps{
			Value:       o.value,
			Description: jsii.String(o.description),
		})
	}
}
