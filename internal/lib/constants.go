package lib

import "fmt"

const (
	EnvKeyPrefix = "FARGATECTL"
	AppName      = "fargatectl"
)

var (
	LogLevelEnv = fmt.Sprintf("%s_%s", EnvKeyPrefix, "LOG_LEVEL")
)

var (
	GithubTokenAppEnv = fmt.Sprintf("%s_%s", EnvKeyPrefix, "GITHUB_TOKEN")
	GithubTokenEnv    = "GITHUB_TOKEN"
)

const (
	OutputLoadBalancerDNS  = "LoadBalancerDNS"
	OutputEcrRepositoryUri = "EcrRepositoryUri"
	OutputClusterName      = "ClusterName"
	OutputServiceArn       = "ServiceArn"
	OutputTargetGroupArn   = "TargetGroupArn"
	OutputPipelineName     = "PipelineName"
)
