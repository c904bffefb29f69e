package stack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipelineactions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/jsii-runtime-go"
)

const (
	sourceActionName   = "GitHub_Source"
	buildActionName    = "codeBuild"
	approveActionName  = "Approve"
	deployActionName   = "DeployAction"
	envClusterName     = "CLUSTER_NAME"
	envRepositoryURI   = "ECR_REPO_URI"
	sourceArtifactName = "source"
	buildArtifactName  = "build"
)

func (s *Stack) declareRepository() {
	s.Repository = awsecr.NewRepository(s.Stack, jsii.String("EcrRepo"), &awsecr.RepositoryProps{})
}

func (s *Stack) declareBuildProject() {
	src := s.Settings.Source

	var webhookFilters *[]awscodebuild.FilterGroup
	if src.WebhookBranch != "" {
		webhookFilters = &[]awscodebuild.FilterGroup{
			awscodebuild.FilterGroup_InEventOf(awscodebuild.EventAction_PUSH).AndBranchIs(jsii.String(src.WebhookBranch)),
		}
	}

	buildSpec := BuildSpec(s.Settings).Object()

	s.Project = awscodebuild.NewProject(s.Stack, jsii.String("ECSProject"), &awscodebuild.ProjectProps{
		ProjectName: awscdk.Aws_STACK_NAME(),
		Source: awscodebuild.Source_GitHub(&awscodebuild.GitHubSourceProps{
			Owner:          jsii.String(src.Owner),
			Repo:           jsii.String(src.Repo),
			Webhook:        jsii.Bool(true),
			WebhookFilters: webhookFilters,
		}),
		Environment: &awscodebuild.BuildEnvironment{
			BuildImage: awscodebuild.LinuxBuildImage_AMAZON_LINUX_2_2(),
			Privileged: jsii.Bool(s.Settings.Build.Privileged),
		},
		EnvironmentVariables: &map[string]*awscodebuild.BuildEnvironmentVariable{
			envClusterName:   {Value: s.Cluster.ClusterName()},
			envRepositoryURI: {Value: s.Repository.RepositoryUri()},
		},
		BuildSpec: awscodebuild.BuildSpec_FromObject(&buildSpec),
	})
}

func (s *Stack) declarePipeline() {
	src := s.Settings.Source
	stages := s.Settings.Pipeline

	sourceOutput := awscodepipeline.NewArtifact(jsii.String(sourceArtifactName))
	buildOutput := awscodepipeline.NewArtifact(jsii.String(buildArtifactName))

	s.Pipeline = awscodepipeline.NewPipeline(s.Stack, jsii.String("ECSPipeline"), &awscodepipeline.PipelineProps{})

	s.Pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String(stages.SourceStageName),
		Actions: &[]awscodepipeline.IAction{
			awscodepipelineactions.NewGitHubSourceAction(&awscodepipelineactions.GitHubSourceActionProps{
				ActionName: jsii.String(sourceActionName),
				Owner:      jsii.String(src.Owner),
				Repo:       jsii.String(src.Repo),
				Branch:     jsii.String(src.PipelineBranch),
				OauthToken: awscdk.SecretValue_SecretsManager(jsii.String(src.TokenSecret), nil),
				Output:     sourceOutput,
			}),
		},
	})

	s.Pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String(stages.BuildStageName),
		Actions: &[]awscodepipeline.IAction{
			awscodepipelineactions.NewCodeBuildAction(&awscodepipelineactions.CodeBuildActionProps{
				ActionName: jsii.String(buildActionName),
				Project:    s.Project,
				Input:      sourceOutput,
				Outputs:    &[]awscodepipeline.Artifact{buildOutput},
			}),
		},
	})

	if stages.ManualApproval {
		s.Pipeline.AddStage(&awscodepipeline.StageOptions{
			StageName: jsii.String(stages.ApproveStageName),
			Actions: &[]awscodepipeline.IAction{
				awscodepipelineactions.NewManualApprovalAction(&awscodepipelineactions.ManualApprovalActionProps{
					ActionName: jsii.String(approveActionName),
				}),
			},
		})
	}

	s.Pipeline.AddStage(&awscodepipeline.StageOptions{
		StageName: jsii.String(stages.DeployStageName),
		Actions: &[]awscodepipeline.IAction{
			awscodepipelineactions.NewEcsDeployAction(&awscodepipelineactions.EcsDeployActionProps{
				ActionName: jsii.String(deployActionName),
				Service:    s.Service.Service(),
				ImageFile:  buildOutput.AtPath(jsii.String(s.Settings.Build.ImageDefinitionsFile)),
			}),
		},
	})
}

func (s *Stack) declareGrants() {
	s.Repository.GrantPullPush(s.Project.Role())

	if len(s.Settings.Build.ProjectActions) > 0 {
		s.Project.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Resources: &[]*string{s.Cluster.ClusterArn()},
			Actions:   jsii.Strings(s.Settings.Build.ProjectActions...),
		}))
	}
}
