package stack

import (
	"testing"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"
)

func synthTemplate(t *testing.T, settings Settings) (*Stack, assertions.Template) {
	t.Helper()

	app := awscdk.NewApp(nil)
	s, err := New(app, settings)
	require.NoError(t, err)

	return s, assertions.Template_FromStack(s.Stack, nil)
}

func TestStackDeclaresService(t *testing.T) {
	_, template := synthTemplate(t, DefaultSettings())

	t.Run("network", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::EC2::VPC"), map[string]any{
			"CidrBlock": "10.0.0.0/16",
		})
		template.ResourceCountIs(jsii.String("AWS::EC2::NatGateway"), jsii.Number(1))
		template.ResourceCountIs(jsii.String("AWS::ECS::Cluster"), jsii.Number(1))
	})

	t.Run("task definition", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::ECS::TaskDefinition"), map[string]any{
			"RequiresCompatibilities": []any{"FARGATE"},
			"ContainerDefinitions": []any{
				map[string]any{
					"Name":   "flask-app",
					"Image":  "nikunjv/flask-image:blue",
					"Cpu":    256,
					"Memory": 256,
					"PortMappings": []any{
						map[string]any{"ContainerPort": 5000, "Protocol": "tcp"},
					},
					"LogConfiguration": map[string]any{
						"LogDriver": "awslogs",
						"Options": map[string]any{
							"awslogs-stream-prefix": "ecs-logs",
						},
					},
				},
			},
		})

		template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]any{
			"RoleName": "ecs-taskRole",
			"AssumeRolePolicyDocument": map[string]any{
				"Statement": []any{
					map[string]any{"Principal": map[string]any{"Service": "ecs-tasks.amazonaws.com"}},
				},
			},
		})

		template.HasResourceProperties(jsii.String("AWS::IAM::Policy"), map[string]any{
			"PolicyDocument": map[string]any{
				"Statement": assertions.Match_ArrayWith(&[]any{
					map[string]any{
						"Effect":   "Allow",
						"Resource": "*",
						"Action": []any{
							"ecr:GetAuthorizationToken",
							"ecr:BatchCheckLayerAvailability",
							"ecr:GetDownloadUrlForLayer",
							"ecr:BatchGetImage",
							"logs:CreateLogStream",
							"logs:PutLogEvents",
						},
					},
				}),
			},
		})
	})

	t.Run("load balanced service", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::ECS::Service"), map[string]any{
			"DesiredCount": 3,
			"LaunchType":   "FARGATE",
		})
		template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), map[string]any{
			"Scheme": "internet-facing",
		})
		template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]any{
			"Port": 80,
		})
	})

	t.Run("autoscaling", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::ApplicationAutoScaling::ScalableTarget"), map[string]any{
			"MaxCapacity": 6,
		})
		template.HasResourceProperties(jsii.String("AWS::ApplicationAutoScaling::ScalingPolicy"), map[string]any{
			"PolicyType": "TargetTrackingScaling",
			"TargetTrackingScalingPolicyConfiguration": map[string]any{
				"TargetValue":      10,
				"ScaleInCooldown":  300,
				"ScaleOutCooldown": 300,
				"PredefinedMetricSpecification": map[string]any{
					"PredefinedMetricType": "ECSServiceAverageCPUUtilization",
				},
			},
		})
	})

	t.Run("build project", func(t *testing.T) {
		template.ResourceCountIs(jsii.String("AWS::ECR::Repository"), jsii.Number(1))
		template.HasResourceProperties(jsii.String("AWS::CodeBuild::Project"), map[string]any{
			"Source": map[string]any{
				"Type":     "GITHUB",
				"Location": "https://github.com/samuelhailemariam/aws-ecs-fargate-cicd-cdk.git",
			},
			"Environment": map[string]any{
				"PrivilegedMode": true,
			},
			"Triggers": map[string]any{
				"Webhook": true,
			},
		})
		for _, name := range []string{"CLUSTER_NAME", "ECR_REPO_URI"} {
			template.HasResourceProperties(jsii.String("AWS::CodeBuild::Project"), map[string]any{
				"Environment": map[string]any{
					"EnvironmentVariables": assertions.Match_ArrayWith(&[]any{
						assertions.Match_ObjectLike(&map[string]any{"Name": name, "Type": "PLAINTEXT"}),
					}),
				},
			})
		}
	})

	t.Run("build project webhook", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::CodeBuild::Project"), map[string]any{
			"Triggers": map[string]any{
				"FilterGroups": []any{
					[]any{
						map[string]any{"Type": "EVENT", "Pattern": "PUSH"},
						map[string]any{"Type": "HEAD_REF", "Pattern": "refs/heads/main"},
					},
				},
			},
		})
	})

	t.Run("build project spec", func(t *testing.T) {
		for _, pattern := range []string{
			`"version": "0.2"`,
			`"cd docker-app"`,
			`docker push \$ECR_REPO_URI:\$TAG`,
			`"name\\":\\"flask-app\\"`,
			`"imagedefinitions.json"`,
		} {
			template.HasResourceProperties(jsii.String("AWS::CodeBuild::Project"), map[string]any{
				"Source": map[string]any{
					"BuildSpec": assertions.Match_StringLikeRegexp(jsii.String(pattern)),
				},
			})
		}
	})

	t.Run("pipeline stages", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]any{
			"Stages": []any{
				map[string]any{"Name": "Source", "Actions": []any{map[string]any{"Name": "GitHub_Source"}}},
				map[string]any{"Name": "Build", "Actions": []any{map[string]any{"Name": "codeBuild"}}},
				map[string]any{"Name": "Approve", "Actions": []any{map[string]any{"Name": "Approve"}}},
				map[string]any{"Name": "Deploy-to-ECS", "Actions": []any{map[string]any{"Name": "DeployAction"}}},
			},
		})
	})

	t.Run("pipeline actions", func(t *testing.T) {
		template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]any{
			"Stages": assertions.Match_ArrayWith(&[]any{
				assertions.Match_ObjectLike(&map[string]any{
					"Name": "Source",
					"Actions": []any{
						assertions.Match_ObjectLike(&map[string]any{
							"Configuration": assertions.Match_ObjectLike(&map[string]any{
								"Owner":      "samuelhailemariam",
								"Repo":       "aws-ecs-fargate-cicd-cdk",
								"Branch":     "master",
								"OAuthToken": assertions.Match_StringLikeRegexp(jsii.String(`\{\{resolve:secretsmanager:/my/github/token:SecretString:`)),
							}),
							"OutputArtifacts": []any{map[string]any{"Name": "source"}},
						}),
					},
				}),
				assertions.Match_ObjectLike(&map[string]any{
					"Name": "Build",
					"Actions": []any{
						assertions.Match_ObjectLike(&map[string]any{
							"InputArtifacts":  []any{map[string]any{"Name": "source"}},
							"OutputArtifacts": []any{map[string]any{"Name": "build"}},
						}),
					},
				}),
				assertions.Match_ObjectLike(&map[string]any{
					"Name": "Deploy-to-ECS",
					"Actions": []any{
						assertions.Match_ObjectLike(&map[string]any{
							"ActionTypeId": assertions.Match_ObjectLike(&map[string]any{"Provider": "ECS"}),
							"Configuration": assertions.Match_ObjectLike(&map[string]any{
								"FileName": "imagedefinitions.json",
							}),
							"InputArtifacts": []any{map[string]any{"Name": "build"}},
						}),
					},
				}),
			}),
		})
	})

	t.Run("grants", func(t *testing.T) {
		for _, action := range DefaultSettings().Build.ProjectActions {
			template.HasResourceProperties(jsii.String("AWS::IAM::Policy"), map[string]any{
				"PolicyDocument": assertions.Match_ObjectLike(&map[string]any{
					"Statement": assertions.Match_ArrayWith(&[]any{
						assertions.Match_ObjectLike(&map[string]any{
							"Action":   assertions.Match_ArrayWith(&[]any{action}),
							"Effect":   "Allow",
							"Resource": assertions.Match_ObjectLike(&map[string]any{"Fn::GetAtt": assertions.Match_ArrayWith(&[]any{"Arn"})}),
						}),
					}),
				}),
			})
		}

		for _, action := range []string{"ecr:PutImage", "ecr:InitiateLayerUpload", "ecr:UploadLayerPart", "ecr:CompleteLayerUpload", "ecr:BatchGetImage"} {
			template.HasResourceProperties(jsii.String("AWS::IAM::Policy"), map[string]any{
				"PolicyDocument": assertions.Match_ObjectLike(&map[string]any{
					"Statement": assertions.Match_ArrayWith(&[]any{
						assertions.Match_ObjectLike(&map[string]any{
							"Action": assertions.Match_ArrayWith(&[]any{action}),
							"Effect": "Allow",
						}),
					}),
				}),
			})
		}
	})

	t.Run("outputs", func(t *testing.T) {
		for _, id := range []string{
			lib.OutputLoadBalancerDNS,
			lib.OutputEcrRepositoryUri,
			lib.OutputClusterName,
			lib.OutputServiceArn,
			lib.OutputTargetGroupArn,
			lib.OutputPipelineName,
		} {
			template.HasOutput(jsii.String(id), map[string]any{})
		}
	})
}

func TestStackHonoursOverrides(t *testing.T) {
	settings := DefaultSettings()
	settings.StackName = "Web"
	settings.Service.DesiredCount = 1
	settings.Scaling.MaxCapacity = 2
	settings.Pipeline.ManualApproval = false

	s, template := synthTemplate(t, settings)

	template.HasResourceProperties(jsii.String("AWS::ECS::Service"), map[string]any{"DesiredCount": 1})
	template.HasResourceProperties(jsii.String("AWS::ApplicationAutoScaling::ScalableTarget"), map[string]any{"MaxCapacity": 2})
	template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]any{
		"Stages": []any{
			map[string]any{"Name": "Source"},
			map[string]any{"Name": "Build"},
			map[string]any{"Name": "Deploy-to-ECS"},
		},
	})

	r := require.New(t)
	r.Equal("Web", *s.StackName())
	r.NotNil(s.ClusterAdminRole)
}

func TestStackPlan(t *testing.T) {
	r := require.New(t)
	s, _ := synthTemplate(t, DefaultSettings())

	order, err := s.Plan.Order()
	r.NoError(err)
	r.Len(order, 13)

	position := map[string]int{}
	for i, name := range order {
		position[name] = i
	}
	r.Less(position[ComponentNetwork], position[ComponentCluster])
	r.Less(position[ComponentContainer], position[ComponentService])
	r.Less(position[ComponentService], position[ComponentAutoscaling])
	r.Less(position[ComponentBuildProject], position[ComponentPipeline])
	r.Equal(ComponentOutputs, order[len(order)-1])
}

func TestStackRejectsInvalidSettings(t *testing.T) {
	r := require.New(t)
	settings := DefaultSettings()
	settings.Network.CIDR = "10.0.0.0"

	_, err := New(awscdk.NewApp(nil), settings)
	r.ErrorIs(err, lib.BadUserInputError)
}
