package stack

import (
	"errors"
	"fmt"
	"net/netip"
	"path"
	"strings"
	"time"

	"github.com/AnotherFullstackDev/fargatectl/internal/config"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
)

const DefaultStackName = "EcsfargatecdkStack"

type Settings struct {
	StackName string `mapstructure:"stack_name"`
	Account   string `mapstructure:"account"`
	Region    string `mapstructure:"region"`

	Network   NetworkSettings   `mapstructure:"network"`
	Cluster   ClusterSettings   `mapstructure:"cluster"`
	Task      TaskSettings      `mapstructure:"task"`
	Container ContainerSettings `mapstructure:"container"`
	Service   ServiceSettings   `mapstructure:"service"`
	Scaling   ScalingSettings   `mapstructure:"scaling"`
	Source    SourceSettings    `mapstructure:"source"`
	Build     BuildSettings     `mapstructure:"build"`
	Pipeline  PipelineSettings  `mapstructure:"pipeline"`
}

type NetworkSettings struct {
	CIDR        string `mapstructure:"cidr"`
	NatGateways int    `mapstructure:"nat_gateways"`
	MaxAzs      int    `mapstructure:"max_azs"`
}

type ClusterSettings struct {
	AdminRole bool `mapstructure:"admin_role"`
}

type TaskSettings struct {
	RoleName         string   `mapstructure:"role_name"`
	LogStreamPrefix  string   `mapstructure:"log_stream_prefix"`
	ExecutionActions []string `mapstructure:"execution_actions"`
}

type ContainerSettings struct {
	Name           string `mapstructure:"name"`
	Image          string `mapstructure:"image"`
	CPU            int    `mapstructure:"cpu"`
	MemoryLimitMiB int    `mapstructure:"memory_limit_mib"`
	Port           int    `mapstructure:"port"`
}

type ServiceSettings struct {
	DesiredCount       int  `mapstructure:"desired_count"`
	ListenerPort       int  `mapstructure:"listener_port"`
	PublicLoadBalancer bool `mapstructure:"public_load_balancer"`
}

type ScalingSettings struct {
	MaxCapacity      int           `mapstructure:"max_capacity"`
	CPUTargetPercent int           `mapstructure:"cpu_target_percent"`
	ScaleInCooldown  time.Duration `mapstructure:"scale_in_cooldown"`
	ScaleOutCooldown time.Duration `mapstructure:"scale_out_cooldown"`
}

type SourceSettings struct {
	Owner          string `mapstructure:"owner"`
	Repo           string `mapstructure:"repo"`
	WebhookBranch  string `mapstructure:"webhook_branch"`
	PipelineBranch string `mapstructure:"pipeline_branch"`
	TokenSecret    string `mapstructure:"token_secret"`
}

type BuildSettings struct {
	DockerDir            string   `mapstructure:"docker_dir"`
	ImageDefinitionsFile string   `mapstructure:"image_definitions_file"`
	Privileged           bool     `mapstructure:"privileged"`
	ProjectActions       []string `mapstructure:"project_actions"`
}

type PipelineSettings struct {
	ManualApproval   bool   `mapstructure:"manual_approval"`
	SourceStageName  string `mapstructure:"source_stage_name"`
	BuildStageName   string `mapstructure:"build_stage_name"`
	ApproveStageName string `mapstructure:"approve_stage_name"`
	DeployStageName  string `mapstructure:"deploy_stage_name"`
}

func DefaultSettings() Settings {
	return Settings{
		StackName: DefaultStackName,
		Network: NetworkSettings{
			CIDR:        "10.0.0.0/16",
			NatGateways: 1,
			MaxAzs:      3,
		},
		Cluster: ClusterSettings{AdminRole: true},
		Task: TaskSettings{
			RoleName:        "ecs-taskRole",
			LogStreamPrefix: "ecs-logs",
			ExecutionActions: []string{
				"ecr:GetAuthorizationToken",
				"ecr:BatchCheckLayerAvailability",
				"ecr:GetDownloadUrlForLayer",
				"ecr:BatchGetImage",
				"logs:CreateLogStream",
				"logs:PutLogEvents",
			},
		},
		Container: ContainerSettings{
			Name:           "flask-app",
			Image:          "nikunjv/flask-image:blue",
			CPU:            256,
			MemoryLimitMiB: 256,
			Port:           5000,
		},
		Service: ServiceSettings{
			DesiredCount:       3,
			ListenerPort:       80,
			PublicLoadBalancer: true,
		},
		Scaling: ScalingSettings{
			MaxCapacity:      6,
			CPUTargetPercent: 10,
			ScaleInCooldown:  300 * time.Second,
			ScaleOutCooldown: 300 * time.Second,
		},
		Source: SourceSettings{
			Owner:          "samuelhailemariam",
			Repo:           "aws-ecs-fargate-cicd-cdk",
			WebhookBranch:  "main",
			PipelineBranch: "master",
			TokenSecret:    "/my/github/token",
		},
		Build: BuildSettings{
			DockerDir:            "docker-app",
			ImageDefinitionsFile: "imagedefinitions.json",
			Privileged:           true,
			ProjectActions: []string{
				"ecs:DescribeCluster",
				"ecr:GetAuthorizationToken",
				"ecr:BatchCheckLayerAvailability",
				"ecr:BatchGetImage",
				"ecr:GetDownloadUrlForLayer",
			},
		},
		Pipeline: PipelineSettings{
			ManualApproval:   true,
			SourceStageName:  "Source",
			BuildStageName:   "Build",
			ApproveStageName: "Approve",
			DeployStageName:  "Deploy-to-ECS",
		},
	}
}

type PlaceholdersResolver interface {
	ResolvePlaceholders(input string) (string, error)
}

// LoadSettings overlays the stack section of cfg on the defaults and resolves placeholders in
// the values that commonly carry them.
func LoadSettings(cfg *config.Config, name string, resolver PlaceholdersResolver) (Settings, error) {
	defaults := DefaultSettings()

	// lists are decoded into nil slices, mapstructure would otherwise overwrite defaults element-wise
	settings := defaults
	settings.StackName = name
	settings.Task.ExecutionActions = nil
	settings.Build.ProjectActions = nil

	if err := cfg.LoadStackConfigPart(&settings, name); err != nil {
		return Settings{}, fmt.Errorf("loading stack settings: %w", err)
	}
	if settings.Task.ExecutionActions == nil {
		settings.Task.ExecutionActions = defaults.Task.ExecutionActions
	}
	if settings.Build.ProjectActions == nil {
		settings.Build.ProjectActions = defaults.Build.ProjectActions
	}

	if resolver != nil {
		fields := []*string{
			&settings.StackName,
			&settings.Container.Image,
			&settings.Source.WebhookBranch,
			&settings.Source.PipelineBranch,
			&settings.Source.TokenSecret,
		}
		for _, field := range fields {
			resolved, err := resolver.ResolvePlaceholders(*field)
			if err != nil {
				return Settings{}, fmt.Errorf("resolving placeholders in %q: %w", *field, err)
			}
			*field = resolved
		}
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// Validate checks the shape of the settings. Provider-side rules (valid CPU/memory pairs,
// action names) are left to the deployment engine.
func (s Settings) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(s.StackName != "", "stack_name is required")
	if _, err := netip.ParsePrefix(s.Network.CIDR); err != nil {
		problems = append(problems, fmt.Sprintf("network.cidr %q is not a CIDR block", s.Network.CIDR))
	}
	check(s.Network.NatGateways >= 0, "network.nat_gateways must not be negative")
	check(s.Network.MaxAzs > 0, "network.max_azs must be positive")
	check(s.Task.LogStreamPrefix != "", "task.log_stream_prefix is required")
	check(s.Container.Name != "", "container.name is required")
	check(s.Container.Image != "", "container.image is required")
	check(s.Container.CPU > 0, "container.cpu must be positive")
	check(s.Container.MemoryLimitMiB > 0, "container.memory_limit_mib must be positive")
	check(validPort(s.Container.Port), "container.port %d is out of range", s.Container.Port)
	check(validPort(s.Service.ListenerPort), "service.listener_port %d is out of range", s.Service.ListenerPort)
	check(s.Service.DesiredCount >= 0, "service.desired_count must not be negative")
	check(s.Scaling.MaxCapacity > 0, "scaling.max_capacity must be positive")
	check(s.Scaling.CPUTargetPercent > 0 && s.Scaling.CPUTargetPercent <= 100, "scaling.cpu_target_percent must be within 1..100")
	check(s.Scaling.ScaleInCooldown >= 0 && s.Scaling.ScaleOutCooldown >= 0, "scaling cooldowns must not be negative")
	check(s.Source.Owner != "" && s.Source.Repo != "", "source.owner and source.repo are required")
	check(s.Source.PipelineBranch != "", "source.pipeline_branch is required")
	check(s.Source.TokenSecret != "", "source.token_secret is required")
	check(s.Build.ImageDefinitionsFile != "", "build.image_definitions_file is required")
	check(s.Build.DockerDir != "" && !path.IsAbs(s.Build.DockerDir) && !strings.HasPrefix(path.Clean(s.Build.DockerDir), ".."),
		"build.docker_dir must be a relative path inside the repository")

	seen := map[string]struct{}{}
	for _, name := range s.Pipeline.StageNames() {
		if name == "" {
			problems = append(problems, "pipeline stage names must not be empty")
			continue
		}
		if _, ok := seen[name]; ok {
			problems = append(problems, fmt.Sprintf("pipeline stage name %q is used twice", name))
		}
		seen[name] = struct{}{}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w - invalid stack settings: %w", lib.BadUserInputError, errors.New(strings.Join(problems, "; ")))
}

// StageNames lists the pipeline stages in declaration order.
func (p PipelineSettings) StageNames() []string {
	names := []string{p.SourceStageName, p.BuildStageName}
	if p.ManualApproval {
		names = append(names, p.ApproveStageName)
	}
	return append(names, p.DeployStageName)
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
