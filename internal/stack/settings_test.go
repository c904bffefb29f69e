package stack

import (
	"strings"
	"testing"
	"time"

	"github.com/AnotherFullstackDev/fargatectl/internal/config"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/stretchr/testify/require"
)

const settingsYAML = `
stacks:
  bare: {}
  blank:
  web:
    stack_name: WebStack
    container:
      image: "123456789012.dkr.ecr.eu-west-1.amazonaws.com/web:{{ branch }}"
    task:
      execution_actions:
        - logs:PutLogEvents
    scaling:
      scale_in_cooldown: 60s
    environments:
      prod:
        service:
          desired_count: 6
        pipeline:
          manual_approval: false
`

type staticResolver map[string]string

func (r staticResolver) ResolvePlaceholders(input string) (string, error) {
	for k, v := range r {
		input = strings.ReplaceAll(input, "{{ "+k+" }}", v)
	}
	return input, nil
}

func TestLoadSettings(t *testing.T) {
	cfg, err := config.NewConfigFromReader(strings.NewReader(settingsYAML))
	require.NoError(t, err)

	t.Run("overlays config on defaults", func(t *testing.T) {
		r := require.New(t)
		settings, err := LoadSettings(cfg, "web", staticResolver{"branch": "main"})
		r.NoError(err)

		r.Equal("WebStack", settings.StackName)
		r.Equal("123456789012.dkr.ecr.eu-west-1.amazonaws.com/web:main", settings.Container.Image)
		r.Equal("flask-app", settings.Container.Name)
		r.Equal(5000, settings.Container.Port)
		r.Equal([]string{"logs:PutLogEvents"}, settings.Task.ExecutionActions)
		r.Equal(DefaultSettings().Build.ProjectActions, settings.Build.ProjectActions)
		r.Equal(60*time.Second, settings.Scaling.ScaleInCooldown)
		r.Equal(300*time.Second, settings.Scaling.ScaleOutCooldown)
		r.Equal(3, settings.Service.DesiredCount)
		r.True(settings.Pipeline.ManualApproval)
	})

	t.Run("applies environment overrides", func(t *testing.T) {
		r := require.New(t)
		prod, err := cfg.WithEnvironment("prod")
		r.NoError(err)

		settings, err := LoadSettings(prod, "web", staticResolver{"branch": "main"})
		r.NoError(err)
		r.Equal(6, settings.Service.DesiredCount)
		r.False(settings.Pipeline.ManualApproval)
		r.Equal([]string{"Source", "Build", "Deploy-to-ECS"}, settings.Pipeline.StageNames())
	})

	t.Run("declared stack without values gets defaults", func(t *testing.T) {
		for _, name := range []string{"bare", "Blank"} {
			r := require.New(t)
			settings, err := LoadSettings(cfg, name, staticResolver{})
			r.NoError(err, name)

			expected := DefaultSettings()
			expected.StackName = name
			r.Equal(expected, settings)
		}

		prod, err := cfg.WithEnvironment("prod")
		require.NoError(t, err)
		settings, err := LoadSettings(prod, "bare", nil)
		require.NoError(t, err)
		require.Equal(t, 3, settings.Service.DesiredCount)
	})

	t.Run("fails for unknown stack", func(t *testing.T) {
		r := require.New(t)
		_, err := LoadSettings(cfg, "api", nil)
		r.ErrorIs(err, lib.BadUserInputError)
	})
}

func TestSettingsValidate(t *testing.T) {
	r := require.New(t)
	r.NoError(DefaultSettings().Validate())

	settings := DefaultSettings()
	settings.Network.CIDR = "not-a-cidr"
	settings.Container.Port = 70000
	settings.Scaling.CPUTargetPercent = 0
	settings.Build.DockerDir = "../outside"
	settings.Pipeline.BuildStageName = "Source"

	err := settings.Validate()
	r.ErrorIs(err, lib.BadUserInputError)
	r.ErrorContains(err, "network.cidr")
	r.ErrorContains(err, "container.port 70000")
	r.ErrorContains(err, "cpu_target_percent")
	r.ErrorContains(err, "docker_dir")
	r.ErrorContains(err, `"Source" is used twice`)
}
