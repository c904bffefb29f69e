package factories

import (
	"strings"
	"testing"
	"time"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds/aws"
	"github.com/AnotherFullstackDev/fargatectl/internal/config"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/AnotherFullstackDev/fargatectl/internal/placeholders"
	"github.com/stretchr/testify/require"
)

const testConfig = `
stacks:
  Web:
    container:
      image: "registry.example.com/{{ stack.name | lower }}:{{ env.name }}"
    environments:
      prod:
        service:
          desired_count: 6
        image:
          platform: linux/arm64
          tag: release
        rollout:
          wait_timeout: 20m
  Api:
    container:
      name: api
`

func newTestFactory(t *testing.T, stack, env string) *StackFactory {
	t.Helper()

	cfg, err := config.NewConfigFromReader(strings.NewReader(testConfig))
	require.NoError(t, err)
	if env != "" {
		cfg, err = cfg.WithEnvironment(env)
		require.NoError(t, err)
	}

	locator := NewSharedServicesLocator(cfg, placeholders.NewService(nil), func() lib.CredentialsStorage {
		t.Fatal("credentials storage must not be opened")
		return nil
	})
	return NewStackFactory(stack, locator)
}

func TestSettings(t *testing.T) {
	t.Run("resolves stack and environment placeholders", func(t *testing.T) {
		r := require.New(t)
		settings, err := newTestFactory(t, "Web", "prod").Settings()
		r.NoError(err)
		r.Equal("Web", settings.StackName)
		r.Equal("registry.example.com/web:prod", settings.Container.Image)
		r.Equal(6, settings.Service.DesiredCount)
	})

	t.Run("unknown stack", func(t *testing.T) {
		_, err := newTestFactory(t, "Worker", "").Settings()
		require.ErrorIs(t, err, lib.BadUserInputError)
	})
}

func TestNewImageService(t *testing.T) {
	r := require.New(t)

	f := newTestFactory(t, "Api", "")
	settings, err := f.Settings()
	r.NoError(err)

	svc, err := f.NewImageService(settings)
	r.NoError(err)
	r.Equal("api:v1", svc.LocalImage("v1"))

	f = newTestFactory(t, "Web", "prod")
	settings, err = f.Settings()
	r.NoError(err)
	svc, err = f.NewImageService(settings)
	r.NoError(err)
	tag, err := svc.Tag("")
	r.NoError(err)
	r.Equal("release", tag)
}

func TestEcsConfig(t *testing.T) {
	outputs := aws.StackOutputs{
		lib.OutputServiceArn:       "arn:aws:ecs:eu-west-1:123456789012:service/web-cluster/web-service",
		lib.OutputEcrRepositoryUri: "123456789012.dkr.ecr.eu-west-1.amazonaws.com/web",
	}

	t.Run("from outputs and settings", func(t *testing.T) {
		r := require.New(t)
		f := newTestFactory(t, "Api", "")
		settings, err := f.Settings()
		r.NoError(err)

		ecsCfg, err := f.EcsConfig(settings, outputs)
		r.NoError(err)
		r.Equal(outputs[lib.OutputServiceArn], ecsCfg.ServiceARN)
		r.Equal("api", ecsCfg.ContainerName)
		r.Zero(ecsCfg.WaitTimeout)
	})

	t.Run("rollout section", func(t *testing.T) {
		r := require.New(t)
		f := newTestFactory(t, "Web", "prod")
		settings, err := f.Settings()
		r.NoError(err)

		ecsCfg, err := f.EcsConfig(settings, outputs)
		r.NoError(err)
		r.Equal(20*time.Minute, ecsCfg.WaitTimeout)
		r.Equal("flask-app", ecsCfg.ContainerName)
	})

	t.Run("stack not deployed", func(t *testing.T) {
		r := require.New(t)
		f := newTestFactory(t, "Api", "")
		settings, err := f.Settings()
		r.NoError(err)

		_, err = f.EcsConfig(settings, aws.StackOutputs{})
		r.ErrorIs(err, lib.NotFoundError)
		_, err = f.NewRegistry(aws.StackOutputs{}, "v1")
		r.ErrorIs(err, lib.NotFoundError)
	})

	t.Run("registry", func(t *testing.T) {
		r := require.New(t)
		reg, err := newTestFactory(t, "Api", "").NewRegistry(outputs, "v1")
		r.NoError(err)
		ref, err := reg.GetImageRef()
		r.NoError(err)
		r.Equal("123456789012.dkr.ecr.eu-west-1.amazonaws.com/web:v1", ref)
	})
}
