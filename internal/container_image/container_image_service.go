package container_image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"dagger.io/dagger"
	"github.com/AnotherFullstackDev/fargatectl/internal/container_image/registry"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/daemon"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"golang.org/x/term"
)

type Service struct {
	config               Config
	repository           string
	placeholdersResolver PlaceholdersResolver
}

// NewService builds images named <repository>:<tag> in the local daemon. repository is
// usually the container name of the stack.
func NewService(config Config, repository string, resolver PlaceholdersResolver) *Service {
	return &Service{
		config:               config,
		repository:           repository,
		placeholdersResolver: resolver,
	}
}

// Tag resolves the tag to use. An empty override falls back to the configured tag.
func (s *Service) Tag(override string) (string, error) {
	tag := override
	if tag == "" {
		tag = s.config.Tag
	}

	resolved, err := s.placeholdersResolver.ResolvePlaceholders(tag)
	if err != nil {
		return "", fmt.Errorf("resolving image tag '%s': %w", tag, err)
	}
	if resolved == "" {
		return "", fmt.Errorf("%w - image tag resolved to an empty string", lib.BadUserInputError)
	}

	return resolved, nil
}

func (s *Service) LocalImage(tag string) string {
	return fmt.Sprintf("%s:%s", s.repository, tag)
}

func (s *Service) buildArgs() ([]dagger.BuildArg, error) {
	args := make([]dagger.BuildArg, 0, len(s.config.BuildArgs))
	for _, k := range slices.Sorted(maps.Keys(s.config.BuildArgs)) {
		v := s.config.BuildArgs[k]
		resolved, err := s.placeholdersResolver.ResolvePlaceholders(v)
		if err != nil {
			return nil, fmt.Errorf("resolving placeholder in build arg '%s'='%s': %w", k, v, err)
		}
		args = append(args, dagger.BuildArg{Name: strings.ToUpper(k), Value: resolved})
	}
	return args, nil
}

func (s *Service) validate() error {
	if s.config.Dir == "" {
		return fmt.Errorf("%w - no docker directory configured for image build", lib.BadUserInputError)
	}
	switch s.config.Platform {
	case lib.PlatformLinuxAmd64, lib.PlatformLinuxArm64:
	default:
		return fmt.Errorf("%w - unsupported platform '%s', supported are %s, %s", lib.BadUserInputError, s.config.Platform, lib.PlatformLinuxAmd64, lib.PlatformLinuxArm64)
	}

	stat, err := os.Stat(s.config.Dir)
	if err != nil {
		return fmt.Errorf("%w - docker directory '%s': %w", lib.BadUserInputError, s.config.Dir, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("%w - docker directory '%s' is not a directory", lib.BadUserInputError, s.config.Dir)
	}

	return nil
}

// BuildImage runs the Dockerfile of the configured directory in a Dagger engine and exports
// the result to the local Docker daemon as localImage.
func (s *Service) BuildImage(ctx context.Context, localImage string) error {
	l := slog.With("context", "container_image_service")

	if err := s.validate(); err != nil {
		return err
	}

	buildArgs, err := s.buildArgs()
	if err != nil {
		return err
	}

	l.Info("building docker image",
		"dir", s.config.Dir,
		"dockerfile", s.config.Dockerfile,
		"platform", s.config.Platform,
		"image", localImage)

	client, err := dagger.Connect(
		ctx,
		dagger.WithLogOutput(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to Dagger: %w", err)
	}
	defer client.Close()

	err = client.Host().
		Directory(s.config.Dir).
		DockerBuild(dagger.DirectoryDockerBuildOpts{
			Dockerfile: s.config.Dockerfile,
			Platform:   dagger.Platform(s.config.Platform),
			BuildArgs:  buildArgs,
		}).
		ExportImage(ctx, localImage)
	if err != nil {
		return fmt.Errorf("building docker image: %w", err)
	}

	l.Info("docker image built successfully", "image", localImage)
	return nil
}

// PushImage copies localImage from the Docker daemon to the registry and returns the
// destination reference.
func (s *Service) PushImage(ctx context.Context, localImage string, reg registry.Registry) (string, error) {
	destRef, err := reg.GetImageRef()
	if err != nil {
		return "", fmt.Errorf("getting image reference from registry: %w", err)
	}

	srcRef, err := name.NewTag(localImage)
	if err != nil {
		return "", fmt.Errorf("parsing source image tag: %w", err)
	}

	image, err := daemon.Image(srcRef, daemon.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("getting image from local daemon: %w", err)
	}

	destTag, err := name.NewTag(destRef)
	if err != nil {
		return "", fmt.Errorf("parsing destination image tag: %w", err)
	}

	progressChan := make(chan v1.Update, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		reportProgress(os.Stdout, os.Stderr, progressChan)
	}()

	imageConfig, err := image.ConfigFile()
	if err != nil {
		close(progressChan)
		<-done
		return "", fmt.Errorf("getting image config file: %w", err)
	}

	slog.InfoContext(ctx, "pushing image to remote registry",
		"source", srcRef,
		"dest", destTag,
		"os", imageConfig.OS,
		"architecture", imageConfig.Architecture)

	startTime := time.Now()
	maxUploadJobs := int(math.Min(16, float64(runtime.NumCPU())))
	options := []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(reg.GetKeychain()),
		remote.WithProgress(progressChan),
		remote.WithJobs(maxUploadJobs),
		remote.WithPlatform(v1.Platform{
			Architecture: imageConfig.Architecture,
			OS:           imageConfig.OS,
			OSFeatures:   imageConfig.OSFeatures,
			OSVersion:    imageConfig.OSVersion,
			Variant:      imageConfig.Variant,
		}),
	}
	err = remote.Write(destTag, image, options...)
	<-done
	if err != nil {
		return "", fmt.Errorf("pushing image to remote registry: %w", err)
	}

	slog.InfoContext(ctx, "image pushed successfully",
		"source", srcRef,
		"destination", destRef,
		"duration", fmt.Sprintf("%f seconds", time.Since(startTime).Seconds()))

	return destRef, nil
}

// reportProgress drains updates until the channel is closed. Percentages are only printed
// on a terminal.
func reportProgress(stdout io.Writer, stderr io.Writer, updates <-chan v1.Update) {
	tty := false
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tty = true
	}

	var lastUpdateTime time.Time
	for update := range updates {
		if update.Error != nil {
			fmt.Fprintf(stderr, "Error: %v\n", update.Error)
			continue
		}
		if !tty || update.Total <= 0 {
			continue
		}
		if time.Since(lastUpdateTime) <= 500*time.Millisecond {
			continue
		}
		lastUpdateTime = time.Now()

		percentage := float64(update.Complete) / float64(update.Total) * 100
		fmt.Fprintf(stdout, "Image push: %.2f%% complete\n", percentage)
	}
}
