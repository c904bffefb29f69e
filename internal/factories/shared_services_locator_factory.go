package factories

import (
	"fmt"
	"log/slog"

	"github.com/AnotherFullstackDev/fargatectl/internal/config"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/AnotherFullstackDev/fargatectl/internal/placeholders"
	"github.com/AnotherFullstackDev/fargatectl/internal/placeholders/git"
)

// Options are the global flags every command receives.
type Options struct {
	ConfigPath string
	Stack      string
	Env        string
}

type SharedServicesLocator struct {
	Config              *config.Config
	PlaceholdersService *placeholders.Service
	// CredentialsStorage is opened on first use, synthesis never touches the OS keyring.
	CredentialsStorage func() lib.CredentialsStorage
}

func NewSharedServicesLocator(config *config.Config, placeholders *placeholders.Service, credentialsStorage func() lib.CredentialsStorage) *SharedServicesLocator {
	return &SharedServicesLocator{
		config,
		placeholders,
		credentialsStorage,
	}
}

func (l *SharedServicesLocator) WithConfig(config *config.Config) *SharedServicesLocator {
	return &SharedServicesLocator{
		config,
		l.PlaceholdersService,
		l.CredentialsStorage,
	}
}

// Locate loads the config file named by opts and narrows it to opts.Env when set.
func Locate(opts Options, credentialsStorage func() lib.CredentialsStorage) (*SharedServicesLocator, error) {
	cfg, err := config.NewConfigFromPath(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("%w - loading config %s: %w", lib.BadUserInputError, opts.ConfigPath, err)
	}

	locator := NewSharedServicesLocator(cfg, placeholders.NewService(openRepositoryInfo()), credentialsStorage)
	if opts.Env == "" {
		return locator, nil
	}

	envSpecificConfig, err := cfg.WithEnvironment(opts.Env)
	if err != nil {
		return nil, fmt.Errorf("loading environment specific config: %w", err)
	}

	return locator.WithConfig(envSpecificConfig), nil
}

func openRepositoryInfo() git.RepositoryInfoService {
	repoInfo, err := git.NewRepositoryInfoService(".")
	if err != nil {
		slog.Debug("git placeholders are unavailable", "error", err)
		return nil
	}
	return repoInfo
}

// Provider builds the factory of the stack selected by the global flags. Commands call it
// after flag parsing.
type Provider func() (*StackFactory, error)
