package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AnotherFullstackDev/fargatectl/cmd/fargatectl/image"
	"github.com/AnotherFullstackDev/fargatectl/cmd/fargatectl/secret"
	"github.com/AnotherFullstackDev/fargatectl/cmd/fargatectl/service"
	stackcmd "github.com/AnotherFullstackDev/fargatectl/cmd/fargatectl/stack"
	"github.com/AnotherFullstackDev/fargatectl/internal/config"
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/keyring"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/AnotherFullstackDev/fargatectl/internal/stack"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:           lib.AppName,
	Short:         "fargatectl declares an ECS Fargate service with its delivery pipeline and operates it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv(lib.LogLevelEnv)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})))

	var opts factories.Options
	RootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "Path to the config file")
	RootCmd.PersistentFlags().StringVar(&opts.Stack, "name", stack.DefaultStackName, "Stack to operate on")
	RootCmd.PersistentFlags().StringVar(&opts.Env, "env", "", "Target environment")

	credentialsStorage := func() lib.CredentialsStorage {
		return keyring.MustNewService(lib.AppName)
	}
	newFactory := factories.Provider(func() (*factories.StackFactory, error) {
		locator, err := factories.Locate(opts, credentialsStorage)
		if err != nil {
			return nil, err
		}
		return factories.NewStackFactory(opts.Stack, locator), nil
	})

	RootCmd.AddCommand(
		stackcmd.NewStackCmd(newFactory),
		secret.NewSecretCmd(newFactory),
		image.NewImageCmd(newFactory),
		service.NewServiceCmd(newFactory),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	stack.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if errors.Is(err, lib.BadUserInputError) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
