package secret

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds/aws"
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/spf13/cobra"
)

const (
	githubTokenStorageKey   = "github-token"
	githubTokenStorageLabel = "fargatectl GitHub token"
)

func newSecretPutCmd(newFactory factories.Provider) *cobra.Command {
	var noKeyring bool

	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Store the GitHub token the pipeline source stage uses in Secrets Manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFactory()
			if err != nil {
				return err
			}

			settings, err := f.Settings()
			if err != nil {
				return err
			}

			var storage lib.CredentialsStorage
			if !noKeyring {
				storage = f.CredentialsStorage()
			}

			token, err := lib.GetSecretFromEnvOrInput(
				storage,
				githubTokenStorageKey,
				githubTokenStorageLabel,
				[]string{lib.GithubTokenAppEnv, lib.GithubTokenEnv},
				os.Stdin,
				os.Stdout,
				fmt.Sprintf("Please provide the GitHub token for %s/%s", settings.Source.Owner, settings.Source.Repo),
			)
			if err != nil {
				return fmt.Errorf("requesting GitHub token: %w", err)
			}

			ctx := cmd.Context()
			awsCfg, err := f.AwsConfig(ctx, settings)
			if err != nil {
				return err
			}

			arn, err := aws.NewSecretsStore(awsCfg).PutSecret(ctx, settings.Source.TokenSecret, token,
				fmt.Sprintf("GitHub token of the %s pipeline", settings.StackName))
			if err != nil {
				return err
			}

			slog.InfoContext(ctx, "GitHub token stored", "secret", settings.Source.TokenSecret, "arn", arn)
			return nil
		},
	}

	putCmd.Flags().BoolVar(&noKeyring, "no-keyring", false, "Neither read nor cache the token in the OS keyring")

	return putCmd
}
