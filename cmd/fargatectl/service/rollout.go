package service

import (
	"fmt"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds"
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/spf13/cobra"
)

func newServiceRolloutCmd(newFactory factories.Provider) *cobra.Command {
	var image, tag string

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "Roll the service out to another image, outside of the pipeline",
		Long:  "Roll the service out to another image, outside of the pipeline. Either --image names any image or --tag picks a tag of the stack repository.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (image == "") == (tag == "") {
				return fmt.Errorf("%w - exactly one of --image and --tag is required", lib.BadUserInputError)
			}

			f, err := newFactory()
			if err != nil {
				return err
			}

			settings, err := f.Settings()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			awsCfg, err := f.AwsConfig(ctx, settings)
			if err != nil {
				return err
			}

			outputs, err := f.StackOutputs(ctx, awsCfg, settings)
			if err != nil {
				return err
			}

			var registry clouds.ImageRegistry = clouds.StaticImageRef(image)
			if tag != "" {
				registry, err = f.NewRegistry(outputs, tag)
				if err != nil {
					return err
				}
			}

			provider, err := f.NewEcsProvider(awsCfg, settings, outputs)
			if err != nil {
				return fmt.Errorf("getting ECS provider for stack %s: %w", settings.StackName, err)
			}

			return provider.DeployServiceFromImage(ctx, registry)
		},
	}

	rolloutCmd.Flags().StringVar(&image, "image", "", "Full image reference to deploy")
	rolloutCmd.Flags().StringVar(&tag, "tag", "", "Tag of the stack repository to deploy")

	return rolloutCmd
}
