package image

import (
	"fmt"

	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func newImagePushCmd(newFactory factories.Provider) *cobra.Command {
	var tag string
	var build, rollout bool

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Push the local service image to the stack's ECR repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFactory()
			if err != nil {
				return err
			}

			settings, err := f.Settings()
			if err != nil {
				return err
			}

			imageSvc, err := f.NewImageService(settings)
			if err != nil {
				return fmt.Errorf("getting image service for stack %s: %w", settings.StackName, err)
			}

			resolvedTag, err := imageSvc.Tag(tag)
			if err != nil {
				return err
			}
			localImage := imageSvc.LocalImage(resolvedTag)

			ctx := cmd.Context()
			awsCfg, err := f.AwsConfig(ctx, settings)
			if err != nil {
				return err
			}

			outputs, err := f.StackOutputs(ctx, awsCfg, settings)
			if err != nil {
				return err
			}

			registry, err := f.NewRegistry(outputs, resolvedTag)
			if err != nil {
				return err
			}

			if build {
				if err := imageSvc.BuildImage(ctx, localImage); err != nil {
					return fmt.Errorf("building image for stack %s: %w", settings.StackName, err)
				}
			}

			destRef, err := imageSvc.PushImage(ctx, localImage, registry)
			if err != nil {
				return fmt.Errorf("pushing image for stack %s: %w", settings.StackName, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), destRef)

			if !rollout {
				return nil
			}

			provider, err := f.NewEcsProvider(awsCfg, settings, outputs)
			if err != nil {
				return fmt.Errorf("getting ECS provider for stack %s: %w", settings.StackName, err)
			}

			return provider.DeployServiceFromImage(ctx, registry)
		},
	}

	pushCmd.Flags().StringVar(&tag, "tag", "", "Image tag, placeholders allowed (defaults to the configured tag)")
	pushCmd.Flags().BoolVar(&build, "build", false, "Build the image before pushing")
	pushCmd.Flags().BoolVar(&rollout, "rollout", false, "Roll the service out to the pushed image")

	return pushCmd
}
