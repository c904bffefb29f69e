package image

import (
	"fmt"

	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func newImageBuildCmd(newFactory factories.Provider) *cobra.Command {
	var tag string

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the service image with Dagger and load it into the local Docker daemon",
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
			if err := imageSvc.BuildImage(cmd.Context(), localImage); err != nil {
				return fmt.Errorf("building image for stack %s: %w", settings.StackName, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), localImage)
			return nil
		},
	}

	buildCmd.Flags().StringVar(&tag, "tag", "", "Image tag, placeholders allowed (defaults to the configured tag)")

	return buildCmd
}
