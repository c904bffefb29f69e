package image

import (
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func NewImageCmd(newFactory factories.Provider) *cobra.Command {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Build the service container image and push it to the stack repository",
	}

	imageCmd.AddCommand(newImageBuildCmd(newFactory))
	imageCmd.AddCommand(newImagePushCmd(newFactory))

	return imageCmd
}
