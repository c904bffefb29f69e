package stack

import (
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func NewStackCmd(newFactory factories.Provider) *cobra.Command {
	stackCmd := &cobra.Command{
		Use:   "stack",
		Short: "Declare, inspect and synthesize the infrastructure stack",
	}

	stackCmd.AddCommand(newStackSynthCmd(newFactory))
	stackCmd.AddCommand(newStackGraphCmd(newFactory))
	stackCmd.AddCommand(newStackBuildSpecCmd(newFactory))
	stackCmd.AddCommand(newStackOutputsCmd(newFactory))

	return stackCmd
}
