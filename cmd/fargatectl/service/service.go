package service

import (
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func NewServiceCmd(newFactory factories.Provider) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Operate the deployed ECS service",
	}

	serviceCmd.AddCommand(newServiceRolloutCmd(newFactory))
	serviceCmd.AddCommand(newServiceStatusCmd(newFactory))

	return serviceCmd
}
