package secret

import (
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func NewSecretCmd(newFactory factories.Provider) *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the secrets the pipeline reads",
	}

	secretCmd.AddCommand(newSecretPutCmd(newFactory))

	return secretCmd
}
