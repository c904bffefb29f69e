package stack

import (
	"fmt"
	"maps"
	"slices"

	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/spf13/cobra"
)

func newStackOutputsCmd(newFactory factories.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs [key]",
		Short: "Print the outputs of the deployed stack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if len(args) == 1 {
				value, err := outputs.Require(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			for _, key := range slices.Sorted(maps.Keys(outputs)) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, outputs[key])
			}
			return nil
		},
	}
}
