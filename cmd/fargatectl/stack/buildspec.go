package stack

import (
	"fmt"

	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/stack"
	"github.com/spf13/cobra"
)

func newStackBuildSpecCmd(newFactory factories.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "buildspec",
		Short: "Print the CodeBuild build spec of the stack as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFactory()
			if err != nil {
				return err
			}

			settings, err := f.Settings()
			if err != nil {
				return err
			}

			out, err := stack.BuildSpec(settings).YAML()
			if err != nil {
				return fmt.Errorf("rendering build spec: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
