package stack

import (
	"fmt"

	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/stack"
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/spf13/cobra"
)

func newStackGraphCmd(newFactory factories.Provider) *cobra.Command {
	var order bool

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the declaration graph of the stack as DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFactory()
			if err != nil {
				return err
			}

			settings, err := f.Settings()
			if err != nil {
				return err
			}

			s, err := stack.New(awscdk.NewApp(nil), settings)
			if err != nil {
				return fmt.Errorf("declaring stack %s: %w", settings.StackName, err)
			}

			if !order {
				return s.Plan.DOT(cmd.OutOrStdout())
			}

			components, err := s.Plan.Order()
			if err != nil {
				return err
			}
			for i, name := range components {
				c, _ := s.Plan.Component(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-20s %s\n", i+1, c.Name, c.Kind)
			}
			return nil
		},
	}

	graphCmd.Flags().BoolVar(&order, "order", false, "Print the declaration order instead of DOT")

	return graphCmd
}
