package stack

import (
	"fmt"
	"log/slog"

	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/stack"
	"github.com/spf13/cobra"
)

func newStackSynthCmd(newFactory factories.Provider) *cobra.Command {
	var outdir string

	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the CloudFormation cloud assembly of the stack",
		Long:  "Synthesize the CloudFormation cloud assembly of the stack. This is the app command of cdk.json, the CDK CLI passes the output directory through CDK_OUTDIR.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newFactory()
			if err != nil {
				return err
			}

			settings, err := f.Settings()
			if err != nil {
				return err
			}

			app := stack.NewApp(outdir)
			s, err := stack.New(app, settings)
			if err != nil {
				return fmt.Errorf("declaring stack %s: %w", settings.StackName, err)
			}

			dir, err := stack.Synth(app)
			if err != nil {
				return err
			}

			slog.InfoContext(cmd.Context(), "cloud assembly synthesized",
				"stack", settings.StackName,
				"components", s.Plan.Len(),
				"dir", dir)
			return nil
		},
	}

	synthCmd.Flags().StringVar(&outdir, "out", "", "Cloud assembly output directory")

	return synthCmd
}
