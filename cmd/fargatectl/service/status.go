package service

import (
	"fmt"
	"net"
	"strconv"
	"text/tabwriter"

	"github.com/AnotherFullstackDev/fargatectl/internal/clouds/aws"
	"github.com/AnotherFullstackDev/fargatectl/internal/factories"
	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/spf13/cobra"
)

func newServiceStatusCmd(newFactory factories.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the service task counts and the load balancer target health",
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
			serviceARN, err := outputs.Require(lib.OutputServiceArn)
			if err != nil {
				return err
			}
			targetGroupARN, err := outputs.Require(lib.OutputTargetGroupArn)
			if err != nil {
				return err
			}

			status, err := aws.NewStatusReader(awsCfg).Status(ctx, serviceARN, targetGroupARN)
			if err != nil {
				return fmt.Errorf("reading status of stack %s: %w", settings.StackName, err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "service\t%s (%s)\n", status.Service, status.Status)
			fmt.Fprintf(w, "task definition\t%s\n", status.TaskDef)
			fmt.Fprintf(w, "tasks\t%d running, %d pending, %d desired\n", status.Running, status.Pending, status.Desired)
			fmt.Fprintf(w, "deployments\t%d\n", status.Deployments)
			for _, state := range status.States() {
				fmt.Fprintf(w, "targets %s\t%d\n", state, status.TargetStates[state])
			}
			if dns, ok := outputs[lib.OutputLoadBalancerDNS]; ok {
				fmt.Fprintf(w, "url\t%s\n", serviceURL(dns, settings.Service.ListenerPort))
			}
			return w.Flush()
		},
	}
}

func serviceURL(dns string, listenerPort int) string {
	if listenerPort == 0 || listenerPort == 80 {
		return "http://" + dns
	}
	return "http://" + net.JoinHostPort(dns, strconv.Itoa(listenerPort))
}
