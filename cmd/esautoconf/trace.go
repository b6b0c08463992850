package main

import (
	"fmt"

	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/spf13/cobra"
)

func newTraceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <key>",
		Short: "Show which property source supplies a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := a.loadSources(elasticsearch.Descriptors())
			if err != nil {
				return err
			}
			trace := sources.Trace(args[0])
			if a.format != "text" {
				return render(cmd.OutOrStdout(), a.format, trace)
			}
			out := cmd.OutOrStdout()
			winner, ok := trace.Winner()
			if !ok {
				fmt.Fprintf(out, "%s is not set\n", trace.Key)
				return nil
			}
			fmt.Fprintf(out, "%s = %s (from %s)\n", trace.Key, winner.Value, winner.Source.Name)
			for _, p := range trace.Sources {
				marker := " "
				if p.Found {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %-8s %s\n", marker, p.Source.Name, p.Value)
			}
			return nil
		},
	}
}
