package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-autoconf"
	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/spf13/cobra"
)

func newPropertiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "List the properties the auto-configuration reads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			metadata := autoconf.Metadata(elasticsearch.Descriptors())
			if a.format != "text" {
				return render(cmd.OutOrStdout(), a.format, metadata)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tTYPE\tDEFAULT\tDESCRIPTION")
			for _, meta := range metadata {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", meta.Name, meta.Type, meta.Default, meta.Description)
			}
			return tw.Flush()
		},
	}
}
