package main

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/goliatone/go-autoconf"
	"github.com/goliatone/go-autoconf/pkg/elasticsearch"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var dialTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Resolve the auto-configuration and print the condition report",
		Long: `Resolve the Elasticsearch auto-configuration and print, for every
descriptor, whether it was registered and why.

Examples:
  esautoconf report -p data.elasticsearch.cluster-nodes=localhost:9300
  esautoconf report -c application.yaml -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			descriptors := elasticsearch.Descriptors(
				elasticsearch.WithDialer(&net.Dialer{Timeout: dialTimeout}),
			)
			sources, err := a.loadSources(descriptors)
			if err != nil {
				return err
			}

			resolver := autoconf.NewResolver(autoconf.WithResolutionLogger(autoconf.ZapLogger(a.logger)))
			result, err := resolver.Resolve(cmd.Context(), descriptors, sources.Merge())
			if err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			defer result.Close()

			if a.format == "text" {
				return writeReportText(cmd.OutOrStdout(), result.Report)
			}
			return render(cmd.OutOrStdout(), a.format, result.Report)
		},
	}
	cmd.Flags().DurationVar(&dialTimeout, "dial-timeout", 2*time.Second, "timeout when dialing cluster nodes")
	return cmd
}

func writeReportText(w io.Writer, report autoconf.Report) error {
	fmt.Fprintf(w, "evaluation %s\n", report.EvaluationID)
	if len(report.UserNames) > 0 {
		fmt.Fprintf(w, "\nUser components: %v\n", report.UserNames)
	}
	sections := []struct {
		title   string
		entries []autoconf.ReportEntry
	}{
		{"Positive matches", report.Positive()},
		{"Negative matches", report.Negative()},
	}
	for _, section := range sections {
		fmt.Fprintf(w, "\n%s:\n", section.title)
		if len(section.entries) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, entry := range section.entries {
			fmt.Fprintf(w, "  %s (%s) %s\n", entry.Descriptor, entry.Type, entry.Outcome)
			if entry.Message != "" {
				fmt.Fprintf(w, "    - %s\n", entry.Message)
			}
		}
	}
	return nil
}
