package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/pipeline"
	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
	"github.com/spf13/cobra"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize normalization, the join, default filters and the rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), p.Data())
			return nil
		},
	}
}

func writeReport(w io.Writer, dc *pipeline.DataContext) {
	fmt.Fprintf(w, "climate rows:       %d\n", len(dc.Tables.Climate))
	fmt.Fprintf(w, "forest rows:        %d\n", len(dc.Tables.Forest))
	fmt.Fprintf(w, "  normalized:       %d\n", len(dc.Forest))
	fmt.Fprintf(w, "  unresolved codes: %d\n", len(dc.Unresolved))
	fmt.Fprintf(w, "  missing trend:    %d\n", dc.Incomplete)
	fmt.Fprintf(w, "joined rows:        %d\n", len(dc.Joined))
	fmt.Fprintf(w, "countries:          %d\n", len(dc.Domain.Countries))
	fmt.Fprintf(w, "years:              %d\n", len(dc.Domain.Years))

	d := dc.Defaults
	fmt.Fprintf(w, "default country:    %s\n", orNone(d.Country))
	fmt.Fprintf(w, "default year:       %d\n", d.Year)
	fmt.Fprintf(w, "temperature range:  %s\n", formatRange(d.Temperature))
	fmt.Fprintf(w, "trend range:        %s\n", formatRange(d.Trend))

	if len(dc.Unresolved) > 0 {
		fmt.Fprintf(w, "\nunresolved: %s\n", strings.Join(distinct(dc.Unresolved), ", "))
	}

	writeRanking(w, view.HighestTitle, dc.Highest)
	writeRanking(w, view.LowestTitle, dc.Lowest)
}

func writeRanking(w io.Writer, title string, ranked []domain.ForestRecord) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(ranked) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, r := range ranked {
		fmt.Fprintf(w, "%3d. %-40s %s %s\n", i+1, r.Country, r.ISO3, domain.FormatNumber(r.Trend))
	}
}

func formatRange(r domain.Range) string {
	return fmt.Sprintf("[%s, %s]", domain.FormatNumber(r.Min), domain.FormatNumber(r.Max))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func distinct(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
