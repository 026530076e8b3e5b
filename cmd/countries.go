package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/format"
)

var countriesLimit int

var countriesCmd = &cobra.Command{
	Use:   "countries [query]",
	Short: "List or search recognized countries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := env.loadData(ctx)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		matches := data.Index.Search(query, countriesLimit)
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No countries found.")
			return nil
		}

		formatCountries(os.Stdout, matches, len(env.Catalog.Metrics))
		return nil
	},
}

func formatCountries(out io.Writer, records []dataset.CountryRecord, metrics int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ISO3\tISO2\tNAME\tMETRICS\tSOURCES")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t-------\t-------")

	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			r.ISO3,
			r.ISO2,
			format.Truncate(r.Name, 40),
			len(r.Latest),
			metrics,
			sources(r),
		)
	}
	_ = w.Flush()
}

func sources(r dataset.CountryRecord) string {
	var parts []string
	if r.InMetadata {
		parts = append(parts, "metadata")
	}
	if r.InBoundary {
		parts = append(parts, "boundary")
	}
	return strings.Join(parts, ",")
}

func init() {
	countriesCmd.Flags().IntVar(&countriesLimit, "limit", 0, "max number of countries to display (0 for all)")
	rootCmd.AddCommand(countriesCmd)
}
