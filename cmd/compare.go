package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/format"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
)

var (
	compareAll  bool
	compareJSON bool
)

var compareCmd = &cobra.Command{
	Use:   "compare A B",
	Short: "Compare two countries side by side",
	Long:  "Prints every indicator for two countries, given as ISO-3 codes, with the difference A minus B.",
	Args:  cobra.ExactArgs(2),
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

		a, ok := data.Index.Get(args[0])
		if !ok {
			return eris.Wrapf(dataset.ErrUnknownCountry, "compare: %s", args[0])
		}
		b, ok := data.Index.Get(args[1])
		if !ok {
			return eris.Wrapf(dataset.ErrUnknownCountry, "compare: %s", args[1])
		}

		defs := compareDefinitions(env.Catalog, data.Records(), compareAll)
		rows := dataset.Compare(a, b, defs)

		if compareJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		formatComparison(os.Stdout, a, b, rows)
		return nil
	},
}

// compareDefinitions returns the catalog metrics that pass their coverage
// gate, or all of them when all is set.
func compareDefinitions(catalog *metric.Catalog, records []dataset.CountryRecord, all bool) []metric.Definition {
	if all {
		return catalog.Metrics
	}
	return dataset.VisibleMetrics(catalog, records)
}

func countryLabel(r dataset.CountryRecord) string {
	label := format.Truncate(r.Name, 28)
	if flag := dataset.Flag(r.ISO2); flag != "" {
		label = flag + " " + label
	}
	return label
}

func formatComparison(out io.Writer, a, b dataset.CountryRecord, rows []dataset.Row) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "METRIC\t%s\t%s\tDIFFERENCE\n", countryLabel(a), countryLabel(b))
	_, _ = fmt.Fprintln(w, "------\t-\t-\t----------")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			format.Truncate(r.Label, 40),
			withYear(r.AText, r.YearA),
			withYear(r.BText, r.YearB),
			r.DiffText,
		)
	}
	_ = w.Flush()
}

func withYear(text string, year int) string {
	if year == 0 {
		return text
	}
	return fmt.Sprintf("%s (%d)", text, year)
}

func init() {
	compareCmd.Flags().BoolVar(&compareAll, "all", false, "include metrics below their coverage threshold")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print rows as JSON")
	rootCmd.AddCommand(compareCmd)
}
