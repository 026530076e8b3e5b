package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jacobfeldgoise/country-comparison/internal/colorscale"
	"github.com/jacobfeldgoise/country-comparison/internal/dataset"
	"github.com/jacobfeldgoise/country-comparison/internal/format"
	"github.com/jacobfeldgoise/country-comparison/internal/metric"
)

var scaleMode string

var scaleCmd = &cobra.Command{
	Use:   "scale METRIC",
	Short: "Print the choropleth legend for a metric",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		def, ok := env.Catalog.Lookup(args[0])
		if !ok {
			return eris.Errorf("scale: unknown metric %s (known: %v)", args[0], env.Catalog.Fields())
		}

		mode := env.Mode
		if scaleMode != "" {
			mode, err = colorscale.ParseMode(scaleMode)
			if err != nil {
				return err
			}
		}

		data, err := env.loadData(ctx)
		if err != nil {
			return err
		}

		values := dataset.Values(data.Records(), def.Field)
		scale, err := colorscale.New(mode, values, env.Scale)
		if errors.Is(err, colorscale.ErrInsufficientData) {
			fmt.Fprintf(os.Stderr, "Insufficient data for %s (%d values).\n", def.Label, len(values))
			return nil
		}
		if err != nil {
			return err
		}

		formatLegend(os.Stdout, def, scale, len(values))
		return nil
	},
}

func formatLegend(out io.Writer, def metric.Definition, scale *colorscale.Scale, n int) {
	_, _ = fmt.Fprintf(out, "%s (%s scale, %d countries)\n\n", def.Label, scale.Mode, n)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLOR\tFROM\tTO")
	_, _ = fmt.Fprintln(w, "-----\t----\t--")
	for _, e := range scale.Legend() {
		from, to := e.From, e.To
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Color, format.Value(def.Format, &from), format.Value(def.Format, &to))
	}
	_, _ = fmt.Fprintf(w, "%s\tno data\t\n", scale.NoData)
	_ = w.Flush()
}

func init() {
	scaleCmd.Flags().StringVar(&scaleMode, "mode", "", "scale mode: quantile or linear (default from config)")
	rootCmd.AddCommand(scaleCmd)
}
