package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/popgraph/internal/chart"
	"github.com/KaramelBytes/popgraph/internal/selection"
	"github.com/KaramelBytes/popgraph/internal/series"
	"github.com/KaramelBytes/popgraph/internal/session"
)

var (
	plotKind   string
	plotFormat string
	plotOutput string
	plotPick   int

	barX     int
	barY     int
	barTitle string
)

var plotCmd = &cobra.Command{
	Use:   "plot <file> <country>",
	Short: "Plot the population series of one country",
	Long: `Plot loads the file, finds the country and year columns and writes a chart
of the chosen country. The country may be its number in the sorted list shown
by 'popgraph countries', its exact name, or part of its name.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := sessionSettings()
		if err != nil {
			return err
		}
		kind, r, err := chartOptions(plotKind, plotFormat)
		if err != nil {
			return err
		}
		sess := session.New(st)
		if err := sess.Load(args[0]); err != nil {
			return err
		}
		if err := sess.Infer(); err != nil {
			return err
		}
		logger.Debug("roles inferred",
			zap.String("entity", sess.Roles().Entity.Name),
			zap.Stringer("confidence", sess.Roles().Entity.Confidence),
			zap.Strings("years", sess.Roles().YearNames()))

		res, err := sess.Select(args[1])
		if err != nil {
			return err
		}
		if res.Ambiguous() {
			if plotPick <= 0 {
				out := cmd.ErrOrStderr()
				fmt.Fprintf(out, "%d countries match %q:\n", len(res.Matches), res.Input)
				for i, m := range res.Matches {
					fmt.Fprintf(out, "  %d. %s\n", i+1, m)
				}
				return fmt.Errorf("%w: %q is ambiguous, rerun with --pick N", selection.ErrInvalidSelection, res.Input)
			}
			if _, err := sess.Choose(res.Matches, fmt.Sprint(plotPick)); err != nil {
				return err
			}
		}
		ser, err := sess.Extract()
		if err != nil {
			return err
		}
		path := plotOutput
		if path == "" {
			path = filepath.Join(currentConfig().OutputDir, chart.FileName(ser.Entity, r.Format()))
		}
		if err := chart.Save(path, chart.FromSeries(ser, kind), r); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s chart of %s to %s (%s)\n", kind, ser.Entity, path, ser.Summary())
		return nil
	},
}

var barCmd = &cobra.Command{
	Use:   "bar <file>",
	Short: "Bar chart of one column against another",
	Long: `Bar draws column --y (values) against column --x (labels) over every row.
Columns are numbered from 1 as listed by 'popgraph inspect'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := sessionSettings()
		if err != nil {
			return err
		}
		_, r, err := chartOptions("bar", plotFormat)
		if err != nil {
			return err
		}
		sess := session.New(st)
		if err := sess.Load(args[0]); err != nil {
			return err
		}
		t := sess.Table()
		ser, err := series.Columns(t, barX-1, barY-1, st.Series)
		if err != nil {
			if ser != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", ser.Summary())
			}
			return err
		}
		spec := chart.FromColumns(ser, t.Header[barX-1], t.Header[barY-1], barTitle)
		path := plotOutput
		if path == "" {
			path = filepath.Join(currentConfig().OutputDir, chart.FileName(ser.Entity, r.Format()))
		}
		if err := chart.Save(path, spec, r); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote bar chart of %s to %s (%s)\n", ser.Entity, path, ser.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(barCmd)
	plotCmd.Flags().StringVarP(&plotKind, "kind", "k", "", "chart kind: line | bar (default from config)")
	plotCmd.Flags().StringVarP(&plotFormat, "format", "f", "", "image format: png | svg (default from config)")
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "", "output path (default <output_dir>/population_<country>.<format>)")
	plotCmd.Flags().IntVar(&plotPick, "pick", 0, "1-based choice when the country name matches several countries")

	barCmd.Flags().IntVar(&barX, "x", 1, "1-based column used for bar labels")
	barCmd.Flags().IntVar(&barY, "y", 2, "1-based column used for bar values")
	barCmd.Flags().StringVar(&barTitle, "title", "", "chart title")
	barCmd.Flags().StringVarP(&plotFormat, "format", "f", "", "image format: png | svg (default from config)")
	barCmd.Flags().StringVarP(&plotOutput, "output", "o", "", "output path")
}
