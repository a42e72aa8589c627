package cmd

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/popgraph/internal/chart"
	"github.com/KaramelBytes/popgraph/internal/roles"
	"github.com/KaramelBytes/popgraph/internal/series"
	"github.com/KaramelBytes/popgraph/internal/session"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Load a file and plot countries from a menu (default command)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

var (
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	okColor   = color.New(color.FgGreen)
)

// prompter reads trimmed lines and reports false at end of input.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func runInteractive(cmd *cobra.Command) error {
	st, err := sessionSettings()
	if err != nil {
		return err
	}
	kind, renderer, err := chartOptions("", "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	p := &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: out}
	sess := session.New(st)

	for {
		fmt.Fprintln(out, "\nMain menu")
		fmt.Fprintln(out, "  1) Load a CSV or XLSX file")
		fmt.Fprintln(out, "  2) Quit")
		choice, ok := p.ask("> ")
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			path, ok := p.ask("Path to the file: ")
			if !ok {
				return nil
			}
			if !loadInteractive(out, sess, path) {
				continue
			}
			if !chartMenu(p, sess, kind, renderer) {
				return nil
			}
		case "2", "q", "quit", "exit":
			fmt.Fprintln(out, "Bye.")
			return nil
		case "":
		default:
			warnColor.Fprintf(out, "⚠ Unknown option %q\n", choice)
		}
	}
}

// report prints err with its category and keeps the loop going.
func report(out io.Writer, err error) {
	logger.Debug("interactive step failed", zap.String("kind", session.Kind(err)), zap.Error(err))
	errColor.Fprintf(out, "✗ %s: %v\n", session.Kind(err), err)
}

func loadInteractive(out io.Writer, sess *session.Session, path string) bool {
	if path == "" {
		warnColor.Fprintln(out, "⚠ No path given")
		return false
	}
	if err := sess.Load(path); err != nil {
		report(out, err)
		return false
	}
	t := sess.Table()
	okColor.Fprintf(out, "✓ Loaded %s: %d rows × %d columns\n", t.Name, t.Len(), t.Width())
	for _, w := range t.Warnings {
		warnColor.Fprintf(out, "⚠ %s\n", w)
	}
	if err := sess.Infer(); err != nil {
		report(out, err)
		warnColor.Fprintln(out, "⚠ Country plots are unavailable; column charts still work")
		return true
	}
	r := sess.Roles()
	if r.Entity.Confidence == roles.Fallback {
		warnColor.Fprintf(out, "⚠ %s\n", r.Entity.Describe())
	} else {
		fmt.Fprintln(out, r.Entity.Describe())
	}
	fmt.Fprintf(out, "Year columns: %s\n", strings.Join(r.YearNames(), ", "))
	printEntities(out, sess.Entities())
	return true
}

func printEntities(out io.Writer, entities []string) {
	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"#", "Country"})
	for i, e := range entities {
		tw.Append([]string{strconv.Itoa(i + 1), e})
	}
	tw.Render()
}

// chartMenu offers the charts available for the loaded table. It returns
// false when input ended.
func chartMenu(p *prompter, sess *session.Session, kind chart.Kind, r chart.Renderer) bool {
	for {
		fmt.Fprintln(p.out, "\nChart menu")
		fmt.Fprintln(p.out, "  1) Plot a country")
		fmt.Fprintln(p.out, "  2) Bar chart of two columns")
		fmt.Fprintln(p.out, "  3) Back to the main menu")
		choice, ok := p.ask("> ")
		if !ok {
			return false
		}
		switch choice {
		case "1":
			if sess.Roles() == nil {
				warnColor.Fprintln(p.out, "⚠ No country and year columns in this file")
				continue
			}
			if !selectionLoop(p, sess, kind, r) {
				return false
			}
		case "2":
			ended, err := columnChart(p, sess, r)
			if ended {
				return false
			}
			if err != nil {
				report(p.out, err)
			}
		case "3", "q":
			return true
		case "":
		default:
			warnColor.Fprintf(p.out, "⚠ Unknown option %q\n", choice)
		}
	}
}

// columnChart asks for a label column, a value column and a title, then
// writes a bar chart. ended reports that input ran out.
func columnChart(p *prompter, sess *session.Session, r chart.Renderer) (ended bool, err error) {
	t := sess.Table()
	fmt.Fprintln(p.out, "Columns:")
	for i, h := range t.Header {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, h)
	}
	var cols [2]int
	for i, prompt := range []string{"X column number (labels): ", "Y column number (values): "} {
		in, ok := p.ask(prompt)
		if !ok {
			return true, nil
		}
		n, convErr := strconv.Atoi(in)
		if convErr != nil {
			return false, fmt.Errorf("%w: %q is not a column number", series.ErrInvalidColumn, in)
		}
		cols[i] = n - 1
	}
	title, ok := p.ask("Title (empty for the default): ")
	if !ok {
		return true, nil
	}
	ser, err := series.Columns(t, cols[0], cols[1], sess.Settings().Series)
	if err != nil {
		if ser != nil {
			fmt.Fprintf(p.out, "  %s\n", ser.Summary())
		}
		return false, err
	}
	spec := chart.FromColumns(ser, t.Header[cols[0]], t.Header[cols[1]], title)
	path := filepath.Join(currentConfig().OutputDir, chart.FileName(ser.Entity, r.Format()))
	if err := chart.Save(path, spec, r); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "  %s (policy: %s)\n", ser.Summary(), ser.Policy)
	okColor.Fprintf(p.out, "✓ Chart written to %s\n", path)
	return false, nil
}

// selectionLoop returns false when input ended.
func selectionLoop(p *prompter, sess *session.Session, kind chart.Kind, r chart.Renderer) bool {
	for {
		in, ok := p.ask("\nCountry number or name ('q' to go back): ")
		if !ok {
			return false
		}
		if strings.EqualFold(in, "q") {
			return true
		}
		res, err := sess.Select(in)
		if err != nil {
			report(p.out, err)
			continue
		}
		if res.Ambiguous() {
			fmt.Fprintf(p.out, "%d countries match %q:\n", len(res.Matches), res.Input)
			for i, m := range res.Matches {
				fmt.Fprintf(p.out, "  %d. %s\n", i+1, m)
			}
			pick, ok := p.ask("Pick a number: ")
			if !ok {
				return false
			}
			if _, err := sess.Choose(res.Matches, pick); err != nil {
				report(p.out, err)
				continue
			}
		}
		if err := plotSelected(p.out, sess, kind, r); err != nil {
			report(p.out, err)
		}
	}
}

func plotSelected(out io.Writer, sess *session.Session, kind chart.Kind, r chart.Renderer) error {
	fmt.Fprintf(out, "Plotting %s...\n", sess.Entity())
	ser, err := sess.Extract()
	if err != nil {
		if ser != nil {
			fmt.Fprintf(out, "  %s\n", ser.Summary())
		}
		return err
	}
	path := filepath.Join(currentConfig().OutputDir, chart.FileName(ser.Entity, r.Format()))
	if err := chart.Save(path, chart.FromSeries(ser, kind), r); err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s (policy: %s)\n", ser.Summary(), ser.Policy)
	okColor.Fprintf(out, "✓ Chart written to %s\n", path)
	return nil
}
