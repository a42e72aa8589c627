package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/popgraph/internal/selection"
	"github.com/KaramelBytes/popgraph/internal/table"
)

const worldCSV = "Rank,CCA3,Country/Territory,2022 Population,2010 Population,2000 Population\n" +
	"1,FRA,France,64626628,62444567,58665453\n" +
	"2,PYF,French Polynesia,306279,283788,250927\n" +
	"3,PER,Peru,34049588,29229572,n/a\n"

// resetFlags restores every flag to its default so bound variables and
// Changed state do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// setup isolates HOME and the output dir and writes the sample table.
func setup(t *testing.T) (home, csvPath string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("POPGRAPH_OUTPUT_DIR", filepath.Join(home, "charts"))
	csvPath = filepath.Join(home, "world_population.csv")
	if err := os.WriteFile(csvPath, []byte(worldCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return home, csvPath
}

func TestCLI_PlotWritesChart(t *testing.T) {
	home, csvPath := setup(t)
	outPath := filepath.Join(home, "peru.png")
	out := runCmd(t, "plot", csvPath, "peru", "--kind", "bar", "--output", outPath)
	if !strings.Contains(out, "✓ Wrote bar chart of Peru") || !strings.Contains(out, "2 points, 1 dropped") {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("chart is not a PNG")
	}

	// default location under output_dir, svg, zero policy
	runCmd(t, "plot", csvPath, "3", "--format", "svg", "--policy", "zero")
	b, err = os.ReadFile(filepath.Join(home, "charts", "population_peru.svg"))
	if err != nil {
		t.Fatalf("read default chart: %v", err)
	}
	if !strings.Contains(string(b), "<svg") {
		t.Fatalf("chart is not an SVG")
	}
}

func TestCLI_PlotAmbiguousNeedsPick(t *testing.T) {
	home, csvPath := setup(t)
	out, err := execute(t, "", "plot", csvPath, "fr")
	if !errors.Is(err, selection.ErrInvalidSelection) {
		t.Fatalf("expected InvalidSelection, got %v", err)
	}
	if !strings.Contains(out, "1. France") || !strings.Contains(out, "2. French Polynesia") {
		t.Fatalf("matches not listed: %s", out)
	}
	outPath := filepath.Join(home, "pyf.png")
	out = runCmd(t, "plot", csvPath, "fr", "--pick", "2", "-o", outPath)
	if !strings.Contains(out, "French Polynesia") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("chart missing: %v", err)
	}
}

func TestCLI_PlotErrors(t *testing.T) {
	home, csvPath := setup(t)
	if _, err := execute(t, "", "plot", filepath.Join(home, "missing.csv"), "Peru"); !errors.Is(err, table.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := execute(t, "", "plot", csvPath, "Atlantis"); !errors.Is(err, selection.ErrNoMatch) {
		t.Fatalf("expected NoMatch, got %v", err)
	}
	if _, err := execute(t, "", "plot", csvPath, "Peru", "--policy", "interpolate"); err == nil {
		t.Fatalf("expected bad policy error")
	}
}

func TestCLI_BarColumns(t *testing.T) {
	home, csvPath := setup(t)
	outPath := filepath.Join(home, "bar.svg")
	out := runCmd(t, "bar", csvPath, "--x", "3", "--y", "4", "--format", "svg", "-o", outPath, "--title", "2022")
	if !strings.Contains(out, "3 points") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("chart missing: %v", err)
	}
	if _, err := execute(t, "", "bar", csvPath, "--x", "1", "--y", "9"); err == nil {
		t.Fatalf("expected invalid column error")
	}
}

func TestCLI_InspectGlobAndStats(t *testing.T) {
	home, _ := setup(t)
	other := filepath.Join(home, "plain.csv")
	if err := os.WriteFile(other, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(home, "summary.md")
	runCmd(t, "inspect", filepath.Join(home, "*.csv"), "--stats", "-o", outPath)
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	md := string(b)
	for _, want := range []string{
		"File: world_population.csv",
		"File: plain.csv",
		"- entity: Country/Territory (matched)",
		"- years: 2000 Population, 2010 Population, 2022 Population",
		"not plottable: NoEntityColumn",
		"[STATISTICS]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("summary missing %q:\n%s", want, md)
		}
	}
}

func TestCLI_Countries(t *testing.T) {
	_, csvPath := setup(t)
	out := runCmd(t, "countries", csvPath)
	if !strings.Contains(out, "country column: Country/Territory") || !strings.Contains(out, "French Polynesia") {
		t.Fatalf("unexpected output: %s", out)
	}
	out = runCmd(t, "countries", csvPath, "--json")
	var got struct {
		Countries []string `json:"countries"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if strings.Join(got.Countries, "|") != "France|French Polynesia|Peru" {
		t.Fatalf("countries = %v", got.Countries)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setup(t)
	runCmd(t, "config", "set", "missing_policy", "zero")
	runCmd(t, "config", "set", "chart_width", "800")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "missing_policy: zero") || !strings.Contains(out, "chart_width: 800") {
		t.Fatalf("unexpected config: %s", out)
	}
	if _, err := execute(t, "", "config", "set", "chart_kind", "pie"); err == nil {
		t.Fatalf("expected invalid chart_kind")
	}
	if _, err := execute(t, "", "config", "set", "Missing_Policy", "bogus"); err == nil {
		t.Fatalf("expected invalid missing_policy regardless of key case")
	}
	if out := runCmd(t, "config", "show"); !strings.Contains(out, "missing_policy: zero") {
		t.Fatalf("invalid policy was saved: %s", out)
	}
	if _, err := execute(t, "", "config", "set", "colour", "red"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_InteractiveSession(t *testing.T) {
	home, csvPath := setup(t)
	script := strings.Join([]string{
		"1", filepath.Join(home, "nope.csv"), // load failure returns to the menu
		"1", csvPath,
		"1",        // plot a country
		"Atlantis", // no match, stay in the loop
		"fr", "9",  // ambiguous, then an invalid pick
		"fr", "2",
		"q",
		"2", "3", "x", // column chart with a bad Y column
		"2", "3", "4", "Latest census",
		"3", // back to the main menu
		"2",
	}, "\n") + "\n"
	out, err := execute(t, script, "interactive")
	if err != nil {
		t.Fatalf("interactive: %v\n%s", err, out)
	}
	for _, want := range []string{
		"NotFound",
		"✓ Loaded world_population.csv: 3 rows × 6 columns",
		"country column: Country/Territory",
		"NoMatch",
		"2 countries match \"fr\"",
		"InvalidSelection",
		"✓ Chart written to",
		"InvalidColumn",
		"3 points (policy: drop)",
		"Bye.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	for _, name := range []string{"population_french_polynesia.png", "population_2022_population.png"} {
		if _, err := os.Stat(filepath.Join(home, "charts", name)); err != nil {
			t.Fatalf("chart missing: %v", err)
		}
	}
}

func TestCLI_InteractiveColumnChartWithoutRoles(t *testing.T) {
	home, _ := setup(t)
	plain := filepath.Join(home, "plain.csv")
	if err := os.WriteFile(plain, []byte("a,b\n1,2\n3,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	script := strings.Join([]string{"1", plain, "1", "2", "1", "2", "", "3", "2"}, "\n") + "\n"
	out, err := execute(t, script, "interactive")
	if err != nil {
		t.Fatalf("interactive: %v\n%s", err, out)
	}
	for _, want := range []string{"NoEntityColumn", "No country and year columns", "✓ Chart written to"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(home, "charts", "population_b.png")); err != nil {
		t.Fatalf("chart missing: %v", err)
	}
}

func TestCLI_InteractiveEndsOnEOF(t *testing.T) {
	setup(t)
	if _, err := execute(t, "", "interactive"); err != nil {
		t.Fatalf("interactive on empty input: %v", err)
	}
}
