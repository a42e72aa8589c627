package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/popgraph/internal/config"
	"github.com/KaramelBytes/popgraph/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagDelimiter string
	flagDecimal   string
	flagThousands string
	flagPolicy    string
	flagSheet     string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "popgraph",
	Short: "popgraph: chart country population series from CSV and XLSX tables",
	Long: `popgraph loads a table of countries by year, works out which column names the
country and which columns hold years, and draws the series of a chosen country
as a line or bar chart. Run without a subcommand for the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(debug)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.popgraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	rootCmd.PersistentFlags().StringVar(&flagThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "non-numeric cells: 'drop' or 'zero' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("decimal") {
		cfg.DecimalSeparator = flagDecimal
	}
	if f.Changed("thousands") {
		cfg.ThousandsSeparator = flagThousands
	}
	if f.Changed("policy") {
		cfg.MissingPolicy = flagPolicy
	}
	if f.Changed("sheet") {
		cfg.Sheet = flagSheet
	}
}
