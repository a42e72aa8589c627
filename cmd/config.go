package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/popgraph/internal/chart"
	cfgpkg "github.com/KaramelBytes/popgraph/internal/config"
	"github.com/KaramelBytes/popgraph/internal/series"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set popgraph configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "delimiter: %q\n", c.Delimiter)
		if c.DecimalSeparator != "" {
			fmt.Fprintf(out, "decimal_separator: %q\n", c.DecimalSeparator)
		}
		if c.ThousandsSeparator != "" {
			fmt.Fprintf(out, "thousands_separator: %q\n", c.ThousandsSeparator)
		}
		if c.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", c.Sheet)
		}
		if c.MaxRows > 0 {
			fmt.Fprintf(out, "max_rows: %d\n", c.MaxRows)
		}
		fmt.Fprintf(out, "missing_policy: %s\n", c.MissingPolicy)
		fmt.Fprintf(out, "entity_keywords: %s\n", strings.Join(c.EntityKeywords, ","))
		fmt.Fprintf(out, "chart_kind: %s\n", c.ChartKind)
		fmt.Fprintf(out, "chart_format: %s\n", c.ChartFormat)
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "max_upload_bytes: %d\n", c.MaxUploadBytes)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if err := validateSetting(key, val); err != nil {
			return err
		}
		// Start from the file and env only, so one-off flags are not persisted.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := c.Set(key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

// validateSetting rejects values the commands would fail on later.
func validateSetting(key, val string) error {
	var err error
	switch strings.ToLower(key) {
	case "missing_policy":
		_, err = series.ParsePolicy(val)
	case "chart_kind":
		_, err = chart.ParseKind(val)
	case "chart_format":
		_, err = chart.New(val, 0, 0)
	case "delimiter":
		_, err = parseDelimiter(val)
	case "decimal_separator":
		_, err = numberOptions(val, "")
	case "thousands_separator":
		_, err = numberOptions("", val)
	}
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
