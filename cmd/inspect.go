package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/popgraph/internal/analysis"
	"github.com/KaramelBytes/popgraph/internal/roles"
	"github.com/KaramelBytes/popgraph/internal/session"
	"github.com/KaramelBytes/popgraph/internal/table"
	"github.com/KaramelBytes/popgraph/internal/utils"
)

var (
	insOutputPath string
	insSampleRows int
	insStats      bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <files...>",
	Short: "Summarize CSV/TSV/XLSX files and the columns popgraph would use",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		st, err := sessionSettings()
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.Numbers = st.Roles.Numbers
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = insSampleRows
		}

		var docs []string
		failed := 0
		for i, path := range files {
			if len(files) > 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", i+1, len(files), path)
			}
			md, err := inspectFile(path, st, opt)
			if err != nil {
				if len(files) == 1 {
					return err
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s: %v\n", path, err)
				continue
			}
			docs = append(docs, md)
		}
		if len(docs) == 0 {
			return fmt.Errorf("no file could be inspected")
		}
		out := strings.Join(docs, "\n")
		if insOutputPath != "" {
			if err := utils.SafeWriteFile(insOutputPath, []byte(out)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary of %d file(s) to %s\n", len(docs), insOutputPath)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		if failed > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d file(s) could not be inspected\n", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of sample rows to include")
	inspectCmd.Flags().BoolVar(&insStats, "stats", false, "append per-column statistics (mean, quartiles, ...)")
}

// expandInputs resolves globs, keeps literal paths that exist, and
// returns a sorted de-duplicated list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no input files matched %s", table.ErrNotFound, strings.Join(args, " "))
	}
	sort.Strings(files)
	return files, nil
}

func inspectFile(path string, st session.Settings, opt analysis.Options) (string, error) {
	t, err := table.Load(path, st.Table)
	if err != nil {
		return "", err
	}
	rep := analysis.Profile(t, opt)
	var lines []string
	if r, err := roles.Infer(t, st.Roles); err != nil {
		lines = append(lines, fmt.Sprintf("not plottable: %s (%v)", session.Kind(err), err))
	} else {
		lines = append(lines,
			fmt.Sprintf("entity: %s (%s)", r.Entity.Name, r.Entity.Confidence),
			fmt.Sprintf("years: %s", strings.Join(r.YearNames(), ", ")))
	}
	rep.AddSection("Roles", lines...)
	md := rep.Markdown()
	if insStats {
		desc, err := analysis.Describe(t)
		if err != nil {
			md += fmt.Sprintf("\n[STATISTICS]\n- unavailable: %v\n", err)
		} else {
			md += "\n[STATISTICS]\n" + desc + "\n"
		}
	}
	return md, nil
}
