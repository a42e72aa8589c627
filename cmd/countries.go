package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/popgraph/internal/session"
	"github.com/KaramelBytes/popgraph/internal/utils"
)

var countriesJSON bool

var countriesCmd = &cobra.Command{
	Use:   "countries <file>",
	Short: "List the countries of a file with the numbers 'plot' accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := sessionSettings()
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
		out := cmd.OutOrStdout()
		if countriesJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"entity_column": sess.Roles().Entity.Name,
				"confidence":    sess.Roles().Entity.Confidence.String(),
				"countries":     sess.Entities(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintln(out, sess.Roles().Entity.Describe())
		printEntities(out, sess.Entities())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesCmd.Flags().BoolVar(&countriesJSON, "json", false, "print the list as JSON")
}
