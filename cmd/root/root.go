package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/wfc/cmd/check"
	"github.com/operator-framework/wfc/cmd/generate"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wfc",
		Short: "wfc generates grids that locally resemble an exemplar",
		Long: `wfc learns which labels may sit next to each other from a small
exemplar grid and generates larger grids obeying the same adjacency
rules, using wave function collapse.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// add sub-commands
	rootCmd.AddCommand(generate.NewGenerateCommand())
	rootCmd.AddCommand(check.NewCheckCommand())

	return rootCmd
}
