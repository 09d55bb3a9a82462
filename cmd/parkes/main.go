// Command parkes serves, inspects and scaffolds parkes JSON APIs.
//
// The bundled server runs the blog demo (users with nested posts) so the
// router, presenters and stores can be exercised end to end.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parkes",
		Short:         "Parkes: resource routing and public/private JSON presenters",
		Long:          "Parkes CLI: serve the demo API, list its routes, run migrations and generate resources.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default "+defaultConfigHint+")")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRoutesCmd())
	root.AddCommand(newDBCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "parkes", version)
		},
	})
	return root
}
