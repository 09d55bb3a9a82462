package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gen "github.com/dministrator/parkes/internal/generator"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Code generators (resource, controller, model, migration)",
	}
	cmd.PersistentFlags().String("target", "", "target project root (defaults to cwd)")
	cmd.PersistentFlags().String("module", "", "module path of the target project (defaults to go.mod)")
	cmd.PersistentFlags().Bool("force", false, "overwrite existing files")

	resource := &cobra.Command{
		Use:   "resource [name] [fields...]",
		Short: "Generate controller, model and migrations (eg. post title:string body:text)",
		Args:  cobra.MinimumNArgs(1),
		RunE: generator(func(root string, opts gen.GenOptions, args []string) ([]string, error) {
			return gen.GenerateResource(root, args[0], opts, args[1:]...)
		}),
	}
	resource.Flags().Bool("skip-migrations", false, "do not create migration files")

	cmd.AddCommand(resource)
	cmd.AddCommand(&cobra.Command{
		Use:   "controller [name]",
		Short: "Generate a resource controller",
		Args:  cobra.ExactArgs(1),
		RunE: generator(func(root string, opts gen.GenOptions, args []string) ([]string, error) {
			return single(gen.GenerateController(root, args[0], opts))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "model [name] [fields...]",
		Short: "Generate a record model with public and private projections",
		Args:  cobra.MinimumNArgs(1),
		RunE: generator(func(root string, opts gen.GenOptions, args []string) ([]string, error) {
			return single(gen.GenerateModel(root, args[0], opts, args[1:]...))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migration [name] [fields...]",
		Short: "Generate create-table up and down migrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: generator(func(root string, opts gen.GenOptions, args []string) ([]string, error) {
			return gen.GenerateMigration(root, args[0], opts, args[1:]...)
		}),
	})
	return cmd
}

// generator resolves the shared flags and prints every file fn wrote.
func generator(fn func(root string, opts gen.GenOptions, args []string) ([]string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("target")
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			root = wd
		}
		var opts gen.GenOptions
		opts.Force, _ = cmd.Flags().GetBool("force")
		opts.Module, _ = cmd.Flags().GetString("module")
		if f := cmd.Flags().Lookup("skip-migrations"); f != nil {
			opts.SkipMigrations, _ = cmd.Flags().GetBool("skip-migrations")
		}

		created, err := fn(root, opts, args)
		for _, p := range created {
			fmt.Fprintln(cmd.OutOrStdout(), "created", p)
		}
		return err
	}
}

func single(path string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}
