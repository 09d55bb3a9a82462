package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dministrator/parkes/examples/blog/app"
	"github.com/dministrator/parkes/examples/blog/app/store"
	"github.com/dministrator/parkes/pkg/parkes"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes the server registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.NewRouter(parkes.Options{}, store.NewMemory())
			if err != nil {
				return err
			}
			return printRoutes(cmd.OutOrStdout(), r.Routes())
		},
	}
}

func printRoutes(w io.Writer, routes []parkes.RouteDescriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tACTION\tRESOURCE")
	for _, rt := range routes {
		action, resource := rt.Action.String(), rt.Resource
		if action == "" {
			action = "-"
		}
		if resource == "" {
			resource = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rt.Method, rt.Path, action, resource)
	}
	return tw.Flush()
}
