package commands

import (
	"fmt"

	"github.com/de-tools/wasteops/pkg/runtime/terminal/export"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/spf13/cobra"
)

func NewReportsCmd(globals *Globals, registry reports.Registry, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the available reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := globals.reporter(reporter)
			if err != nil {
				return err
			}
			return r.HandleCatalog(registry.List())
		},
	}
}

func NewCitiesCmd(catalog Catalog, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities known to the report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cities, err := catalog.ListCities(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list cities: %w", err)
			}
			for _, c := range cities {
				if err := reporter.Println(c.City); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func NewReportTypesCmd(catalog Catalog, reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "report-types",
		Short: "List the report types published by the report API with their page routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types, err := catalog.ListReportTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list report types: %w", err)
			}
			for _, t := range reports.WithRoutes(types) {
				route := t.Route
				if route == "" {
					route = "(no page)"
				}
				if err := reporter.Println(fmt.Sprintf("%-30s %s", t.Name, route)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
