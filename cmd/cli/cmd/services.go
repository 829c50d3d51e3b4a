// Package cmd - CLI command: pricing-pipeline services
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/santoshpalla27/aws-frontend-estimation/core/normalize"
	"github.com/santoshpalla27/aws-frontend-estimation/core/registry"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/config"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the services in the registry",
	Long: `List every service the registry knows about, whether it is enabled,
and whether a normalization processor is bound to it.

A service without a bound processor cannot complete a run: its download
would succeed but normalization would never start, and the parity check
fails the run.`,
	RunE: runServices,
}

func runServices(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	reg, err := registry.LoadFile(cfg.RegistryPath)
	if err != nil {
		return err
	}

	processors := normalize.DefaultProcessors()

	fmt.Printf("%-14s %-38s %-14s %-8s %s\n", "CODE", "NAME", "PROCESSOR", "ENABLED", "BOUND")
	for _, def := range reg.All() {
		bound := "✓"
		if _, ok := processors[def.Processor]; !ok {
			bound = "✗"
		}
		fmt.Printf("%-14s %-38s %-14s %-8t %s\n", def.Code, def.Name, def.Processor, def.Enabled, bound)
	}
	return nil
}
