// Package cmd - CLI command: pricing-pipeline update
package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/santoshpalla27/aws-frontend-estimation/core/pipeline"
	"github.com/santoshpalla27/aws-frontend-estimation/core/registry"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/config"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the full pricing pipeline and publish a new version",
	Long: `Download, normalize, validate, diff, and version every enabled
service catalog.

The run is all-or-nothing: every enabled service must come through the
whole pipeline, or nothing is published and the latest pointer keeps
resolving to the previous version.`,
	RunE: runUpdate,
}

var (
	updateRegion    string
	updateRegistry  string
	updateWorkDir   string
	updateOutputDir string
	updateTimeout   time.Duration
)

func init() {
	updateCmd.Flags().StringVarP(&updateRegion, "region", "r", "", "pricing region to retain (default from config)")
	updateCmd.Flags().StringVar(&updateRegistry, "registry", "", "service registry file (HCL)")
	updateCmd.Flags().StringVar(&updateWorkDir, "work-dir", "", "directory for raw downloads and manifests")
	updateCmd.Flags().StringVarP(&updateOutputDir, "output-dir", "o", "", "directory for versioned snapshots")
	updateCmd.Flags().DurationVar(&updateTimeout, "timeout", 30*time.Minute, "timeout for the whole run")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if updateRegion != "" {
		cfg.Region = updateRegion
	}
	if updateRegistry != "" {
		cfg.RegistryPath = updateRegistry
	}
	if updateWorkDir != "" {
		cfg.WorkDir = updateWorkDir
	}
	if updateOutputDir != "" {
		cfg.OutputDir = updateOutputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg, err := registry.LoadFile(cfg.RegistryPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	fmt.Println("")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                 PRICING PIPELINE UPDATE RUN")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("")
	fmt.Printf("Region:    %s\n", cfg.Region)
	fmt.Printf("Services:  %d enabled\n", len(reg.Enabled()))
	fmt.Printf("Output:    %s\n", cfg.OutputDir)
	fmt.Println("")

	start := time.Now()
	result, err := pipeline.New(cfg, reg).Run(ctx)
	if err != nil {
		printRunFailure(err)
		logging.Sync()
		os.Exit(1)
	}

	printRunResult(result, time.Since(start))
	return nil
}

func printRunResult(result *pipeline.Result, took time.Duration) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✓ RUN COMPLETED")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("")
	if result.Previous == "" {
		fmt.Printf("Version:    %s (first publish)\n", result.Version)
	} else {
		fmt.Printf("Version:    %s (previous %s)\n", result.Version, result.Previous)
	}
	cause := result.Report.BumpCause()
	fmt.Printf("Bump:       %s (%s)\n", cause.Bump, cause.Reason)
	fmt.Printf("Run ID:     %s\n", result.RunID)
	fmt.Printf("Services:   %d\n", len(result.Services))
	fmt.Println("")

	fmt.Println("Changes since previous version:")
	fmt.Printf("  Schema:   %d\n", result.Report.SchemaChanges)
	fmt.Printf("  Pricing:  %d\n", result.Report.PricingChanges)
	fmt.Printf("  Metadata: %d\n", result.Report.MetadataChanges)
	fmt.Println("")

	fmt.Println("Per-service outcome:")
	for _, sd := range result.Report.Services {
		note := fmt.Sprintf("%d changes", len(sd.Changes))
		if sd.NewService {
			note = "new service"
		}
		fmt.Printf("  ✓ %-16s %-6s %s\n", sd.Service, sd.Bump, note)
	}

	fmt.Printf("\nDuration: %s\n", took.Round(time.Millisecond))
}

// printRunFailure renders the structured diagnostic for a failed run.
// Every pipeline error carries its taxonomy type and enough context to
// locate the offending service and document path.
func printRunFailure(err error) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✗ RUN FAILED")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("")

	domainErr, ok := err.(*errors.Error)
	if !ok {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("\nNo output was published for this run.")
		return
	}

	fmt.Printf("Type:    %s\n", domainErr.Type)
	fmt.Printf("Message: %s\n", domainErr.Message)
	if domainErr.Cause != nil {
		fmt.Printf("Cause:   %v\n", domainErr.Cause)
	}

	if len(domainErr.Context) > 0 {
		fmt.Println("")
		fmt.Println("Context:")
		keys := make([]string, 0, len(domainErr.Context))
		for key := range domainErr.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("  %-12s %v\n", key+":", domainErr.Context[key])
		}
	}

	fmt.Println("\nNo output was published for this run.")
}
