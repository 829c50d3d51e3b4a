// Package cmd - CLI command: pricing-pipeline versions
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/santoshpalla27/aws-frontend-estimation/core/version"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/config"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List published pricing versions",
	Long: `List every published version under the output directory, oldest
first, with the change that caused each bump. The version the latest
pointer resolves to is marked with an asterisk.`,
	RunE: runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	writer := version.NewWriter(cfg.OutputDir, time.Now)

	published, err := writer.Versions()
	if err != nil {
		return err
	}
	if len(published) == 0 {
		fmt.Println("No versions published yet.")
		return nil
	}

	pointer, found, err := writer.ReadLatest()
	if err != nil {
		return err
	}

	fmt.Printf("%-2s %-10s %-22s %-7s %s\n", "", "VERSION", "CREATED", "BUMP", "CAUSE")
	for _, meta := range published {
		marker := ""
		if found && meta.Version == pointer.Version {
			marker = "*"
		}
		cause := meta.BumpCause.Reason
		if meta.BumpCause.Service != "" {
			cause = fmt.Sprintf("%s: %s", meta.BumpCause.Service, meta.BumpCause.Reason)
		}
		fmt.Printf("%-2s %-10s %-22s %-7s %s\n", marker, meta.Version, meta.CreatedAt, meta.BumpCause.Bump, cause)
	}
	return nil
}
