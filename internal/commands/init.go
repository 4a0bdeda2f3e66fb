package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/fixtures"
)

const paymentMethodsSkeleton = `payment_methods:
  defaults:
    type: credit_card
    currency: CAD
  objects: []
`

const vendorsSkeleton = `assets: []
vendors: []
exclusions: []
`

func newInitCommand() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new receipts project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, databaseURL); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized receipts project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL to store in the config")

	return cmd
}

func runInit(dir, databaseURL string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Database.URL = databaseURL

	dirs := []string{
		cfg.Import.Dir,
		cfg.Import.ProcessedDir,
		filepath.Dir(cfg.Import.RunLog),
		"fixtures",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join("fixtures", fixtures.PaymentMethodsFile), paymentMethodsSkeleton},
		{filepath.Join("fixtures", fixtures.VendorsFile), vendorsSkeleton},
		{".gitignore", ".env\n" + cfg.Import.ProcessedDir + "/\n" + filepath.Dir(cfg.Import.RunLog) + "/\n"},
		{filepath.Join(cfg.Import.Dir, ".gitkeep"), ""},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.path), []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
	}
	return nil
}
