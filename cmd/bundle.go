package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/bundle"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <bssid> [bssid...]",
	Short: "Package captures and a wordlist into a crack-ready archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wordlist, _ := cmd.Flags().GetString("wordlist")
		outDir, _ := cmd.Flags().GetString("output")
		if outDir == "" {
			var err error
			if outDir, err = bundleDir(); err != nil {
				return err
			}
		}

		db, lock, err := openHistory()
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		wl, err := wordlistStore()
		if err != nil {
			return err
		}

		builder := bundle.NewBuilder(newLocator(db), wl)
		res, err := builder.Build(context.Background(), args, wordlist)
		if err != nil {
			return err
		}
		for _, warning := range res.Warnings {
			utils.Log.Warn(warning)
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		out := filepath.Join(outDir, res.Name)
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Bundle ready: %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.Flags().StringP("wordlist", "w", "", "Name of the stored wordlist to include")
	bundleCmd.Flags().StringP("output", "o", "", "Output directory (default is the configured bundle_dir)")
	bundleCmd.MarkFlagRequired("wordlist")
}
