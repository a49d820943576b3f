package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexwave/wifidash/pkg/wpasec"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Pull cracked results from wpa-sec into history",
	Long: `Performs a single read-only lookup against the wpa-sec API and merges
any cracked passwords into matching history entries. A failed lookup
leaves the store untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newWpasecClient()
		if err != nil {
			return err
		}

		db, lock, err := openHistory()
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		updated, err := wpasec.Reconcile(context.Background(), client, db)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d history entr%s\n", updated, plural(updated, "y", "ies"))
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
