package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// wordlistCmd represents the wordlist command
var wordlistCmd = &cobra.Command{
	Use:   "wordlist",
	Short: "Manage stored wordlists",
}

var wordlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored wordlists",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := wordlistStore()
		if err != nil {
			return err
		}
		assets, err := store.List()
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Println("No wordlists stored yet. Add one with: wifidash wordlist add <file>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE")
		for _, a := range assets {
			fmt.Fprintf(w, "%s\t%s\n", a.Name, humanize.Bytes(uint64(a.SizeBytes)))
		}
		return w.Flush()
	},
}

var wordlistAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Store a wordlist (replaces an existing one with the same name)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := wordlistStore()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		asset, err := store.Put(filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		fmt.Printf("Stored %s (%s)\n", asset.Name, humanize.Bytes(uint64(asset.SizeBytes)))
		return nil
	},
}

var wordlistRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a stored wordlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := wordlistStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wordlistCmd)
	wordlistCmd.AddCommand(wordlistListCmd)
	wordlistCmd.AddCommand(wordlistAddCmd)
	wordlistCmd.AddCommand(wordlistRmCmd)
}
