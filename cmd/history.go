package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the network history store",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all observed networks, most recently seen first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, lock, err := openHistory()
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		entries, err := db.List(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BSSID\tSSID\tCH\tRSSI\tWL\tLAST SEEN\tCRACKED\tCAPTURE")
		for _, e := range entries {
			ssid := e.SSID
			if ssid == "" {
				ssid = "(hidden)"
			}
			ch, rssi := "-", "-"
			if e.Channel != nil {
				ch = fmt.Sprintf("%d", *e.Channel)
			}
			if e.RSSI != nil {
				rssi = fmt.Sprintf("%d", *e.RSSI)
			}
			wl := ""
			if e.Whitelisted {
				wl = "yes"
			}
			cracked := ""
			if e.CrackedPassword != "" {
				cracked = e.CrackedPassword
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.BSSID, ssid, ch, rssi, wl,
				e.LastSeenAt.Format("2006-01-02 15:04:05"), cracked, e.CapturePath)
		}
		return w.Flush()
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every history entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("refusing to wipe history without --force")
		}

		db, lock, err := openHistory()
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		if err := db.Reset(context.Background()); err != nil {
			return err
		}
		fmt.Println("History cleared")
		return nil
	},
}

var historyWhitelistCmd = &cobra.Command{
	Use:   "whitelist <bssid>",
	Short: "Toggle the whitelist flag for a network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		off, _ := cmd.Flags().GetBool("off")

		db, lock, err := openHistory()
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		if err := db.SetWhitelist(context.Background(), args[0], !off); err != nil {
			return err
		}
		if off {
			fmt.Printf("%s removed from whitelist\n", args[0])
		} else {
			fmt.Printf("%s whitelisted\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyResetCmd)
	historyCmd.AddCommand(historyWhitelistCmd)

	historyResetCmd.Flags().Bool("force", false, "Actually wipe the history")
	historyWhitelistCmd.Flags().Bool("off", false, "Remove the network from the whitelist instead")
}
