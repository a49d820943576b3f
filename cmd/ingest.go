package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hexwave/wifidash/pkg/netevent"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [payload file]",
	Short: "Normalize a raw device payload and merge it into history",
	Long: `Reads one raw event payload (a file argument, or stdin) in any of the
shapes the device emits, normalizes it and upserts the resulting records.
Capture-confirmed events also remember the handshake file path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload []byte
		var err error
		if len(args) == 1 {
			payload, err = os.ReadFile(args[0])
		} else {
			payload, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}

		db, lock, err := openHistory()
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		ctx := context.Background()
		res := netevent.Normalize(payload)
		for _, rec := range res.Records {
			if _, err := db.Upsert(ctx, rec); err != nil {
				return err
			}
			if rec.CapturePath != "" {
				if err := db.RecordCapture(ctx, rec.BSSID, rec.CapturePath); err != nil {
					return err
				}
			}
		}

		fmt.Printf("Merged %d record(s) into history\n", len(res.Records))
		for _, u := range res.Unknown {
			if len(u.Keys) == 0 {
				fmt.Println("Unrecognized payload shape (not a JSON object)")
				continue
			}
			fmt.Printf("Unrecognized shape with keys: %s\n", strings.Join(u.Keys, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
