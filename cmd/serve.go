package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hexwave/wifidash/internal/server"
	"github.com/hexwave/wifidash/pkg/bundle"
	"github.com/hexwave/wifidash/pkg/netevent"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		user, _ := cmd.Flags().GetString("user")
		pass, _ := cmd.Flags().GetString("pass")

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
		bundles, err := bundleDir()
		if err != nil {
			return err
		}
		wpa, err := newWpasecClient()
		if err != nil {
			return err
		}

		locator := newLocator(db)
		srv := &server.Server{
			History:   db,
			Wordlists: wl,
			Bundles:   bundle.NewBuilder(locator, wl),
			WpaSec:    wpa,
			Shapes:    &netevent.ShapeLog{},
			BundleDir: bundles,
			Username:  user,
			Password:  pass,
		}
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8666", "HTTP listen address")
	serveCmd.Flags().String("user", "", "Basic auth username (empty disables auth)")
	serveCmd.Flags().String("pass", "", "Basic auth password")
}
