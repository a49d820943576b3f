package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/captures"
	"github.com/hexwave/wifidash/pkg/wpasec"
)

var cfgFile string

const (
	LOGO = `	          _  __ _     _           _
	__      _(_)/ _(_) __| | __ _ ___| |__
	\ \ /\ / / | |_| |/ _` + "`" + ` |/ _` + "`" + ` / __| '_ \
	 \ V  V /| |  _| | (_| | (_| \__ \ | | |
	  \_/\_/ |_|_| |_|\__,_|\__,_|___/_| |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wifidash",
	Short: "Dashboard companion for a Wi-Fi reconnaissance device.",
	Long: LOGO + `wifidash tracks the networks your device has seen, pulls cracked
results from wpa-sec, and packages handshakes with a wordlist for
offline cracking. It never attacks anything itself.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wifidash.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("db", "", "", "history database path (default is $HOME/.config/wifidash/wifidash.sqlite)")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for the wpa-sec lookup (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".wifidash")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.wifidash.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("wpasec.api_key", "")
	viper.SetDefault("wpasec.url", wpasec.DefaultURL)
	viper.SetDefault("capture_dirs", captures.DefaultDirs)
	viper.SetDefault("wordlist_dir", "")
	viper.SetDefault("bundle_dir", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
