package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/captures"
	"github.com/hexwave/wifidash/pkg/history"
	"github.com/hexwave/wifidash/pkg/wordlists"
	"github.com/hexwave/wifidash/pkg/wpasec"
)

// openHistory resolves the database path, takes the cross-process write
// lock and opens the store. Callers must Unlock the returned lock.
func openHistory() (*history.DB, *utils.DBLock, error) {
	dbPath, _ := rootCmd.PersistentFlags().GetString("db")
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return nil, nil, err
	}

	lock, err := utils.NewDBLock(absPath)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}

	db, err := history.Open(absPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, err
	}
	return db, lock, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wifidash"), nil
}

func wordlistStore() (*wordlists.Store, error) {
	dir := viper.GetString("wordlist_dir")
	if dir == "" {
		base, err := configDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "wordlists")
	}
	return wordlists.NewStore(dir)
}

func bundleDir() (string, error) {
	if dir := viper.GetString("bundle_dir"); dir != "" {
		return dir, nil
	}
	base, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "bundles"), nil
}

func newLocator(db *history.DB) *captures.Locator {
	dirs := viper.GetStringSlice("capture_dirs")
	if len(dirs) == 0 {
		dirs = captures.DefaultDirs
	}
	return &captures.Locator{Dirs: dirs, History: db}
}

func newWpasecClient() (*wpasec.Client, error) {
	client := wpasec.NewClient(viper.GetString("wpasec.api_key"))
	if url := viper.GetString("wpasec.url"); url != "" {
		client.URL = url
	}
	if proxy, _ := rootCmd.PersistentFlags().GetString("proxy"); proxy != "" {
		if err := client.SetProxy(proxy); err != nil {
			return nil, fmt.Errorf("setting proxy: %w", err)
		}
	}
	return client, nil
}
