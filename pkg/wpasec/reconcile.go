package wpasec

import (
	"context"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/history"
)

// Reconcile fetches the cracked results once and merges them into the
// history store. The store is only touched after the whole response has
// been fetched and parsed, and the merge itself runs in one transaction,
// so a network error, timeout or rejected key leaves every entry
// exactly as it was.
//
// Rows are matched by BSSID; rows that only carry a display name fall
// back to an ESSID match. Display names are ambiguous (duplicates are
// common), which is why the hardware address is the primary key.
func Reconcile(ctx context.Context, c *Client, db *history.DB) (int, error) {
	results, err := c.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	byBSSID := make(map[string]string)
	bySSID := make(map[string]string)
	for _, r := range results {
		if r.BSSID != "" {
			byBSSID[utils.NormalizeBSSID(r.BSSID)] = r.Password
		} else if r.SSID != "" {
			bySSID[r.SSID] = r.Password
		}
	}

	updated, err := db.ApplyCracked(ctx, byBSSID, bySSID)
	if err != nil {
		return 0, err
	}
	utils.Log.Debugf("[wpasec] %d results fetched, %d entries updated", len(results), updated)
	return updated, nil
}
