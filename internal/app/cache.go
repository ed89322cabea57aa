package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/output"
	"github.com/blackwell-systems/gitrate/internal/store"
)

var cacheFlagExpired bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the metadata cache",
	Long: `Fetched repository metadata is cached in a local SQLite database so
repeated analyses within the cache TTL do not call GitHub again. Scores are
never cached; they are recomputed on every run.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached repositories",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached repositories",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheFlagExpired, "expired", false, "Only remove entries older than the cache TTL")
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCacheDB opens the configured SQLite cache, refusing other backends
// since they keep nothing between runs.
func openCacheDB() (*store.DB, error) {
	if !strings.EqualFold(cfg.Cache.Backend, "sqlite") {
		return nil, fmt.Errorf("cache backend is %q; only the sqlite backend persists entries", cfg.Cache.Backend)
	}
	db, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	return db, nil
}

// cacheRow is the JSON shape of a listed entry.
type cacheRow struct {
	store.CacheEntry
	Fresh bool `json:"fresh"`
}

func runCacheList(cmd *cobra.Command, args []string) error {
	db, err := openCacheDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	entries, err := db.ListCachedSnapshots()
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}

	now := time.Now()
	rows := make([]cacheRow, len(entries))
	for i, e := range entries {
		rows[i] = cacheRow{CacheEntry: e, Fresh: now.Sub(e.FetchedAt) < cfg.Cache.TTL}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Println(output.Section("Cache"))
	fmt.Println()
	if len(rows) == 0 {
		fmt.Printf(" %s\n\n", output.StyleMuted.Render("no cached repositories"))
		return nil
	}

	tbl := output.NewTable("Repository", "Fetched", "Age", "Size", "State")
	for _, r := range rows {
		state := output.StyleMuted.Render("expired")
		if r.Fresh {
			state = output.StyleSuccess.Render("fresh")
		}
		tbl.AddRow(
			r.FullName,
			r.FetchedAt.Local().Format("2006-01-02 15:04"),
			now.Sub(r.FetchedAt).Round(time.Second).String(),
			fmt.Sprintf("%.1f KB", float64(r.Bytes)/1024),
			state,
		)
	}
	for _, line := range strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n") {
		fmt.Printf(" %s\n", line)
	}
	fmt.Println()
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	db, err := openCacheDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var removed int64
	if cacheFlagExpired {
		removed, err = db.PruneCache(time.Now().Add(-cfg.Cache.TTL))
	} else {
		removed, err = db.ClearCache()
	}
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]int64{"removed": removed})
	}
	fmt.Printf(" %s removed %d cached repositories\n", output.StyleSuccess.Render("✓"), removed)
	return nil
}
