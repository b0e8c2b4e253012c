package cli

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nobuki/engram/internal/config"
	"github.com/nobuki/engram/internal/store"
)

var (
	recentOwner int64
	recentLimit int
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently created memories",
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().Int64Var(&recentOwner, "owner", 0, "Owner user id (0 = all)")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "Maximum number of results")
}

func runRecent(cmd *cobra.Command, args []string) error {
	godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return err
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	memories, err := db.ListRecentMemories(recentOwner, recentLimit)
	if err != nil {
		return err
	}

	if len(memories) == 0 {
		fmt.Println("no memories stored")
		return nil
	}

	for _, m := range memories {
		created := time.UnixMilli(m.CreatedAt).Format("2006-01-02 15:04")
		fmt.Printf("[%d] %s  recalls=%d stability=%.2f  %s\n",
			m.ID, created, m.RecallCount, m.Stability, m.Content)
	}
	return nil
}
