package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nobuki/engram/internal/config"
)

var (
	recallOwner int64
	recallLimit int
)

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Recall the most relevant memories for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecall,
}

func init() {
	recallCmd.Flags().Int64Var(&recallOwner, "owner", 0, "Owner user id (0 = all)")
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "n", 5, "Maximum number of results")
}

func runRecall(cmd *cobra.Command, args []string) error {
	godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	db, eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := eng.Recall(context.Background(), args[0], recallOwner, recallLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no memories found")
		return nil
	}

	for _, r := range results {
		if r.Scored {
			fmt.Printf("[%d] score=%.4f sim=%.4f R=%.4f  %s\n",
				r.Memory.ID, r.Score, r.Similarity, r.Retrievability, r.Memory.Content)
		} else {
			fmt.Printf("[%d] (recency)  %s\n", r.Memory.ID, r.Memory.Content)
		}
	}
	return nil
}
