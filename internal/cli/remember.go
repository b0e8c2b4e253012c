package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nobuki/engram/internal/config"
)

var (
	rememberOwner     int64
	rememberSentiment float64
	rememberEmotions  string
	rememberType      string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <content>",
	Short: "Store a new memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemember,
}

func init() {
	rememberCmd.Flags().Int64Var(&rememberOwner, "owner", 0, "Owner user id (0 = unscoped)")
	rememberCmd.Flags().Float64Var(&rememberSentiment, "sentiment", 0, "Sentiment score in [-1, 1]")
	rememberCmd.Flags().StringVar(&rememberEmotions, "emotions", "", "Comma-separated emotion tags")
	rememberCmd.Flags().StringVar(&rememberType, "type", "conversational", "Memory type: conversational, event, system")
}

func runRemember(cmd *cobra.Command, args []string) error {
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

	var emotions []string
	for _, tag := range strings.Split(rememberEmotions, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			emotions = append(emotions, tag)
		}
	}

	id, err := eng.Remember(context.Background(), args[0], rememberOwner, rememberSentiment, emotions, rememberType)
	if err != nil {
		return err
	}

	fmt.Printf("stored memory %d\n", id)
	return nil
}
