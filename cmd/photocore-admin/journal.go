package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/photocore/pkg/journal"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/upload"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and replay the deletion journal",
}

var journalRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replay every journaled delete command, as happens automatically at startup",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		imageDir, _ := cmd.Flags().GetString("image-dir")

		kv, err := kvstore.Open(dataDir)
		if err != nil {
			return fmt.Errorf("open data directory: %w", err)
		}
		defer kv.Close()

		up, err := upload.New(imageDir)
		if err != nil {
			return fmt.Errorf("open image directory: %w", err)
		}

		j := journal.New(kv, up.RemoveDerivatives)
		if err := j.Restore(); err != nil {
			return fmt.Errorf("restore journal: %w", err)
		}
		fmt.Println("journal restored")
		return nil
	},
}

func init() {
	journalCmd.AddCommand(journalRestoreCmd)
}
