package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/photocore/pkg/catalog"
	"github.com/cuemby/photocore/pkg/journal"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/upload"
)

// openCatalog opens the data and image directories named by the root
// command's persistent flags and wires a journal-backed catalog.Store,
// with pkg/upload supplying derivative cleanup. Callers must Close the
// returned store's kvstore.Store-derived resources via the returned
// closer.
func openCatalog(cmd *cobra.Command) (*catalog.Store, *upload.Manager, func(), error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	imageDir, _ := cmd.Flags().GetString("image-dir")

	kv, err := kvstore.Open(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open data directory: %w", err)
	}

	up, err := upload.New(imageDir)
	if err != nil {
		kv.Close()
		return nil, nil, nil, fmt.Errorf("open image directory: %w", err)
	}

	j := journal.New(kv, up.RemoveDerivatives)
	cat := catalog.New(kv, j)

	return cat, up, func() { kv.Close() }, nil
}
