package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cuemby/photocore/pkg/auth"
	"github.com/cuemby/photocore/pkg/wire"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files",
}

var fileUploadCmd = &cobra.Command{
	Use:   "upload SESSION_KEY PATH NAME MIME WIDTH HEIGHT LAST_MODIFIED",
	Short: "Upload a file, using PATH as the source for all three derivative qualities",
	Args:  cobra.ExactArgs(7),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, up, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		width, err := strconv.ParseInt(args[4], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid width: %w", err)
		}
		height, err := strconv.ParseInt(args[5], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid height: %w", err)
		}
		lastModified, err := strconv.ParseInt(args[6], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid last-modified: %w", err)
		}

		stagingID, err := auth.NewID(8)
		if err != nil {
			return err
		}
		staged, cleanup := up.Stage(stagingID)
		for _, dst := range []string{staged.Large, staged.Medium, staged.Small} {
			if err := copyFile(args[1], dst); err != nil {
				cleanup()
				return fmt.Errorf("stage derivative: %w", err)
			}
		}

		fileID, err := up.Commit(cat, args[0], wire.FileMetadata{
			LastModified: lastModified,
			Name:         args[2],
			Mime:         args[3],
		}, int32(width), int32(height), staged)
		if err != nil {
			cleanup()
			return fmt.Errorf("upload file: %w", err)
		}
		fmt.Println(fileID)
		return nil
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list SESSION_KEY [NAME_PREFIX] [SKIP] [LENGTH]",
	Short: "List the caller's uploaded files",
	Args:  cobra.RangeArgs(1, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		prefix := ""
		skip, length := 0, 100
		if len(args) > 1 {
			prefix = args[1]
		}
		if len(args) > 2 {
			skip, err = strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid skip: %w", err)
			}
		}
		if len(args) > 3 {
			length, err = strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid length: %w", err)
			}
		}

		entries, err := cat.ListFiles(args[0], prefix, skip, length)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.FileID, e.Name)
		}
		return nil
	},
}

func init() {
	fileCmd.AddCommand(fileUploadCmd, fileListCmd)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
