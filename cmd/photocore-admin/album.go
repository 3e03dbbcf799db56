package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/photocore/pkg/wire"
)

var albumCmd = &cobra.Command{
	Use:   "album",
	Short: "Manage albums",
}

var albumCreateCmd = &cobra.Command{
	Use:   "create SESSION_KEY NAME TIMEZONE",
	Short: "Create an album owned by the caller",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		albumID, err := cat.CreateAlbum(args[0], wire.AlbumDescription{Name: args[1], TimeZone: args[2]})
		if err != nil {
			return fmt.Errorf("create album: %w", err)
		}
		fmt.Println(albumID)
		return nil
	},
}

var albumListCmd = &cobra.Command{
	Use:   "list SESSION_KEY",
	Short: "List albums visible to the caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		albums, err := cat.ListAlbums(args[0])
		if err != nil {
			return fmt.Errorf("list albums: %w", err)
		}
		for id, entry := range albums {
			fmt.Printf("%s\t%s\t%s\t%d files\n", id, entry.Role, entry.Album.Description.Name, entry.Album.Length)
		}
		return nil
	},
}

var albumUpdateCmd = &cobra.Command{
	Use:   "update SESSION_KEY ALBUM_ID NAME TIMEZONE",
	Short: "Update an album's name and time zone (changing the zone rebuckets its days)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cat.UpdateAlbum(args[0], args[1], wire.AlbumDescription{Name: args[2], TimeZone: args[3]}); err != nil {
			return fmt.Errorf("update album: %w", err)
		}
		fmt.Println("album updated")
		return nil
	},
}

var albumServeCmd = &cobra.Command{
	Use:   "serve SESSION_KEY ALBUM_ID FRAGMENT_ID|metadata",
	Short: "Print a fragment's raw JSON, or the album record with the caller's role",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		data, err := cat.ServeFragment(args[0], args[1], args[2])
		if err != nil {
			return fmt.Errorf("serve fragment: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var albumAddFilesCmd = &cobra.Command{
	Use:   "add-files SESSION_KEY ALBUM_ID FILE_ID [FILE_ID...]",
	Short: "Add files to an album",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cat.AddFiles(args[0], args[1], args[2:]); err != nil {
			return fmt.Errorf("add files: %w", err)
		}
		fmt.Println("files added")
		return nil
	},
}

var albumRemoveFilesCmd = &cobra.Command{
	Use:   "remove-files SESSION_KEY ALBUM_ID FILE_ID [FILE_ID...]",
	Short: "Remove files from an album",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cat.RemoveFiles(args[0], args[1], args[2:]); err != nil {
			return fmt.Errorf("remove files: %w", err)
		}
		fmt.Println("files removed")
		return nil
	},
}

var albumShareCmd = &cobra.Command{
	Use:   "share SESSION_KEY ALBUM_ID EMAIL ROLE",
	Short: "Share an album with another user (role: editor|reader)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		role := wire.Role(strings.ToLower(args[3]))
		if err := cat.ShareAlbum(args[0], args[1], args[2], role); err != nil {
			return fmt.Errorf("share album: %w", err)
		}
		fmt.Println("shared")
		return nil
	},
}

var albumUnshareCmd = &cobra.Command{
	Use:   "unshare SESSION_KEY ALBUM_ID EMAIL",
	Short: "Remove a user's access to an album",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cat.UnshareAlbum(args[0], args[1], args[2]); err != nil {
			return fmt.Errorf("unshare album: %w", err)
		}
		fmt.Println("unshared")
		return nil
	},
}

var albumSharesCmd = &cobra.Command{
	Use:   "shares SESSION_KEY ALBUM_ID",
	Short: "List an album's shares",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		shares, err := cat.ListShares(args[0], args[1])
		if err != nil {
			return fmt.Errorf("list shares: %w", err)
		}
		for _, s := range shares {
			fmt.Printf("%s\t%s\t%s\n", s.Email, s.UserID, s.Role)
		}
		return nil
	},
}

var albumDeleteCmd = &cobra.Command{
	Use:   "delete SESSION_KEY ALBUM_ID",
	Short: "Delete an album (owner only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, closeFn, err := openCatalog(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := cat.DeleteAlbum(args[0], args[1]); err != nil {
			return fmt.Errorf("delete album: %w", err)
		}
		fmt.Println("album deleted")
		return nil
	},
}

func init() {
	albumCmd.AddCommand(albumCreateCmd, albumListCmd, albumUpdateCmd, albumServeCmd,
		albumAddFilesCmd, albumRemoveFilesCmd,
		albumShareCmd, albumUnshareCmd, albumSharesCmd, albumDeleteCmd)
}
