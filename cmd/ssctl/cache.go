package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/siteimage"
	"github.com/abelbrown/screenstate/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the site image cache",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Print the cached file for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(c *siteimage.FileCache, _ *store.Store) error {
			path, ok := c.Path(args[0])
			if !ok {
				return fmt.Errorf("%s is not cached", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <url>...",
	Short: "Remove cached images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(c *siteimage.FileCache, _ *store.Store) error {
			for _, u := range args {
				if err := c.Remove(u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", u)
			}
			return nil
		})
	},
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached images, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(func(c *siteimage.FileCache, st *store.Store) error {
			imgs, err := st.Images()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, img := range imgs {
				fmt.Fprintf(out, "%s  %8d  %s\n", img.CachedAt.Format("2006-01-02 15:04"), img.Size, truncate(img.URL, 80))
			}
			fmt.Fprintf(out, "%d images in %s\n", len(imgs), c.Dir())
			return nil
		})
	},
}

func withCache(fn func(*siteimage.FileCache, *store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := siteimage.NewFileCache(cfg.ImageDir(), st, logging.Nop())
	if err != nil {
		return err
	}
	return fn(c, st)
}
