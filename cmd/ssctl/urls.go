package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/screenstate/internal/wallpaper"
)

var urlsCmd = &cobra.Command{
	Use:   "urls [wallpaper-id...]",
	Short: "Print wallpaper endpoint URLs",
	Long: `Print the wallpaper metadata URL, then the thumbnail URL of each
wallpaper ID given.`,
	RunE: runURLs,
}

func runURLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := cfg.URLProvider()
	out := cmd.OutOrStdout()

	u, err := p.MetadataURL()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "metadata  %s\n", u)

	for _, id := range args {
		u, err := p.ThumbnailURL(wallpaper.Wallpaper{ID: id})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-9s %s\n", truncate(id, 9), u)
	}
	return nil
}
