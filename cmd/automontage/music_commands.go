package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"automontage/internal/config"
	"automontage/internal/music"
)

type musicOptions struct {
	dir        string
	targetRate int
}

func (o musicOptions) resolve(cmd *cobra.Command, cfg *config.Config) (string, int, error) {
	dir := cfg.Paths.MusicDir
	if value := strings.TrimSpace(o.dir); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return "", 0, fmt.Errorf("resolve music dir: %w", err)
		}
		dir = expanded
	}
	target := cfg.Music.TargetRate
	if cmd.Flags().Changed("target-rate") {
		target = o.targetRate
	}
	return dir, target, nil
}

func newMusicCommand(ctx *commandContext) *cobra.Command {
	musicCmd := &cobra.Command{
		Use:   "music",
		Short: "Inspect the background music library",
	}
	musicCmd.AddCommand(newMusicListCommand(ctx))
	musicCmd.AddCommand(newMusicPickCommand(ctx))
	return musicCmd
}

func bindMusicFlags(cmd *cobra.Command, opts *musicOptions) {
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "Music directory (overrides paths.music_dir)")
	cmd.Flags().IntVarP(&opts.targetRate, "target-rate", "r", 0, "Target rate (overrides music.target_rate)")
}

func newMusicListCommand(ctx *commandContext) *cobra.Command {
	var opts musicOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate tracks with their encoded rate and distance to the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, target, err := opts.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			entries, err := music.Catalog(cmd.Context(), music.OSLister{}, music.ReadTags, dir, target)
			if err != nil {
				return fmt.Errorf("list music: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No tracks in %s\n", dir)
				return nil
			}

			best := nearestEntry(entries, target)
			rows := make([][]string, 0, len(entries))
			invalid := 0
			for i, entry := range entries {
				rate, dist := "-", "-"
				if entry.Valid() {
					rate = strconv.Itoa(entry.Rate)
					dist = strconv.FormatUint(entry.Distance, 10)
				} else {
					invalid++
					rate = "invalid"
				}
				marker := ""
				if i == best {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					entry.Name,
					rate,
					dist,
					entry.Title,
					entry.Artist,
					entry.Format,
				})
			}
			renderTable(out, []string{"", "File", "Rate", "Distance", "Title", "Artist", "Format"}, rows, 2, 3)

			if invalid > 0 {
				fmt.Fprintf(out, "%d file(s) do not encode a rate; `automontage run` will fail until they are renamed or removed\n", invalid)
				return nil
			}
			fmt.Fprintf(out, "Selected for target rate %d: %s\n", target, entries[best].Name)
			return nil
		},
	}
	bindMusicFlags(cmd, &opts)
	return cmd
}

// nearestEntry returns the index of the entry the selector would choose
// among valid entries, or -1 when no entry is valid.
func nearestEntry(entries []music.Entry, target int) int {
	candidates := make([]music.Candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.Valid() {
			candidates = append(candidates, music.Candidate{Name: entry.Name, Path: entry.Path, Rate: entry.Rate})
		}
	}
	best, err := music.Nearest(candidates, target)
	if err != nil {
		return -1
	}
	for i, entry := range entries {
		if entry.Path == best.Path {
			return i
		}
	}
	return -1
}

func newMusicPickCommand(ctx *commandContext) *cobra.Command {
	var opts musicOptions
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Print the track the run command would select",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, target, err := opts.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			path, err := music.SelectNearest(cmd.Context(), dir, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	bindMusicFlags(cmd, &opts)
	return cmd
}
