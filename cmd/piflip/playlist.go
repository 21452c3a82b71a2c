package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/library"
	"github.com/herlein/piflip/pkg/transmit"
)

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Run and manage transmit playlists",
}

// readSteps accepts either a saved playlist name or a JSON file of steps
func readSteps(a *app, ref string) ([]library.Step, error) {
	if data, err := os.ReadFile(ref); err == nil {
		var p library.Playlist
		if err := json.Unmarshal(data, &p); err == nil && len(p.Steps) > 0 {
			return p.Steps, nil
		}
		var steps []library.Step
		if err := json.Unmarshal(data, &steps); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ref, err)
		}
		return steps, nil
	}
	store, err := library.NewPlaylistStore(a.cfg.PlaylistDir)
	if err != nil {
		return nil, err
	}
	p, err := store.Load(ref)
	if err != nil {
		return nil, err
	}
	return p.Steps, nil
}

var playlistRunCmd = &cobra.Command{
	Use:   "run <name|file.json>",
	Short: "Transmit each step of a playlist in order",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		steps, err := readSteps(a, args[0])
		if err != nil {
			return err
		}
		e, err := a.engine()
		if err != nil {
			return err
		}
		res, err := e.RunPlaylist(cmd.Context(), steps)
		if res == nil {
			return err
		}
		if jsonOut {
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		}
		for _, s := range res.Steps {
			line := fmt.Sprintf("%2d. %-24s %s", s.Step, s.Signal, s.Status)
			if s.Status == transmit.StatusSuccess {
				line += fmt.Sprintf(" (%d repeats)", s.Repeats)
			} else if s.Message != "" {
				line += ": " + s.Message
			}
			fmt.Println(line)
		}
		fmt.Printf("Executed %d of %d steps\n", res.Executed, res.TotalSteps)
		return err
	}),
}

var playlistSaveCmd = &cobra.Command{
	Use:   "save <name> <steps.json>",
	Short: "Store a playlist from a JSON list of steps",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		var steps []library.Step
		if err := json.Unmarshal(data, &steps); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[1], err)
		}
		store, err := library.NewPlaylistStore(a.cfg.PlaylistDir)
		if err != nil {
			return err
		}
		p := &library.Playlist{Name: args[0], Created: time.Now(), Steps: steps}
		if err := store.Save(p); err != nil {
			return err
		}
		fmt.Printf("Saved playlist %q with %d steps\n", p.Name, len(steps))
		return nil
	}),
}

var playlistShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "List saved playlists or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		store, err := library.NewPlaylistStore(a.cfg.PlaylistDir)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			names, err := store.Names()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(names)
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		}
		p, err := store.Load(args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(p)
		}
		fmt.Printf("%s (created %s)\n", p.Name, p.Created.Format(time.RFC3339))
		for i, s := range p.Steps {
			fmt.Printf("%2d. %-24s repeats %d, delay %s", i+1, s.Signal, s.RepeatCount(), s.DelayDuration())
			if s.FrequencyMHz > 0 {
				fmt.Printf(", %.3f MHz", s.FrequencyMHz)
			}
			fmt.Println()
		}
		return nil
	}),
}

func init() {
	playlistCmd.AddCommand(playlistRunCmd, playlistSaveCmd, playlistShowCmd)
	rootCmd.AddCommand(playlistCmd)
}
