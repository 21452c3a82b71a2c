package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/library"
)

var listCaptures bool

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage saved signals",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved signals, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		if err := a.openStores(); err != nil {
			return err
		}
		var store library.Store = a.library
		if listCaptures {
			store = a.captures
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(list)
		}
		for _, s := range list {
			fmt.Printf("%-28s %9.3f MHz  %6s timings  %6.1f dBm  %s\n",
				s.Name, s.FrequencyMHz, humanize.Comma(int64(s.TimingCount)), s.RSSI, humanize.Time(s.CreatedAt))
		}
		if len(list) == 0 {
			fmt.Println("No signals saved")
		}
		return nil
	}),
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete <signal>",
	Short: "Remove a saved signal",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.openStores(); err != nil {
			return err
		}
		var store library.Store = a.library
		if listCaptures {
			store = a.captures
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %q\n", args[0])
		return nil
	}),
}

func init() {
	libraryCmd.PersistentFlags().BoolVar(&listCaptures, "captures", false, "use the raw captures directory")
	libraryCmd.AddCommand(libraryListCmd, libraryDeleteCmd)
	rootCmd.AddCommand(libraryCmd)
}
