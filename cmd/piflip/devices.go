package main

import (
	"errors"
	"fmt"

	"github.com/google/gousb"
	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/config"
	"github.com/herlein/piflip/pkg/yardstick"
)

var devicesVerbose bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached YardStick One devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		usb := gousb.NewContext()
		defer usb.Close()

		devices, err := yardstick.FindAllDevices(usb)
		if err != nil {
			return err
		}
		defer func() {
			for _, d := range devices {
				d.Close()
			}
		}()

		if len(devices) == 0 {
			fmt.Println("No YardStick One devices found")
			return nil
		}
		fmt.Printf("Found %d YardStick One device(s):\n\n", len(devices))
		for i, d := range devices {
			if !devicesVerbose {
				fmt.Printf("  #%d  %s  %d:%d\n", i, d.Serial, d.Bus, d.Address)
				continue
			}
			fmt.Printf("Device #%d:\n", i)
			fmt.Printf("  Serial:       %s\n", d.Serial)
			fmt.Printf("  Bus:Address:  %d:%d\n", d.Bus, d.Address)
			fmt.Printf("  Manufacturer: %s\n", d.Manufacturer)
			fmt.Printf("  Product:      %s\n", d.Product)
			if fw, err := d.BuildType(); err == nil {
				fmt.Printf("  Firmware:     %s\n", fw)
			} else {
				fmt.Printf("  Firmware:     (error: %v)\n", err)
			}
			fmt.Println()
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "USB-reset every YardStick One to recover from a stuck session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		usb := gousb.NewContext()
		defer usb.Close()
		n, err := yardstick.ResetAll(usb)
		fmt.Printf("Reset %d device(s)\n", n)
		return err
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the radio's tuned frequency, state and RSSI",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		if a.cfg.Driver != config.DriverYardStick {
			return errors.New("status needs the yardstick driver")
		}
		if _, err := a.openRadio(); err != nil {
			return err
		}
		st, err := a.ys1.Status()
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(st)
		}
		fmt.Printf("Frequency: %.4f MHz\n", st.FrequencyMHz)
		fmt.Printf("State:     %s\n", yardstick.MarcStateName(st.MarcState))
		fmt.Printf("RSSI:      %.1f dBm\n", st.RSSI)
		fmt.Printf("GDO0:      %d\n", st.PktStatus&0x01)
		fmt.Printf("Firmware:  %s\n", st.Firmware)
		return nil
	}),
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesVerbose, "verbose", "v", false, "show firmware details")
	rootCmd.AddCommand(devicesCmd, resetCmd, statusCmd)
}
