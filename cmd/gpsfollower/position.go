package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Qetrox/esp32-gps-follower/pkg/client"
)

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Show the tracker's last known position",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// Reads are open endpoints, no secret needed.
		c := client.NewClient(server, "")

		staleness, err := c.Staleness(ctx)
		if err != nil {
			return err
		}

		fix, err := c.LatestFix(ctx)
		if errors.Is(err, client.ErrNoFix) {
			fmt.Printf("Status: %s\nNo position recorded yet.\n", staleness)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Status: %s\n", staleness)
		if fix.HasFix && fix.Lat != nil && fix.Lng != nil {
			fmt.Printf("Position: %.6f, %.6f\n", *fix.Lat, *fix.Lng)
			if fix.Alt != nil {
				fmt.Printf("Altitude: %.1f m\n", *fix.Alt)
			}
			if fix.Speed != nil {
				fmt.Printf("Speed: %.1f km/h\n", *fix.Speed)
			}
		} else {
			fmt.Println("Position: searching for satellites")
		}
		if fix.SatelliteCount != nil {
			fmt.Printf("Satellites: %d\n", *fix.SatelliteCount)
		}
		if fix.HorizontalDilution != nil {
			fmt.Printf("HDOP: %.1f\n", *fix.HorizontalDilution)
		}
		fmt.Printf("Last packet: %s\n", fix.LastPacketAt.Format(time.RFC3339))
		if fix.LastFixAt != nil {
			fmt.Printf("Last fix: %s\n", fix.LastFixAt.Format(time.RFC3339))
		}
		return nil
	},
}
