package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Qetrox/esp32-gps-follower/pkg/client"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Manage the server's WiFi credential list",
}

var wifiListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored WiFi networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, c, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		networks, err := c.FetchNetworks(ctx)
		if err != nil {
			return err
		}
		printNetworks(networks)
		return nil
	},
}

var wifiAddCmd = &cobra.Command{
	Use:   "add SSID PASSWORD",
	Short: "Add or update a WiFi network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, c, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		networks, err := c.UpsertNetwork(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Network stored: %s\n", args[0])
		printNetworks(networks)
		return nil
	},
}

var wifiRemoveCmd = &cobra.Command{
	Use:   "remove SSID",
	Short: "Remove a WiFi network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, c, err := remoteClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		networks, err := c.RemoveNetwork(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Network removed: %s\n", args[0])
		printNetworks(networks)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{wifiListCmd, wifiAddCmd, wifiRemoveCmd, positionCmd} {
		cmd.Flags().String("server", "http://localhost:8080", "Server base URL")
		cmd.Flags().String("secret", "", "Shared secret")
	}
	wifiCmd.AddCommand(wifiListCmd)
	wifiCmd.AddCommand(wifiAddCmd)
	wifiCmd.AddCommand(wifiRemoveCmd)
}

func remoteClient(cmd *cobra.Command) (context.Context, context.CancelFunc, *client.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		return nil, nil, nil, fmt.Errorf("--secret is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	return ctx, cancel, client.NewClient(server, secret), nil
}

func printNetworks(networks []types.WifiNetwork) {
	if len(networks) == 0 {
		fmt.Println("No networks stored.")
		return
	}
	for _, n := range networks {
		fmt.Printf("  %s\n", n.SSID)
	}
}
