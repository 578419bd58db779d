package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// NmcliController drives the platform WiFi through NetworkManager's nmcli.
// It is the shipped Controller for Linux SBC deployments.
type NmcliController struct {
	// Iface restricts operations to one wireless interface, e.g. "wlan0".
	// Empty lets NetworkManager pick.
	Iface string
}

func (c *NmcliController) Connect(ctx context.Context, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	if c.Iface != "" {
		args = append(args, "ifname", c.Iface)
	}

	out, err := exec.CommandContext(ctx, "nmcli", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("nmcli connect %s: %w: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (c *NmcliController) Up(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "nmcli", "-t", "-f", "DEVICE,TYPE,STATE", "device", "status").Output()
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) < 3 || fields[1] != "wifi" {
			continue
		}
		if c.Iface != "" && fields[0] != c.Iface {
			continue
		}
		if fields[2] == "connected" {
			return true
		}
	}
	return false
}
