package transport

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"tinygo.org/x/bluetooth"
)

// SimAddress is the always-available fallback entry.
const SimAddress = "sim:dispenser"

// DefaultScanWindow bounds one BLE discovery pass.
const DefaultScanWindow = 10 * time.Second

// DiscoveryOptions tunes one discovery pass.
type DiscoveryOptions struct {
	SerialPorts bool
	BLE         bool
	ScanWindow  time.Duration
}

func DefaultDiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{
		SerialPorts: true,
		BLE:         true,
		ScanWindow:  DefaultScanWindow,
	}
}

// Discover returns a display-name to connection-address mapping for
// every reachable dispenser candidate. Finding nothing is not an
// error: the simulation entry is always present so the caller can
// proceed without hardware. Only a broken discovery subsystem (not an
// empty radio environment) produces an error.
func Discover(ctx context.Context, opts DiscoveryOptions) (map[string]string, error) {
	devices := map[string]string{
		"Simulation Device": SimAddress,
	}

	if opts.SerialPorts {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("transport: enumerate serial ports: %w", err)
		}
		for _, port := range ports {
			devices[fmt.Sprintf("Serial (%s)", port)] = string(KindSerial) + ":" + port
		}
	}

	if opts.BLE {
		found, err := scanBLE(ctx, opts.ScanWindow)
		if err != nil {
			// A failed radio scan degrades to "no wireless devices"
			// rather than failing the whole pass.
			log.Warn().Err(err).Msg("ble scan failed, continuing without wireless devices")
		}
		for name, addr := range found {
			devices[name] = addr
		}
	}

	return devices, nil
}

func scanBLE(ctx context.Context, window time.Duration) (map[string]string, error) {
	if window <= 0 {
		window = DefaultScanWindow
	}
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	var mu sync.Mutex
	found := make(map[string]string)

	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			if name == "" {
				name = "Unknown Device"
			}
			mu.Lock()
			found[fmt.Sprintf("%s (%s)", name, result.Address.String())] =
				string(KindBLE) + ":" + result.Address.String()
			mu.Unlock()
		})
	}()

	select {
	case <-scanCtx.Done():
		adapter.StopScan()
		<-errCh
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]string, len(found))
	for k, v := range found {
		out[k] = v
	}
	return out, nil
}

// SortedNames returns the discovery map's display names in stable
// order for listing.
func SortedNames(devices map[string]string) []string {
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
