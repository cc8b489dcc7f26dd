package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pilldrop/dispenserctl/internal/config"
	"github.com/pilldrop/dispenserctl/internal/logging"
	"github.com/pilldrop/dispenserctl/internal/observability"
	"github.com/pilldrop/dispenserctl/internal/protocol"
	"github.com/pilldrop/dispenserctl/internal/schedule"
	"github.com/pilldrop/dispenserctl/internal/transfer"
	"github.com/pilldrop/dispenserctl/internal/transport"
)

func main() {
	logging.ConfigureRuntime()
	observability.InitLogger("dispenserctl")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "discover":
		err = runDiscover(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "send":
		err = runSend(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dispenserctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: dispenserctl <command> [flags]

commands:
  discover   list reachable dispenser devices
  encode     encode a schedule into its wire payload
  send       transfer a schedule to a dispenser`)
}

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	deviceConfig := fs.String("config", "", "device config TOML path")
	fs.Parse(args)

	devCfg, err := config.LoadDeviceConfig(*deviceConfig)
	if err != nil {
		return err
	}

	devices, err := transport.Discover(context.Background(), devCfg.DiscoveryOptions())
	if err != nil {
		return err
	}
	for _, name := range transport.SortedNames(devices) {
		fmt.Printf("%-40s %s\n", name, devices[name])
	}
	return nil
}

func loadSchedule(schedulePath, rxPath string) (schedule.Schedule, error) {
	switch {
	case schedulePath != "" && rxPath != "":
		return schedule.Schedule{}, fmt.Errorf("give either -schedule or -rx, not both")
	case schedulePath != "":
		return schedule.LoadFile(schedulePath)
	case rxPath != "":
		text, err := os.ReadFile(rxPath)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("read prescription file: %w", err)
		}
		sched, _, err := schedule.ParseLines(string(text))
		if err != nil {
			return schedule.Schedule{}, err
		}
		if err := sched.Validate(); err != nil {
			return schedule.Schedule{}, err
		}
		return sched, nil
	default:
		return schedule.Schedule{}, fmt.Errorf("a schedule is required (-schedule file.json or -rx lines.txt)")
	}
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	schedulePath := fs.String("schedule", "", "schedule JSON path")
	rxPath := fs.String("rx", "", "prescription lines path")
	outPath := fs.String("out", "", "payload output path (default stdout)")
	fs.Parse(args)

	sched, err := loadSchedule(*schedulePath, *rxPath)
	if err != nil {
		return err
	}
	payload, err := protocol.Encode(sched)
	if err != nil {
		return err
	}
	if *outPath == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	return os.WriteFile(*outPath, payload, 0o600)
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	schedulePath := fs.String("schedule", "", "schedule JSON path")
	rxPath := fs.String("rx", "", "prescription lines path")
	device := fs.String("device", "", "device name from the address book, or a raw address (serial:/dev/ttyUSB0, ble:AA:.., sim:dispenser)")
	operatorPath := fs.String("devices", defaultOperatorConfigPath, "operator address-book TOML path")
	deviceConfig := fs.String("config", "", "device config TOML path")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics on this address for the duration of the transfer")
	fs.Parse(args)

	if *metricsAddr != "" {
		stop := observability.ServeMetrics(*metricsAddr)
		defer stop()
	}

	sched, err := loadSchedule(*schedulePath, *rxPath)
	if err != nil {
		return err
	}
	payload, err := protocol.Encode(sched)
	if err != nil {
		return err
	}

	opCfg, err := loadOperatorConfig(*operatorPath)
	if err != nil {
		return err
	}
	devCfg, err := config.LoadDeviceConfig(firstNonEmpty(*deviceConfig, opCfg.DeviceConfigPath))
	if err != nil {
		return err
	}
	address, err := opCfg.resolveAddress(*device)
	if err != nil {
		return err
	}
	tr, err := transport.Dial(address, devCfg.TransportConfig())
	if err != nil {
		return err
	}

	summary := sched.Summary()
	fmt.Printf("sending %d medications (%d tubes, %d doses, %d payload bytes) to %s\n",
		summary.Medications, summary.Tubes, summary.Doses, len(payload), address)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := transfer.NewDispatcher()
	observer := transfer.NewChannelObserver(64)
	if _, err := dispatcher.Submit(ctx, tr, payload, observer); err != nil {
		return err
	}

	for ev := range observer.Events() {
		switch ev.Kind {
		case transfer.EventProgress:
			fmt.Printf("chunk %d/%d (%d bytes sent)\n",
				ev.Progress.ChunkIndex, ev.Progress.ChunkCount, ev.Progress.BytesSent)
		case transfer.EventComplete:
			fmt.Println("transfer complete")
		case transfer.EventFailed:
			fmt.Printf("transfer failed: %v\n", ev.Err)
		}
	}
	return dispatcher.Wait()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
