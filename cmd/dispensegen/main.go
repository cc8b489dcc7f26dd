package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/pilldrop/dispenserctl/internal/config"
	"github.com/pilldrop/dispenserctl/internal/schedule"
)

func main() {
	kind := flag.String("kind", "schedule", "template kind: schedule|device")
	output := flag.String("output", "", "output path for the template")
	validate := flag.Bool("validate", false, "validate an existing file instead of writing a template")
	input := flag.String("input", "", "path for validation (defaults per kind)")
	convert := flag.String("convert", "", "prescription lines file to convert into schedule JSON")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if *convert != "" {
		if err := convertPrescription(*convert, *output, *force); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *validate {
		path := *input
		if path == "" {
			switch *kind {
			case "schedule":
				path = "schedule.json"
			case "device":
				path = "device.toml"
			default:
				log.Fatalf("unknown kind: %s", *kind)
			}
		}

		switch *kind {
		case "schedule":
			if _, err := schedule.LoadFile(path); err != nil {
				log.Fatal(err)
			}
		case "device":
			if _, err := config.LoadDeviceConfig(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s file at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		switch *kind {
		case "schedule":
			target = "schedule.json"
		case "device":
			target = "device.toml"
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s template to %s", *kind, target)
}

func convertPrescription(input, output string, force bool) error {
	text, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	sched, _, err := schedule.ParseLines(string(text))
	if err != nil {
		return err
	}
	if err := sched.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sched.Records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if !force {
		if _, err := os.Stat(output); err == nil {
			log.Fatalf("output already exists: %s", output)
		}
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return err
	}
	log.Printf("Wrote schedule JSON to %s", output)
	return nil
}
