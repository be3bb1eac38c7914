package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
)

type config struct {
	Api      string        `long:"api" description:"Base url of the wifid admin api" default:"http://127.0.0.1:9000"`
	Timeout  time.Duration `long:"timeout" description:"Timeout of one api request" default:"30s"`
	Status   bool          `long:"status" description:"Print the status and exit"`
	Scan     bool          `long:"scan" description:"Print a scan report and exit"`
	NoEvents bool          `long:"no-events" description:"Do not subscribe to the event stream"`
}

func main() {
	cfg := config{}

	if _, err := flags.Parse(&cfg); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	c := newClient(cfg.Api, cfg.Timeout)

	if cfg.Status || cfg.Scan {
		if err := printReport(c, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var err error
	m := newModel(c, nil)

	if !cfg.NoEvents {
		m.events, err = c.events(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running wifictl: %v\n", err)
		os.Exit(1)
	}
}

func printReport(c *client, cfg config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if cfg.Status {
		s, err := c.status(ctx)
		if err != nil {
			return err
		}

		for _, line := range s.Lines {
			fmt.Println(line)
		}
	}

	if cfg.Scan {
		report, err := c.scan(ctx)
		if err != nil {
			return err
		}

		for _, line := range report.Lines {
			fmt.Println(line)
		}
	}

	return nil
}
