package main

import (
	"fmt"
	"log"
	"os"

	dbcmd "github.com/dtnitsch/review-harvester/internal/db"
	"github.com/dtnitsch/review-harvester/internal/harvest"
	"github.com/dtnitsch/review-harvester/pkg/help"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "review-harvester",
		Usage: "Collect and analyze customer reviews for every branch of a company on Yandex Maps",
		Commands: []*cli.Command{
			{
				Name:      "harvest",
				Usage:     "Discover branches, collect their reviews and write the CSV and summary reports",
				ArgsUsage: "[company]",
				Flags:     harvest.Flags(),
				Action:    harvest.HarvestAction,
			},
			{
				Name:  "runs",
				Usage: "List stored runs",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Maximum number of runs to show",
					},
					&cli.StringFlag{
						Name:  "company",
						Usage: "Only show runs for companies matching this text",
					},
				}, harvest.CommonFlags()...),
				Action: dbcmd.RunsAction,
			},
			{
				Name:      "run",
				Usage:     "Show the branch outcomes of a run (default: latest)",
				ArgsUsage: "[run-id]",
				Flags:     harvest.CommonFlags(),
				Action:    dbcmd.RunAction,
			},
			{
				Name:      "summary",
				Usage:     "Recompute and print the summary of a run (default: latest)",
				ArgsUsage: "[run-id]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "text",
						Usage: "Output format: text, yaml, or short",
					},
				}, harvest.CommonFlags()...),
				Action: dbcmd.SummaryAction,
			},
			{
				Name:      "replay",
				Usage:     "Re-extract a run from its saved branch pages without a browser",
				ArgsUsage: "[run-id]",
				Flags:     dbcmd.ReplayFlags(),
				Action:    dbcmd.ReplayAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print example commands and output locations",
				Action: func(c *cli.Context) error {
					fmt.Print(help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
