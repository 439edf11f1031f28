// Command ledgercheck compares every item's cached stock with the sum of its
// ledger entries and exits 1 when any item has drifted.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"tookio/internal/infra"
	"tookio/internal/repository"
	"tookio/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:  "ledgercheck",
		Usage: "verify current_stock against the stock ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "shop",
				Usage:    "shop id to check",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the full report as JSON",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("ledgercheck failed")
	}
}

func run(c *cli.Context) error {
	shopID, err := uuid.Parse(c.String("shop"))
	if err != nil {
		return cli.Exit("invalid --shop: "+err.Error(), 2)
	}

	db, err := infra.NewDatabase(c.String("database-url"), 2)
	if err != nil {
		return cli.Exit("connect: "+err.Error(), 2)
	}

	svc := service.NewReconcileService(repository.NewItemRepository(db), repository.NewLedgerRepository(db))
	report, err := svc.ReconcileShop(c.Context, shopID)
	if err != nil {
		return cli.Exit("reconcile: "+err.Error(), 2)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Printf("items checked: %d, drifted: %d\n", report.ItemsChecked, len(report.Drifts))
		for _, d := range report.Drifts {
			fmt.Printf("  %s %q current=%d ledger=%d diff=%d\n", d.ItemID, d.Name, d.CurrentStock, d.LedgerSum, d.Difference)
		}
	}

	if !report.Consistent {
		return cli.Exit("ledger drift detected", 1)
	}
	return nil
}
