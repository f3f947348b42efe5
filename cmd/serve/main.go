package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"driftwatch/adapters/source"
	"driftwatch/app"
	"driftwatch/domain/cohort"
	"driftwatch/internal/api"
	"driftwatch/internal/config"
	"driftwatch/internal/testkit"
	"driftwatch/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		input  = flag.String("input", "", "path to the wave history file (empty serves synthetic data)")
		format = flag.String("format", "csv", "input format: csv | xlsx")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	table := cohort.DefaultPolarityTable()

	service, err := app.NewPipelineService(cfg, table)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var persons []cohort.Person
	if *input == "" {
		persons = testkit.GenerateCohort(testkit.DefaultOptions())
	} else {
		schema := source.DefaultSchema(table.FeatureNames())
		var src ports.WaveSource
		if *format == "xlsx" {
			src = source.NewExcelReader(*input, schema)
		} else {
			src = source.NewCSVReader(*input, schema)
		}
		persons, err = src.Load(ctx)
		if err != nil {
			return err
		}
	}

	result, err := service.Run(ctx, persons)
	if err != nil {
		return err
	}

	handler := api.NewHandler(result)
	addr := ":" + cfg.Server.Port
	log.Printf("[serve] run %s ready, listening on %s", result.RunID, addr)
	return http.ListenAndServe(addr, handler.Routes())
}
