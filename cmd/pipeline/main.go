package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"driftwatch/adapters/postgres"
	"driftwatch/adapters/source"
	"driftwatch/app"
	"driftwatch/domain/cohort"
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
		input    = flag.String("input", "", "path to the wave history file (empty runs on synthetic data)")
		format   = flag.String("format", "csv", "input format: csv | xlsx | wide")
		waves    = flag.Int("waves", 10, "wave count for wide-format reshaping")
		doExport = flag.Bool("export", false, "persist the batch to Postgres (DATABASE_URL)")
	)
	flag.Parse()

	// .env is optional; the pipeline runs on defaults
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
	persons, err := loadPersons(ctx, *input, *format, *waves, table)
	if err != nil {
		return err
	}
	log.Printf("[pipeline] loaded %d persons", len(persons))

	result, err := service.Run(ctx, persons)
	if err != nil {
		return err
	}

	if *doExport {
		if !cfg.Database.Enabled {
			return fmt.Errorf("-export requires DATABASE_URL")
		}
		if err := exportBatch(ctx, cfg.Database.URL, result); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func loadPersons(ctx context.Context, input, format string, waves int, table cohort.PolarityTable) ([]cohort.Person, error) {
	if input == "" {
		log.Printf("[pipeline] no input file, generating a synthetic cohort")
		return testkit.GenerateCohort(testkit.DefaultOptions()), nil
	}

	features := table.FeatureNames()
	schema := source.DefaultSchema(features)
	var src ports.WaveSource
	switch format {
	case "csv":
		src = source.NewCSVReader(input, schema)
	case "xlsx":
		src = source.NewExcelReader(input, schema)
	case "wide":
		src = source.NewWideReader(input, schema, waves, features, 0)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
	return src.Load(ctx)
}

func exportBatch(ctx context.Context, databaseURL string, result *app.BatchResult) error {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := postgres.NewAssessmentRepository(ctx, db)
	if err != nil {
		return err
	}
	return store.SaveBatch(ctx, ports.BatchExport{
		RunID:        result.RunID,
		ModelVersion: result.Model.Version,
		Metrics:      result.Model.Metrics,
		Assessments:  result.Assessments,
	})
}
