// Command vitals-report ingests Lighthouse sheet exports, serves the
// analytics API, and renders per-entity performance reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/crux-data/vitals.report/internal/api"
	"github.com/crux-data/vitals.report/internal/config"
	"github.com/crux-data/vitals.report/internal/db"
	"github.com/crux-data/vitals.report/internal/ingest"
	"github.com/crux-data/vitals.report/internal/report"
	"github.com/crux-data/vitals.report/internal/vitals"
)

var (
	dbPath     = flag.String("db", "vitals.db", "Path to SQLite database file")
	configPath = flag.String("config", "", "Path to JSON config file (built-in defaults when empty)")
	listen     = flag.String("listen", ":8080", "Listen address for serve")
	variant    = flag.String("variant", "", "Form factor variant (config default when empty)")
	rangeName  = flag.String("range", "all", "Date range for report: week, month, year, all")
	target     = flag.Float64("target", 90, "Target composite score for improvement plans")
	outputDir  = flag.String("output", "reports", "Output directory for rendered reports")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch flag.Arg(0) {
	case "serve":
		runServe(cfg)

	case "ingest":
		if flag.NArg() < 2 {
			log.Fatal("Usage: vitals-report ingest <csv-file>")
		}
		runIngest(cfg, flag.Arg(1))

	case "report":
		runReport(cfg, flag.Args()[1:])

	case "migrate":
		db.RunMigrateCommand(flag.Args()[1:], *dbPath)

	case "help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", flag.Arg(0))
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	return config.Load(*configPath)
}

func chosenVariant(cfg *config.Config) vitals.Variant {
	if *variant != "" {
		return vitals.Variant(*variant)
	}
	return cfg.GetDefaultVariant()
}

// loadStore opens the database and materializes the in-memory sample store.
func loadStore() (*db.DB, *vitals.Store, error) {
	database, err := db.New(*dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	samples, err := database.LoadSamples()
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, vitals.NewStore(samples), nil
}

func runServe(cfg *config.Config) {
	database, store, err := loadStore()
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}
	defer database.Close()

	if len(store.Calendar()) == 0 {
		log.Print("no samples in database; run 'vitals-report ingest' first")
	}

	server := api.NewServer(store, cfg)
	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(server.ServeMux()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown failed: %v", err)
	}
}

func runIngest(cfg *config.Config, csvPath string) {
	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer f.Close()

	// Column blocks in the export follow entity order, so the order must be
	// stable across runs: groups sorted by name, members in config order.
	groups := make([]string, 0, len(cfg.Groups))
	for group := range cfg.Groups {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	var entities []string
	var records []db.Entity
	for _, group := range groups {
		for _, name := range cfg.Groups[group] {
			entities = append(entities, name)
			records = append(records, db.Entity{Name: name, Group: group})
		}
	}
	if len(entities) == 0 {
		log.Fatal("Config defines no entity groups; nothing to ingest")
	}

	samples, err := ingest.ReadSamples(f, entities, chosenVariant(cfg), ingest.DefaultLayout())
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.UpsertEntities(records); err != nil {
		log.Fatalf("Failed to record entities: %v", err)
	}
	if err := database.InsertSamples(samples); err != nil {
		log.Fatalf("Failed to store samples: %v", err)
	}
	log.Printf("Ingested %d samples for %d entities from %s", len(samples), len(entities), csvPath)
}

func runReport(cfg *config.Config, entities []string) {
	database, store, err := loadStore()
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}
	defer database.Close()

	if len(store.Calendar()) == 0 {
		log.Fatal("No samples in database; run 'vitals-report ingest' first")
	}

	sel := vitals.All(store.LastDate())
	if *rangeName != "all" {
		unit, err := vitals.ParseRangeUnit(*rangeName)
		if err != nil {
			log.Fatalf("Invalid range: %v", err)
		}
		sel = vitals.Trailing(unit, store.LastDate())
	}

	generator := report.NewGenerator(report.NewBuilder(store, cfg), database, *outputDir)

	if len(entities) == 0 {
		runs, err := generator.GenerateAll(chosenVariant(cfg), sel, *target)
		if err != nil {
			log.Fatalf("Report generation failed: %v", err)
		}
		log.Printf("Generated %d reports in %s", len(runs), *outputDir)
		return
	}

	for _, entity := range entities {
		run, err := generator.Generate(entity, chosenVariant(cfg), sel, *target)
		if err != nil {
			log.Fatalf("Report for %s failed: %v", entity, err)
		}
		log.Printf("Report for %s written to %s", entity, run.OutputPath)
	}
}

func printUsage() {
	fmt.Println("Usage: vitals-report [options] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve             Serve the analytics API")
	fmt.Println("  ingest <csv>      Load a sheet export into the database")
	fmt.Println("  report [entity]   Render reports (all entities when omitted)")
	fmt.Println("  migrate <action>  Manage the database schema")
	fmt.Println("  help              Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
