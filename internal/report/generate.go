package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/crux-data/vitals.report/internal/db"
	"github.com/crux-data/vitals.report/internal/monitoring"
	"github.com/crux-data/vitals.report/internal/vitals"
)

// Generator renders reports to disk and records each run in the database.
type Generator struct {
	builder   *Builder
	db        *db.DB
	outputDir string
}

func NewGenerator(builder *Builder, database *db.DB, outputDir string) *Generator {
	return &Generator{
		builder:   builder,
		db:        database,
		outputDir: outputDir,
	}
}

// Generate builds, renders and records one entity's report. The HTML
// dashboard and PNG trend chart land in the output directory, named by
// entity and run ID.
func (g *Generator) Generate(entity string, variant vitals.Variant, sel vitals.RangeSelector, targetScore float64) (*db.ReportRun, error) {
	res, err := g.builder.Build(entity, variant, sel, targetScore)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	runID := uuid.New().String()
	htmlPath := filepath.Join(g.outputDir, fmt.Sprintf("%s_%s.html", entity, runID))
	pngPath := filepath.Join(g.outputDir, fmt.Sprintf("%s_%s.png", entity, runID))

	f, err := os.Create(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	if err := RenderHTML(res, f); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to render dashboard: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close report file: %w", err)
	}

	if err := RenderTrendPNG(res, pngPath); err != nil {
		return nil, err
	}

	run := &db.ReportRun{
		Entity:     entity,
		Variant:    string(variant),
		StartDate:  string(res.StartDate),
		EndDate:    string(res.EndDate),
		RunID:      runID,
		OutputPath: htmlPath,
	}
	if err := g.db.CreateReportRun(run); err != nil {
		return nil, err
	}

	monitoring.Logf("report %s for %s written to %s", runID, entity, htmlPath)
	return run, nil
}

// GenerateAll renders a report for every entity in the store, continuing
// past per-entity failures. The error wraps the first failure, if any.
func (g *Generator) GenerateAll(variant vitals.Variant, sel vitals.RangeSelector, targetScore float64) ([]*db.ReportRun, error) {
	var runs []*db.ReportRun
	var firstErr error
	for _, entity := range g.builder.memo.Store().Entities() {
		run, err := g.Generate(entity, variant, sel, targetScore)
		if err != nil {
			monitoring.Logf("failed to generate report for %s: %v", entity, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("report for %s: %w", entity, err)
			}
			continue
		}
		runs = append(runs, run)
	}
	return runs, firstErr
}
