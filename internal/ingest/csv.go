// Package ingest adapts tabular sheet exports into engine samples. The
// engine's boundary contract is simply "produce a []vitals.Sample from the
// tabular source"; everything about column layout lives here.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crux-data/vitals.report/internal/monitoring"
	"github.com/crux-data/vitals.report/internal/vitals"
)

// Layout describes the fixed-width column blocks of a sheet export: the
// first column is the date, followed by one block per entity with one
// column per metric, in this order.
type Layout struct {
	Metrics []vitals.Metric
}

// DefaultLayout is the standard export: reported composite score first,
// then the five sub-metrics.
func DefaultLayout() Layout {
	return Layout{Metrics: append([]vitals.Metric{vitals.MetricScore}, vitals.SubMetrics...)}
}

// Columns returns the expected column count for the given entity list.
func (l Layout) Columns(entities int) int {
	return 1 + entities*len(l.Metrics)
}

// ReadSamples parses a sheet export (header row, then one row per date)
// into samples for the given entities and variant.
//
// Cells that are blank, non-numeric, or exactly 0 become absent samples.
// The upstream audit pipeline reports failed runs as 0, so a literal 0 is
// indistinguishable from "no data" in the sheets. That convention silently
// discards a true zero measurement — a CLS of exactly 0.0 is valid and
// good — but the export gives no way to tell the cases apart, so the rule
// is applied here at the boundary and nowhere else.
func ReadSamples(r io.Reader, entities []string, variant vitals.Variant, layout Layout) ([]vitals.Sample, error) {
	if len(entities) == 0 {
		return nil, fmt.Errorf("no entities given")
	}
	if len(layout.Metrics) == 0 {
		return nil, fmt.Errorf("layout has no metrics")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row widths are validated per row below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if len(header) < layout.Columns(len(entities)) {
		return nil, fmt.Errorf("header has %d columns, need %d for %d entities",
			len(header), layout.Columns(len(entities)), len(entities))
	}

	var samples []vitals.Sample
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row+1, err)
		}
		row++

		date, err := vitals.ParseDate(strings.TrimSpace(record[0]))
		if err != nil {
			// A bad date invalidates the row but not the whole load.
			monitoring.Logf("ingest: skipping row %d: %v", row, err)
			continue
		}

		for ei, entity := range entities {
			for mi, metric := range layout.Metrics {
				col := 1 + ei*len(layout.Metrics) + mi
				var cell string
				if col < len(record) {
					cell = strings.TrimSpace(record[col])
				}
				samples = append(samples, vitals.Sample{
					Entity:  entity,
					Date:    date,
					Variant: variant,
					Metric:  metric,
					Value:   parseCell(cell),
				})
			}
		}
	}
	return samples, nil
}

// parseCell maps a sheet cell to a sample value, applying the absent rule.
func parseCell(cell string) *float64 {
	if cell == "" || cell == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v == 0 {
		return nil
	}
	return vitals.Float(v)
}
