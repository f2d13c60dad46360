package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/crux-data/vitals.report/internal/vitals"
)

// RenderHTML writes the dashboard for a Result: a line chart of the composite
// score with every sub-metric's sub-score, and a bar chart ranking the
// sub-metrics by weighted potential gain.
func RenderHTML(res *Result, w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s performance report", res.Entity)
	page.AddCharts(scoreLineChart(res), correlationBarChart(res))
	return page.Render(w)
}

func scoreLineChart(res *Result) *charts.Line {
	dates := make([]string, len(res.Score))
	scoreData := make([]opts.LineData, len(res.Score))
	for i, p := range res.Score {
		dates[i] = string(p.Date)
		scoreData[i] = opts.LineData{Value: p.Value}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s score (%s)", res.Entity, res.Variant),
			Subtitle: fmt.Sprintf("%s to %s", res.StartDate, res.EndDate),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	line.SetXAxis(dates).AddSeries("score", scoreData,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)

	for _, m := range vitals.SubMetrics {
		series := res.SubScores[m]
		data := make([]opts.LineData, len(series))
		for i, p := range series {
			data[i] = opts.LineData{Value: p.Value}
		}
		line.AddSeries(string(m), data)
	}
	return line
}

func correlationBarChart(res *Result) *charts.Bar {
	var x []string
	var gains []opts.BarData
	for _, c := range res.Correlations {
		if c == nil {
			continue
		}
		x = append(x, string(c.Metric))
		gains = append(gains, opts.BarData{Value: c.WeightedPotentialGain})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Improvement potential by metric",
			Subtitle: "composite points available from lifting each sub-score to 100",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("potential gain", gains,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}
