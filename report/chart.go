package report

import (
	"bytes"
	"strings"

	"ffxiv_damage/analysis"
	"ffxiv_damage/ffxiv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartHeight          = 600
	chartMinWidth        = 1024
	chartPixelsPerSecond = 3
	chartStemWidth       = 4
	chartPadSeconds      = 5
)

var (
	colorMagical  = drawing.ColorFromHex("636EFA")
	colorPhysical = drawing.ColorFromHex("FFA15A")
	colorUnknown  = drawing.ColorFromHex("AAAAAA")

	// tank bars when colored by target
	targetPalette = []drawing.Color{
		drawing.ColorFromHex("EF553B"),
		drawing.ColorFromHex("00CC96"),
		drawing.ColorFromHex("AB63FA"),
		drawing.ColorFromHex("19D3F3"),
	}
)

func damageTypeColor(damageType string) drawing.Color {
	switch damageType {
	case ffxiv.DamageTypeMagical:
		return colorMagical
	case ffxiv.DamageTypePhysical:
		return colorPhysical
	default:
		return colorUnknown
	}
}

// axisLabel trims the milliseconds off a formatted time.
func axisLabel(formatted string) string {
	if idx := strings.IndexByte(formatted, '.'); idx >= 0 {
		return formatted[:idx]
	}
	return formatted
}

// stem is one hit on the timeline: a vertical line from zero up to the amount at its elapsed time.
type stem struct {
	elapsed float64
	amount  float64
	color   drawing.Color
}

func PartyChart(title string, rows []analysis.ProfileRow) (string, error) {
	stems := make([]stem, 0, len(rows))
	for _, row := range rows {
		stems = append(stems, stem{row.ElapsedSeconds, float64(row.UnmitigatedAmount), damageTypeColor(row.DamageType)})
	}
	return renderTimeline(title, stems)
}

// TankChart draws one stem per hit, colored by damage type or by the tank that took it.
func TankChart(title string, hits []analysis.TankHit, byTarget bool) (string, error) {
	targets := make(map[int]drawing.Color, 2)

	stems := make([]stem, 0, len(hits))
	for _, hit := range hits {
		color := damageTypeColor(hit.DamageType)
		if byTarget {
			c, ok := targets[hit.TargetID]
			if !ok {
				c = targetPalette[len(targets)%len(targetPalette)]
				targets[hit.TargetID] = c
			}
			color = c
		}

		stems = append(stems, stem{hit.ElapsedSeconds, float64(hit.UnmitigatedAmount), color})
	}
	return renderTimeline(title, stems)
}

// timelineRange is the x axis span in seconds, padded so the first and last hits stay off the edges.
func timelineRange(stems []stem) (min, max float64) {
	min, max = stems[0].elapsed, stems[0].elapsed
	for _, s := range stems[1:] {
		if s.elapsed < min {
			min = s.elapsed
		}
		if s.elapsed > max {
			max = s.elapsed
		}
	}

	min -= chartPadSeconds
	if min < 0 {
		min = 0
	}
	return min, max + chartPadSeconds
}

// renderTimeline returns the chart as an SVG document, or nothing when there are no hits.
func renderTimeline(title string, stems []stem) (string, error) {
	if len(stems) == 0 {
		return "", nil
	}

	var maxAmount float64
	series := make([]chart.Series, 0, len(stems))
	for _, s := range stems {
		if s.amount > maxAmount {
			maxAmount = s.amount
		}
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{s.elapsed, s.elapsed},
			YValues: []float64{0, s.amount},
			Style: chart.Style{
				StrokeColor: s.color,
				StrokeWidth: chartStemWidth,
			},
		})
	}
	if maxAmount <= 0 {
		maxAmount = 1
	}

	minX, maxX := timelineRange(stems)

	width := int((maxX-minX)*chartPixelsPerSecond) + 150
	if width < chartMinWidth {
		width = chartMinWidth
	}

	c := chart.Chart{
		Title:  title,
		Width:  width,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16},
		},
		XAxis: chart.XAxis{
			Name:  "Time",
			Range: &chart.ContinuousRange{Min: minX, Max: maxX},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return axisLabel(analysis.FormatElapsed(f))
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxAmount * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return humanize.Comma(int64(f))
				}
				return ""
			},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		return "", errors.WithStack(err)
	}
	return buf.String(), nil
}
