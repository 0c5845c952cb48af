package analytics

import (
	"errors"
	"math"
	"time"

	"fluxo/internal/core"
)

// ErrInsufficientData is returned when the history window holds no monthly bucket.
var ErrInsufficientData = errors.New("insufficient data for projection")

// lowSafetyMarginPct flags projections whose balance is a thin share of inflow.
const lowSafetyMarginPct = 10

// Line is value = Slope*index + Intercept over a zero-based bucket index.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// FitLine fits an ordinary least-squares line over points indexed 0..n-1.
// Fewer than two points yield a flat line through their mean (0 for none).
func FitLine(points []float64) Line {
	n := float64(len(points))
	if len(points) < 2 {
		return Line{Intercept: mean(points)}
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range points {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return Line{Intercept: sumY / n}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return Line{Slope: slope, Intercept: (sumY - slope*sumX) / n}
}

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month             Month   `json:"month"`
	Inflow            float64 `json:"inflow"`
	Outflow           float64 `json:"outflow"`
	Balance           float64 `json:"balance"`
	CumulativeBalance float64 `json:"cumulative_balance"`
}

// Projection is the fitted history plus the projected months.
type Projection struct {
	History     []MonthTotals   `json:"history"`
	InflowLine  Line            `json:"inflow_line"`
	OutflowLine Line            `json:"outflow_line"`
	Points      []ForecastPoint `json:"points"`
}

// Project fits a line per kind over the monthly totals of the trailing
// historyMonths window and extends it horizonMonths past the last bucket.
// Projected flows are floored at zero; the balance of each point is
// inflow minus outflow.
func Project(entries []core.Entry, historyMonths, horizonMonths int, now time.Time) (Projection, error) {
	b := Aggregate(InWindow(entries, WindowStart(now, historyMonths)))
	if b.Len() == 0 {
		return Projection{}, ErrInsufficientData
	}

	p := Projection{
		History:     b.Rows(),
		InflowLine:  FitLine(b.Floats(core.KindInflow)),
		OutflowLine: FitLine(b.Floats(core.KindOutflow)),
		Points:      make([]ForecastPoint, 0, horizonMonths),
	}

	last := b.Months[b.Len()-1]
	var cumulative float64
	for i := 1; i <= horizonMonths; i++ {
		x := float64(b.Len() + i - 1)
		in := math.Max(0, p.InflowLine.At(x))
		out := math.Max(0, p.OutflowLine.At(x))
		cumulative += in - out
		p.Points = append(p.Points, ForecastPoint{
			Month:             last.AddMonths(i),
			Inflow:            in,
			Outflow:           out,
			Balance:           in - out,
			CumulativeBalance: cumulative,
		})
	}
	return p, nil
}

// Direction describes the sign of a fitted slope.
type Direction string

const (
	DirectionGrowing   Direction = "growing"
	DirectionDeclining Direction = "declining"
	DirectionStable    Direction = "stable"
)

func directionOf(slope float64) Direction {
	switch {
	case slope > 0:
		return DirectionGrowing
	case slope < 0:
		return DirectionDeclining
	default:
		return DirectionStable
	}
}

// Outlook classifies the total projected balance.
type Outlook string

const (
	OutlookPositive Outlook = "positive"
	OutlookNegative Outlook = "negative"
	OutlookNeutral  Outlook = "neutral"
)

// ForecastSummary aggregates a projection for reports.
type ForecastSummary struct {
	Inflow           float64   `json:"inflow"`
	Outflow          float64   `json:"outflow"`
	Balance          float64   `json:"balance"`
	ROIPct           float64   `json:"roi_pct"`
	SafetyMarginPct  float64   `json:"safety_margin_pct"`
	LowSafetyMargin  bool      `json:"low_safety_margin"`
	InflowGrowthPct  float64   `json:"inflow_growth_pct"`
	OutflowGrowthPct float64   `json:"outflow_growth_pct"`
	InflowDirection  Direction `json:"inflow_direction"`
	OutflowDirection Direction `json:"outflow_direction"`
	Outlook          Outlook   `json:"outlook"`
}

// Summarize totals the projected points and derives ROI (balance over outflow),
// the safety margin (balance over inflow) and the monthly growth of each kind
// (slope over the historical mean).
func Summarize(p Projection) ForecastSummary {
	var s ForecastSummary
	for _, pt := range p.Points {
		s.Inflow += pt.Inflow
		s.Outflow += pt.Outflow
	}
	s.Balance = s.Inflow - s.Outflow

	if s.Outflow > 0 {
		s.ROIPct = s.Balance / s.Outflow * 100
	}
	if s.Inflow > 0 {
		s.SafetyMarginPct = s.Balance / s.Inflow * 100
	}
	s.LowSafetyMargin = s.SafetyMarginPct < lowSafetyMarginPct

	inflows := make([]float64, len(p.History))
	outflows := make([]float64, len(p.History))
	for i, row := range p.History {
		inflows[i] = row.Inflow.InexactFloat64()
		outflows[i] = row.Outflow.InexactFloat64()
	}
	s.InflowGrowthPct = growthPct(p.InflowLine.Slope, mean(inflows))
	s.OutflowGrowthPct = growthPct(p.OutflowLine.Slope, mean(outflows))
	s.InflowDirection = directionOf(p.InflowLine.Slope)
	s.OutflowDirection = directionOf(p.OutflowLine.Slope)

	switch {
	case s.Balance > 0:
		s.Outlook = OutlookPositive
	case s.Balance < 0:
		s.Outlook = OutlookNegative
	default:
		s.Outlook = OutlookNeutral
	}
	return s
}

func growthPct(slope, avg float64) float64 {
	if avg == 0 {
		return 0
	}
	return slope / avg * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
