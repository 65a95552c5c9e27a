package activity

import (
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/timeutil"
)

// Heatmap geometry: 53 week columns of 7 days, starting on a Monday.
const (
	HeatmapDays     = 371
	HeatmapLookback = 364
	// UnitsPerLevel is the activity count represented by one intensity step.
	UnitsPerLevel = 20
	// MaxLevel is the highest intensity step.
	MaxLevel = 3
)

// Cell is one day of the contribution heatmap.
type Cell struct {
	Day    DayKey
	Count  int
	Level  int
	Future bool
}

// MonthLabel marks the week column where a new month starts.
type MonthLabel struct {
	Week  int
	Month time.Month
	Label string
}

// Heatmap is a year of daily activity laid out in Monday-first weeks.
type Heatmap struct {
	Cells  []Cell
	Months []MonthLabel
}

// Weeks returns the cells grouped into columns of seven days.
func (h Heatmap) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, (len(h.Cells)+6)/7)
	for i := 0; i < len(h.Cells); i += 7 {
		end := i + 7
		if end > len(h.Cells) {
			end = len(h.Cells)
		}
		weeks = append(weeks, h.Cells[i:end])
	}
	return weeks
}

// LevelFor maps an activity count to an intensity level in [0, MaxLevel].
func LevelFor(count int) int {
	if count <= 0 {
		return 0
	}
	level := (count + UnitsPerLevel - 1) / UnitsPerLevel
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// BuildHeatmap lays out HeatmapDays cells starting on the Monday on or before
// today minus HeatmapLookback days. Days after today are marked Future.
func BuildHeatmap(l *Ledger, today DayKey) Heatmap {
	t, err := time.Parse(timeutil.FormatDate, string(today))
	if err != nil {
		return Heatmap{}
	}
	start := timeutil.StartOfWeek(timeutil.AddDays(t, -HeatmapLookback), time.UTC)

	h := Heatmap{Cells: make([]Cell, 0, HeatmapDays)}
	lastMonth := time.Month(0)

	for i := 0; i < HeatmapDays; i++ {
		d := timeutil.AddDays(start, i)
		key := DayKey(d.Format(timeutil.FormatDate))

		count := 0
		if l != nil {
			count = l.Count(key)
		}
		h.Cells = append(h.Cells, Cell{
			Day:    key,
			Count:  count,
			Level:  LevelFor(count),
			Future: key > today,
		})

		if i%7 == 0 && d.Month() != lastMonth {
			h.Months = append(h.Months, MonthLabel{
				Week:  i / 7,
				Month: d.Month(),
				Label: d.Format(timeutil.FormatMonth),
			})
			lastMonth = d.Month()
		}
	}

	return h
}
