// Package chart turns a user's emotion log into the frequency and weekly
// evolution series shown on the dashboard.
package chart

import (
	"fmt"
	"sort"
	"time"

	"github.com/zhouzirui/emotibot/backend/internal/model/emotion"
)

// Bar is one column of the frequency chart.
type Bar struct {
	Emotion   emotion.Label `json:"emotion"`
	Frequency int           `json:"frequency"`
	Color     string        `json:"color"`
}

// Point is the count of one label within one week.
type Point struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// Series is the weekly trajectory of a single label.
type Series struct {
	Emotion emotion.Label `json:"emotion"`
	Color   string        `json:"color"`
	Points  []Point       `json:"points"`
}

// Line is the evolution chart: ordered week names plus one series per label seen.
type Line struct {
	Weeks  []string `json:"weeks"`
	Series []Series `json:"series"`
}

// Frequency counts every detected label across records, most frequent first.
func Frequency(records []emotion.Record) []Bar {
	counts := make(map[emotion.Label]int)
	for _, record := range records {
		for _, label := range record.Emotions {
			counts[label]++
		}
	}

	bars := make([]Bar, 0, len(counts))
	for _, label := range emotion.All() {
		if n := counts[label]; n > 0 {
			bars = append(bars, Bar{Emotion: label, Frequency: n, Color: emotion.Colors[label]})
		}
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Frequency > bars[j].Frequency
	})
	return bars
}

// Evolution buckets records into Monday-start weeks. Only weeks that contain
// data are numbered, in chronological order starting at "Week 1".
func Evolution(records []emotion.Record) Line {
	starts := make(map[time.Time]struct{})
	for _, record := range records {
		starts[weekStart(record.Timestamp)] = struct{}{}
	}

	ordered := make([]time.Time, 0, len(starts))
	for start := range starts {
		ordered = append(ordered, start)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	names := make(map[time.Time]int, len(ordered))
	weeks := make([]string, len(ordered))
	for i, start := range ordered {
		names[start] = i
		weeks[i] = weekName(i)
	}

	counts := make(map[emotion.Label][]int)
	for _, record := range records {
		idx := names[weekStart(record.Timestamp)]
		for _, label := range record.Emotions {
			if counts[label] == nil {
				counts[label] = make([]int, len(ordered))
			}
			counts[label][idx]++
		}
	}

	series := make([]Series, 0, len(counts))
	for _, label := range emotion.All() {
		perWeek, ok := counts[label]
		if !ok {
			continue
		}
		points := make([]Point, 0, len(perWeek))
		for i, n := range perWeek {
			if n > 0 {
				points = append(points, Point{Week: weeks[i], Count: n})
			}
		}
		series = append(series, Series{Emotion: label, Color: emotion.Colors[label], Points: points})
	}

	return Line{Weeks: weeks, Series: series}
}

func weekStart(ts time.Time) time.Time {
	ts = ts.UTC()
	year, month, day := ts.Date()
	offset := (int(ts.Weekday()) + 6) % 7
	return time.Date(year, month, day-offset, 0, 0, 0, 0, time.UTC)
}

func weekName(index int) string {
	return fmt.Sprintf("Week %d", index+1)
}
