package dataprocessing

import (
	"sort"
	"time"

	"pricecube/internal/pricing"
)

// SortRowsByDate orders rows by date, keeping the existing order within a day.
func SortRowsByDate(rows []pricing.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}

// DateBucket holds the rows of one calendar day.
type DateBucket struct {
	Date time.Time
	Rows []pricing.Row
}

// GroupByDate buckets rows by day in ascending date order. Rows keep their
// relative order inside a bucket.
func GroupByDate(rows []pricing.Row) []DateBucket {
	index := make(map[time.Time]int)
	var buckets []DateBucket

	for _, r := range rows {
		day := r.Date.UTC().Truncate(24 * time.Hour)
		i, ok := index[day]
		if !ok {
			i = len(buckets)
			index[day] = i
			buckets = append(buckets, DateBucket{Date: day})
		}
		buckets[i].Rows = append(buckets[i].Rows, r)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Date.Before(buckets[j].Date)
	})
	return buckets
}

// Statistics summarises an observation table.
type Statistics struct {
	Rows  int       `json:"rows"`
	SKUs  int       `json:"skus"`
	Days  int       `json:"days"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// Describe counts rows, distinct SKUs and distinct days. Undated rows are
// left out of the date range.
func Describe(observations []pricing.Observation) Statistics {
	skus := make(map[string]bool)
	days := make(map[time.Time]bool)
	stats := Statistics{Rows: len(observations)}

	for _, o := range observations {
		skus[o.SKU] = true
		if o.Date.IsZero() {
			continue
		}
		day := o.Date.UTC().Truncate(24 * time.Hour)
		days[day] = true
		if stats.First.IsZero() || day.Before(stats.First) {
			stats.First = day
		}
		if day.After(stats.Last) {
			stats.Last = day
		}
	}

	stats.SKUs = len(skus)
	stats.Days = len(days)
	return stats
}
