package dataprocessing

import (
	"math"
)

// Group is a set of trial rows sharing a forward-filled key. Rows index into the
// trial table.
type Group struct {
	Key  float64
	Rows []int
}

// GroupingStatistics summarizes how a trial table was partitioned.
type GroupingStatistics struct {
	TotalRows      int
	ForwardFilled  int
	UngroupedRows  int
	DroppedRows    int
	GroupsDetected int
}

// Grouper partitions trial rows by their forward-filled grouping key.
type Grouper struct{}

// NewGrouper creates a new grouper
func NewGrouper() *Grouper {
	return &Grouper{}
}

// ForwardFill replaces each missing key with the last key above it. Leading missing
// keys stay NaN.
func (g *Grouper) ForwardFill(keys []float64) []float64 {
	filled := make([]float64, len(keys))
	last := math.NaN()
	for i, k := range keys {
		if !math.IsNaN(k) {
			last = k
		}
		filled[i] = last
	}
	return filled
}

// Group forward-fills the grouping column, drops rows without a key or without a
// reading in the table's data column, and returns groups in encounter order.
func (g *Grouper) Group(t *TrialTable) []Group {
	groups, _ := g.GroupWithStats(t)
	return groups
}

// GroupWithStats performs Group and returns statistics
func (g *Grouper) GroupWithStats(t *TrialTable) ([]Group, GroupingStatistics) {
	stats := GroupingStatistics{TotalRows: t.Len()}
	filled := g.ForwardFill(t.GroupKeys)
	data := t.DataColumn()

	var groups []Group
	index := make(map[float64]int)

	for i, key := range filled {
		if math.IsNaN(t.GroupKeys[i]) && !math.IsNaN(key) {
			stats.ForwardFilled++
		}
		if math.IsNaN(key) {
			stats.UngroupedRows++
			continue
		}
		if data != nil && math.IsNaN(data.Values[i]) {
			stats.DroppedRows++
			continue
		}

		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Rows = append(groups[pos].Rows, i)
	}

	stats.GroupsDetected = len(groups)
	return groups, stats
}
