package metrics

import "sort"

// CodeRow is one bucket of the status-code histogram.
type CodeRow struct {
	Code  int   `json:"code" yaml:"code"`
	Count int64 `json:"count" yaml:"count"`
}

// SortedCodes flattens a code histogram into rows sorted by code ascending.
func SortedCodes(codes map[int]int64) []CodeRow {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]CodeRow, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, CodeRow{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}

// ErrorRow is one transport failure category with its count.
type ErrorRow struct {
	Kind  string `json:"kind" yaml:"kind"`
	Count int64  `json:"count" yaml:"count"`
}

// SortedErrors flattens transport failure counts, sorted by descending count then kind.
func SortedErrors(kinds map[string]int64) []ErrorRow {
	if len(kinds) == 0 {
		return nil
	}
	rows := make([]ErrorRow, 0, len(kinds))
	for kind, count := range kinds {
		rows = append(rows, ErrorRow{Kind: kind, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
