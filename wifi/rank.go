package wifi

import (
	"golang.org/x/exp/slices"
)

// Ranker folds raw scan results into one entry per network name.
type Ranker struct {
	results []ScanResult
	index   map[string]int
}

func NewRanker() *Ranker {
	return &Ranker{
		index: make(map[string]int),
	}
}

// Add keeps the strongest result per name. Ties keep the one seen first and
// hidden networks are ignored.
func (r *Ranker) Add(result ScanResult) {
	if result.SSID == "" {
		return
	}

	if i, ok := r.index[result.SSID]; ok {
		if result.RSSI > r.results[i].RSSI {
			r.results[i] = result
		}
		return
	}

	r.index[result.SSID] = len(r.results)
	r.results = append(r.results, result)
}

func (r *Ranker) AddAll(results []ScanResult) {
	for _, result := range results {
		r.Add(result)
	}
}

func (r *Ranker) Len() int {
	return len(r.results)
}

// Results returns the folded entries strongest first.
func (r *Ranker) Results() []ScanResult {
	out := slices.Clone(r.results)

	slices.SortStableFunc(out, func(a, b ScanResult) int {
		return b.RSSI - a.RSSI
	})

	return out
}

// Rank is a shortcut for folding one scan.
func Rank(results []ScanResult) []ScanResult {
	r := NewRanker()
	r.AddAll(results)
	return r.Results()
}
