package wifi

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(networks []Network) []string {
	out := make([]string, 0, len(networks))
	for _, n := range networks {
		out = append(out, n.SSID)
	}
	return out
}

func TestTaskRetriesThenAdvances(t *testing.T) {
	task := NewTask(Catalog{NewNetwork("A", ""), NewNetwork("B", "")}, 1)

	current, ok := task.Current()
	require.True(t, ok)
	require.Equal(t, "A", current.SSID)

	require.True(t, task.Next())
	current, _ = task.Current()
	require.Equal(t, "A", current.SSID)
	require.Equal(t, 1, task.Retries())

	require.True(t, task.Next())
	current, _ = task.Current()
	require.Equal(t, "B", current.SSID)
	require.Equal(t, 0, task.Retries())

	require.True(t, task.Next())
	require.False(t, task.Next())
	require.True(t, task.Done())

	_, ok = task.Current()
	require.False(t, ok)
}

func TestTaskSkipIgnoresBudget(t *testing.T) {
	task := NewTask(Catalog{NewNetwork("A", ""), NewNetwork("B", "")}, 5)

	require.True(t, task.Skip())
	current, _ := task.Current()
	assert.Equal(t, "B", current.SSID)

	assert.False(t, task.Skip())
	assert.False(t, task.Skip())
}

func TestTaskAttemptBound(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for budget := 0; budget <= 3; budget++ {
			catalog := Catalog{}
			for i := 0; i < n; i++ {
				catalog = append(catalog, NewNetwork(fmt.Sprintf("net%d", i), ""))
			}

			task := NewTask(catalog, budget)
			attempts := 1
			for task.Next() {
				attempts++
			}

			assert.Equal(t, n*(budget+1), attempts, "n=%d budget=%d", n, budget)
		}
	}
}

func TestSortPromotesStrongestFirst(t *testing.T) {
	task := NewTask(Catalog{
		NewNetwork("A", "password1"),
		NewNetwork("B", "password2"),
		NewNetwork("C", "password3"),
	}, 0)

	task.Sort(Rank([]ScanResult{
		{SSID: "C", BSSID: bssidA, RSSI: -40, Channel: 3, Security: SecurityWPA2},
		{SSID: "B", BSSID: bssidB, RSSI: -60, Channel: 6, Security: SecurityWPA2},
	}))

	candidates := task.Candidates()
	require.Equal(t, []string{"C", "B", "A"}, names(candidates))

	bssid, channel, ok := candidates[0].Learned()
	require.True(t, ok)
	assert.Equal(t, bssidA, bssid)
	assert.Equal(t, 3, channel)

	_, _, ok = candidates[2].Learned()
	assert.False(t, ok)
}

func TestSortNeverPromotesSecuredOnOpenResult(t *testing.T) {
	task := NewTask(Catalog{NewNetwork("Office", "password1")}, 0)

	task.Sort(Rank([]ScanResult{
		{SSID: "Office", BSSID: bssidA, RSSI: -40, Security: SecurityOpen},
		{SSID: "Home", BSSID: bssidB, RSSI: -30, Security: SecurityWPA2},
	}))

	candidates := task.Candidates()
	require.Equal(t, []string{"Office"}, names(candidates))

	_, _, learned := candidates[0].Learned()
	assert.False(t, learned)
}

func TestSortOpenCandidateMatchesOpenResult(t *testing.T) {
	task := NewTask(Catalog{NewNetwork("A", "password1"), NewNetwork("Cafe", "")}, 0)

	task.Sort(Rank([]ScanResult{
		{SSID: "Cafe", BSSID: bssidA, RSSI: -50, Security: SecurityOpen},
	}))

	assert.Equal(t, []string{"Cafe", "A"}, names(task.Candidates()))
}

func TestSortKeepsNameMultiset(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	pool := []string{"a", "b", "c", "d", "e", "f"}

	for round := 0; round < 200; round++ {
		var catalog Catalog
		for i := 0; i < 1+rnd.Intn(MaxNetworks); i++ {
			pass := ""
			if rnd.Intn(2) == 0 {
				pass = "password"
			}
			catalog = append(catalog, NewNetwork(pool[rnd.Intn(len(pool))], pass))
		}

		var results []ScanResult
		for i := 0; i < rnd.Intn(10); i++ {
			results = append(results, ScanResult{
				SSID:     pool[rnd.Intn(len(pool))],
				RSSI:     -30 - rnd.Intn(60),
				Security: Security(rnd.Intn(5)),
			})
		}

		before := names(catalog)
		task := NewTask(catalog, 0)
		task.Sort(Rank(results))
		after := names(task.Candidates())

		sort.Strings(before)
		sort.Strings(after)
		require.Equal(t, before, after, "round %d", round)
	}
}

func TestFilterSoleCandidate(t *testing.T) {
	task := NewTask(Catalog{NewNetwork("Office", "password1")}, 0)
	task.Sort([]ScanResult{{SSID: "Office", BSSID: bssidA, RSSI: -50, Security: SecurityWPA2}})

	assert.False(t, task.Filter(bssidA))
	assert.True(t, task.Done())

	_, ok := task.Current()
	assert.False(t, ok)
}

func TestFilterResetsCursor(t *testing.T) {
	task := NewTask(Catalog{
		NewNetwork("A", "password1"),
		NewNetwork("B", "password2"),
		NewNetwork("C", "password3"),
	}, 0)
	task.Sort([]ScanResult{
		{SSID: "A", BSSID: bssidA, RSSI: -40, Security: SecurityWPA2},
		{SSID: "B", BSSID: bssidB, RSSI: -50, Security: SecurityWPA2},
	})

	task.Skip()
	task.Skip()

	require.True(t, task.Filter(bssidA))

	current, ok := task.Current()
	require.True(t, ok)
	assert.Equal(t, "B", current.SSID)
	assert.Equal(t, []string{"B", "C"}, names(task.Candidates()))
}

func TestPruneDropsUnmatched(t *testing.T) {
	task := NewTask(Catalog{NewNetwork("A", ""), NewNetwork("B", "")}, 0)
	task.Sort([]ScanResult{{SSID: "B", BSSID: bssidB, RSSI: -50}})

	require.True(t, task.Prune())
	assert.Equal(t, []string{"B"}, names(task.Candidates()))
}
