package wifi

import (
	"golang.org/x/exp/slices"
)

// Task walks the candidate networks of one connection round. The cursor only
// moves forward; each candidate gets the retry budget in extra attempts.
type Task struct {
	candidates []Network
	cursor     int
	retries    int
	budget     int
}

func NewTask(catalog Catalog, budget int) *Task {
	if budget < 0 {
		budget = 0
	}

	candidates := make([]Network, len(catalog))
	for i, network := range catalog {
		candidates[i] = network.Forget()
	}

	return &Task{
		candidates: candidates,
		budget:     budget,
	}
}

func (t *Task) Len() int {
	return len(t.candidates)
}

func (t *Task) Done() bool {
	return t.cursor >= len(t.candidates)
}

// Current returns the candidate under the cursor.
func (t *Task) Current() (Network, bool) {
	if t.Done() {
		return Network{}, false
	}

	return t.candidates[t.cursor], true
}

// Retries is the number of extra attempts made on the current candidate.
func (t *Task) Retries() int {
	return t.retries
}

// Next accounts for one failed attempt. It retries the current candidate while
// budget remains, otherwise moves on. It returns false once exhausted.
func (t *Task) Next() bool {
	if t.Done() {
		return false
	}

	if t.retries < t.budget {
		t.retries++
		return true
	}

	return t.Skip()
}

// Skip moves to the next candidate without spending a retry.
func (t *Task) Skip() bool {
	if t.Done() {
		return false
	}

	t.cursor++
	t.retries = 0

	return !t.Done()
}

// Candidates returns a copy of the remaining sequence, cursor first.
func (t *Task) Candidates() []Network {
	if t.Done() {
		return nil
	}

	return slices.Clone(t.candidates[t.cursor:])
}

// Sort reorders the remaining candidates by ranked scan results, which must be
// strongest first. Matching candidates move to the front in that order and
// learn the access point they were matched on. A secured candidate is never
// matched by an open result of the same name.
func (t *Task) Sort(ranked []ScanResult) {
	head := t.cursor

	for _, result := range ranked {
		for i := head; i < len(t.candidates); i++ {
			candidate := t.candidates[i]

			if candidate.SSID != result.SSID {
				continue
			}

			if candidate.Secured() && result.Open() {
				continue
			}

			promoted := candidate.Learn(result.BSSID, result.Channel)

			// shift head..i-1 one to the right
			copy(t.candidates[head+1:i+1], t.candidates[head:i])
			t.candidates[head] = promoted
			head++

			break
		}
	}
}

// Filter removes every candidate learned on bssid and restarts from the head.
// It reports whether any candidate remains.
func (t *Task) Filter(bssid BSSID) bool {
	t.candidates = slices.DeleteFunc(t.candidates, func(n Network) bool {
		learned, _, ok := n.Learned()
		return ok && learned == bssid
	})

	t.cursor = 0
	t.retries = 0

	return len(t.candidates) > 0
}

// Prune drops candidates that were not matched against the last scan.
func (t *Task) Prune() bool {
	t.candidates = slices.DeleteFunc(t.candidates, func(n Network) bool {
		_, _, ok := n.Learned()
		return !ok
	})

	t.cursor = 0
	t.retries = 0

	return len(t.candidates) > 0
}
