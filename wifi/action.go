package wifi

type Action uint8

const (
	StationConnect Action = iota
	StationContinueConnect
	StationTryConnectBetter
	StationDisconnect
	AccessPointFallback
	AccessPointStart
	AccessPointStop
	AccessPointFallbackCheck
	TurnOff
	TurnOn
)

func (a Action) String() string {
	switch a {
	case StationConnect:
		return "StationConnect"
	case StationContinueConnect:
		return "StationContinueConnect"
	case StationTryConnectBetter:
		return "StationTryConnectBetter"
	case StationDisconnect:
		return "StationDisconnect"
	case AccessPointFallback:
		return "AccessPointFallback"
	case AccessPointStart:
		return "AccessPointStart"
	case AccessPointStop:
		return "AccessPointStop"
	case AccessPointFallbackCheck:
		return "AccessPointFallbackCheck"
	case TurnOff:
		return "TurnOff"
	case TurnOn:
		return "TurnOn"
	default:
		return "Unknown"
	}
}

// power actions are accepted even while the queue is disabled
func (a Action) power() bool {
	return a == TurnOff || a == TurnOn
}

// Queue is the FIFO of pending actions.
type Queue struct {
	actions  []Action
	disabled bool
}

func (q *Queue) Enable() {
	q.disabled = false
}

func (q *Queue) Disable() {
	q.disabled = true
}

func (q *Queue) Enabled() bool {
	return !q.disabled
}

// Push appends an action. It reports false when the action was dropped.
func (q *Queue) Push(action Action) bool {
	if q.disabled && !action.power() {
		return false
	}

	q.actions = append(q.actions, action)

	return true
}

func (q *Queue) Pop() (Action, bool) {
	if len(q.actions) == 0 {
		return 0, false
	}

	action := q.actions[0]
	q.actions = q.actions[1:]

	if len(q.actions) == 0 {
		q.actions = nil
	}

	return action, true
}

func (q *Queue) Len() int {
	return len(q.actions)
}

// Pending returns a copy of the queued actions in order.
func (q *Queue) Pending() []Action {
	out := make([]Action, len(q.actions))
	copy(out, q.actions)
	return out
}

func (q *Queue) Clear() {
	q.actions = nil
}
