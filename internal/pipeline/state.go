package pipeline

// State is how far a run has progressed. States only move forward.
type State int

const (
	StateStarted State = iota
	StateWalletReady
	StateFunded
	StateComposed
	StateSigned
	StateBroadcast
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StateWalletReady:
		return "WalletReady"
	case StateFunded:
		return "Funded"
	case StateComposed:
		return "Composed"
	case StateSigned:
		return "Signed"
	case StateBroadcast:
		return "Broadcast"
	case StateConfirmed:
		return "Confirmed"
	}
	return "Unknown"
}

// stage names the step that moves a run out of a state.
func (s State) stage() string {
	switch s {
	case StateStarted:
		return "wallet setup"
	case StateWalletReady:
		return "funding"
	case StateFunded:
		return "compose"
	case StateComposed:
		return "fund and sign"
	case StateSigned, StateBroadcast:
		return "broadcast"
	}
	return "unknown"
}
