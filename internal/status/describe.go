package status

// Indicator is the presentational category for a connection state. It holds
// no state of its own; the UI recomputes it from the machine on every render.
type Indicator struct {
	Label string
	Color string // tview color tag name
}

// Describe maps a connection state to its indicator.
func Describe(s State) Indicator {
	switch s {
	case Connected:
		return Indicator{Label: "connected", Color: "green"}
	case Connecting:
		return Indicator{Label: "connecting", Color: "yellow"}
	default:
		return Indicator{Label: "disconnected", Color: "red"}
	}
}
