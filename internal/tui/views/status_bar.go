package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"clipsync/internal/status"
)

// StatusBar displays the session ID, connection indicator and active channel.
type StatusBar struct {
	*tview.TextView
	session   string
	indicator status.Indicator
	channel   string
	flash     string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetSession updates the session ID display.
func (sb *StatusBar) SetSession(id string) {
	sb.session = id
	sb.render()
}

// SetIndicator updates the connection indicator.
func (sb *StatusBar) SetIndicator(ind status.Indicator) {
	sb.indicator = ind
	sb.render()
}

// SetChannel updates the active transport channel name.
func (sb *StatusBar) SetChannel(name string) {
	sb.channel = name
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	channel := sb.channel
	if channel == "" {
		channel = "-"
	}
	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-] via %s | %s",
		sb.session, sb.indicator.Color, sb.indicator.Label, channel, clock)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
