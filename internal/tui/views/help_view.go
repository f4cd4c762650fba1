package views

import (
	"fmt"

	"github.com/rivo/tview"
)

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
}

// NewHelpView creates a new help view.
func NewHelpView() *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true).SetTitle(" Help ")

	hv := &HelpView{TextView: tv}
	hv.render()
	return hv
}

func (hv *HelpView) render() {
	help := `
  [::b]Global[-:-:-]

  [aqua]q[-]      Quit                [aqua]?[-]     This help
  [aqua]Esc[-]    Back                [aqua]r[-]     Reload session

  [::b]Message List[-:-:-]

  [aqua]j/Down[-] Move down           [aqua]k/Up[-]  Move up
  [aqua]y[-]      Copy message body   [aqua]v[-]     Reveal/redact sensitive
  [aqua]d[-]      Delete message      [aqua]D[-]     Delete whole session
  [aqua]i[-]      Focus composer

  [::b]Composer[-:-:-]

  [aqua]Enter[-]  Send message        [aqua]Esc[-]   Back to list
  [aqua]Ctrl-S[-] Toggle sensitive    [aqua]Ctrl-A[-] Attach file by path
`
	_, _ = fmt.Fprint(hv, help)
}
