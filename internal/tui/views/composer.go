package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the text input for publishing messages to the session.
// Ctrl-S toggles sensitive mode for the next send; Ctrl-A toggles attach
// mode, where the entered text is a local file path to upload instead of a
// message body.
type Composer struct {
	*tview.InputField
	onSend    func(text string, sensitive bool)
	onAttach  func(path string, sensitive bool)
	sensitive bool
	attach    bool
}

// NewComposer creates a new message composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := c.GetText()
		if text == "" {
			return
		}
		if c.attach {
			if c.onAttach != nil {
				c.onAttach(text, c.sensitive)
			}
		} else if c.onSend != nil {
			c.onSend(text, c.sensitive)
		}
		c.SetText("")
		c.sensitive = false
		c.attach = false
		c.refreshLabel()
	})

	input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlS:
			c.sensitive = !c.sensitive
			c.refreshLabel()
			return nil
		case tcell.KeyCtrlA:
			c.attach = !c.attach
			c.refreshLabel()
			return nil
		}
		return event
	})

	return c
}

// SetOnSend sets the callback when a text message is sent.
func (c *Composer) SetOnSend(fn func(text string, sensitive bool)) {
	c.onSend = fn
}

// SetOnAttach sets the callback when a file path is submitted in attach mode.
func (c *Composer) SetOnAttach(fn func(path string, sensitive bool)) {
	c.onAttach = fn
}

func (c *Composer) refreshLabel() {
	prefix := " "
	if c.sensitive {
		prefix += "[red]s[-] "
	}
	if c.attach {
		prefix += "[yellow]file[-] "
	}
	c.SetLabel(prefix + "> ")
}
