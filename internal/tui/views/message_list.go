package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"clipsync/internal/api"
)

const redactedPlaceholder = "••••• (sensitive, press v to reveal)"

// MessageList shows the session's messages newest-first in a selectable
// table. Sensitive messages render redacted until revealed.
type MessageList struct {
	*tview.Table
	messages   []api.Message
	revealedFn func(messageID string) bool
	selectedFn func() (int, int)
}

// NewMessageList creates the message table. revealedFn decides per message
// whether a sensitive body is shown in clear.
func NewMessageList(revealedFn func(messageID string) bool) *MessageList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Messages ")

	ml := &MessageList{Table: table, revealedFn: revealedFn}
	ml.selectedFn = table.GetSelection
	return ml
}

// Update refreshes the table from the store view.
func (ml *MessageList) Update(msgs []api.Message) {
	ml.messages = msgs
	ml.Clear()

	// Header row.
	ml.SetCell(0, 0, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	ml.SetCell(0, 1, tview.NewTableCell(" Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	ml.SetCell(0, 2, tview.NewTableCell(" Attachment").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, m := range msgs {
		row := i + 1
		ml.SetCell(row, 0, tview.NewTableCell(" "+formatTimestamp(m.CreatedAt)).SetMaxWidth(12))
		ml.SetCell(row, 1, tview.NewTableCell(" "+ml.preview(m)).SetMaxWidth(60).SetExpansion(2))
		ml.SetCell(row, 2, tview.NewTableCell(" "+attachmentLabel(m)).SetMaxWidth(24).SetExpansion(1))
	}
}

// Selected returns the currently selected message, if any.
func (ml *MessageList) Selected() (api.Message, bool) {
	row, _ := ml.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(ml.messages) {
		return ml.messages[idx], true
	}
	return api.Message{}, false
}

func (ml *MessageList) preview(m api.Message) string {
	if m.Sensitive && !ml.revealedFn(m.ID) {
		return redactedPlaceholder
	}
	body := sanitizeForTerminal(m.Body)
	body = strings.ReplaceAll(body, "\n", " ")
	return body
}

func attachmentLabel(m api.Message) string {
	if !m.HasAttachment() {
		return ""
	}
	name := m.AttachmentName
	if name == "" {
		name = m.AttachmentID
	}
	return fmt.Sprintf("[%s] %s", m.AttachmentType, sanitizeForTerminal(name))
}

func formatTimestamp(sec int64) string {
	if sec == 0 {
		return ""
	}
	t := time.Unix(sec, 0)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
