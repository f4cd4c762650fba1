// Package tui is the interactive client: one session view with a live
// message list, a composer and a status bar, all driven by bus events.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/tui/keys"
	"clipsync/internal/tui/model"
	"clipsync/internal/tui/views"
)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	vm        *model.ViewModel
	bus       *bus.Bus
	logger    *zap.Logger
	registry  *keys.Registry
	statusBar *views.StatusBar
	msgList   *views.MessageList
	composer  *views.Composer
	helpView  *views.HelpView
	notify    bool
	lastRev   uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application. notify gates new-message flashes.
func NewApp(vm *model.ViewModel, b *bus.Bus, notify bool, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        vm,
		bus:       b,
		logger:    logger,
		registry:  keys.NewRegistry(),
		statusBar: views.NewStatusBar(),
		msgList:   views.NewMessageList(vm.Revealed),
		composer:  views.NewComposer(),
		helpView:  views.NewHelpView(),
		notify:    notify,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal("help", &keys.Action{
		Rune: '?', Key: tcell.KeyRune,
		Description: "?:help", Visible: true,
		Handler: func() { a.pages.SwitchToPage("help") },
	})
	a.registry.AddGlobal("reload", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:reload", Visible: true,
		Handler: func() { a.reload() },
	})

	a.registry.AddView("session", "copy", &keys.Action{
		Rune: 'y', Key: tcell.KeyRune,
		Description: "y:copy", Visible: true,
		Handler: func() {
			if m, ok := a.msgList.Selected(); ok {
				if err := a.vm.CopyMessage(m); err != nil {
					a.vm.Flash.Set("Copy failed: "+err.Error(), 5*time.Second)
				}
				a.refresh()
			}
		},
	})
	a.registry.AddView("session", "reveal", &keys.Action{
		Rune: 'v', Key: tcell.KeyRune,
		Description: "v:reveal", Visible: true,
		Handler: func() {
			if m, ok := a.msgList.Selected(); ok && m.Sensitive {
				a.vm.ToggleReveal(m.ID)
				a.refresh()
			}
		},
	})
	a.registry.AddView("session", "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete", Visible: true,
		Handler: func() {
			if m, ok := a.msgList.Selected(); ok {
				go func() {
					if err := a.vm.DeleteMessage(a.ctx, m.ID); err != nil {
						a.flashAsync("Delete failed: " + err.Error())
					}
				}()
			}
		},
	})
	a.registry.AddView("session", "delete-session", &keys.Action{
		Rune: 'D', Key: tcell.KeyRune,
		Description: "D:delete session", Visible: true,
		Handler: func() {
			go func() {
				if err := a.vm.DeleteSession(a.ctx); err != nil {
					a.flashAsync("Delete session failed: " + err.Error())
				}
			}()
		},
	})
}

func (a *App) setupCallbacks() {
	a.composer.SetOnSend(func(text string, sensitive bool) {
		go func() {
			if err := a.vm.Send(a.ctx, text, sensitive); err != nil {
				var valErr *api.ValidationError
				if errors.As(err, &valErr) {
					a.flashAsync(valErr.Reason)
				} else {
					a.flashAsync("Send failed: " + err.Error())
				}
				return
			}
			a.app.QueueUpdateDraw(func() { a.refresh() })
		}()
	})

	a.composer.SetOnAttach(func(path string, sensitive bool) {
		go func() {
			if err := a.vm.SendFile(a.ctx, path, sensitive); err != nil {
				var valErr *api.ValidationError
				if errors.As(err, &valErr) {
					a.flashAsync(valErr.Reason)
				} else {
					a.flashAsync("Attach failed: " + err.Error())
				}
				return
			}
			a.app.QueueUpdateDraw(func() { a.refresh() })
		}()
	})
}

func (a *App) setupLayout() {
	sessionFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgList, 0, 1, true).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage("session", sessionFlex, true, true)
	a.pages.AddPage("help", a.helpView, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			if currentPage == "help" {
				a.pages.SwitchToPage("session")
				a.app.SetFocus(a.msgList)
				return nil
			}
			if a.app.GetFocus() == a.composer.InputField {
				a.app.SetFocus(a.msgList)
				return nil
			}
		}

		// Let the composer handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		// 'i' focuses the composer (only when not already typing).
		if currentPage == "session" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}

		return event
	})
}

// reload restarts the snapshot fetch and transport cascade in the background.
func (a *App) reload() {
	sessionID := a.vm.Session()
	go func() {
		if err := a.vm.Reload(a.ctx, sessionID); err != nil {
			if errors.Is(err, api.ErrNotFound) {
				a.flashAsync("Session not found")
			} else {
				a.flashAsync("Reload failed: " + err.Error())
			}
			a.logger.Warn("reload failed", zap.Error(err))
		}
		a.app.QueueUpdateDraw(func() { a.refresh() })
	}()
}

// refresh repaints everything from current state. Must run on the UI
// goroutine.
func (a *App) refresh() {
	if rev := a.vm.Revision(); rev != a.lastRev {
		a.lastRev = rev
		a.msgList.Update(a.vm.Messages())
	}
	a.statusBar.SetSession(a.vm.Session())
	a.statusBar.SetIndicator(a.vm.Indicator())
	a.statusBar.SetChannel(a.vm.ActiveChannel())
	a.statusBar.SetFlash(a.vm.Flash.Get())
}

func (a *App) flashAsync(msg string) {
	a.vm.Flash.Set(msg, 5*time.Second)
	a.app.QueueUpdateDraw(func() {
		a.statusBar.SetFlash(a.vm.Flash.Get())
	})
}

// Run connects to the session and starts the TUI event loop. Blocks until
// the user quits.
func (a *App) Run(sessionID string) error {
	a.vm.SetSession(sessionID)
	a.startEventLoop()
	a.startClock()
	a.reload()
	return a.app.Run()
}

// startEventLoop consumes bus events and turns them into repaints.
func (a *App) startEventLoop() {
	ch, unsub := a.bus.Subscribe("", 128)
	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				a.handleBusEvent(evt)
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

func (a *App) handleBusEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindStoreUpdated, bus.KindConnState:
		a.app.QueueUpdateDraw(func() { a.refresh() })

	case bus.KindNotify:
		if !a.notify {
			return
		}
		if m, ok := evt.Payload.(api.Message); ok && !m.Sensitive {
			a.vm.Flash.Set("New message: "+firstLine(m.Body, 40), 4*time.Second)
		} else {
			a.vm.Flash.Set("New message", 4*time.Second)
		}
		a.app.QueueUpdateDraw(func() { a.refresh() })

	case bus.KindSessionDeleted:
		a.vm.End()
		a.vm.Flash.Set("Session was deleted", 10*time.Second)
		a.app.QueueUpdateDraw(func() { a.refresh() })

	case bus.KindAlert:
		if msg, ok := evt.Payload.(string); ok {
			a.vm.Flash.Set(msg, 5*time.Second)
			a.app.QueueUpdateDraw(func() { a.refresh() })
		}
	}
}

// startClock redraws the status bar periodically so the clock ticks and
// expired flashes disappear.
func (a *App) startClock() {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		for {
			select {
			case <-ticker.C:
				a.app.QueueUpdateDraw(func() { a.refresh() })
			case <-a.ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

func firstLine(s string, max int) string {
	for i, r := range s {
		if r == '\n' || i >= max {
			return s[:i] + "…"
		}
	}
	return s
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
