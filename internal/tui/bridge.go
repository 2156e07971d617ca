package tui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chrisdamba/partnerconsole/internal/dashboard"
)

// Bridge carries view-model output onto the bubbletea event loop. It
// implements dashboard.Notifier and its Publish method fits
// ViewModel.Subscribe.
type Bridge struct {
	ch chan tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, 32)}
}

func (b *Bridge) Publish(s dashboard.Snapshot) {
	b.send(snapshotMsg{snapshot: s})
}

func (b *Bridge) Notify(n dashboard.Notice) {
	b.send(noticeMsg{notice: n})
}

// never block the view-model on a slow or stopped UI
func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		log.Printf("UI event queue full, dropping %T", msg)
	}
}

func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.ch
		if !ok {
			return nil
		}
		return msg
	}
}
