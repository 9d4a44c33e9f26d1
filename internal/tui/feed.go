package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/feddict/feddict/internal/browse"
)

// Feed carries controller snapshots into the bubbletea program. Only the
// latest snapshot matters, so Push never blocks: an unread snapshot is
// replaced by the newer one.
type Feed struct {
	ch chan browse.Snapshot
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{ch: make(chan browse.Snapshot, 1)}
}

// Push offers s to the program. Use it as browse.Options.OnChange.
func (f *Feed) Push(s browse.Snapshot) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// snapshotMsg delivers a controller snapshot to Update.
type snapshotMsg browse.Snapshot

// wait returns a command that blocks until the next snapshot.
func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-f.ch)
	}
}
