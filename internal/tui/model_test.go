package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/model"
)

type fakeBrowser struct {
	calls      []string
	searchText string
	selected   string
	category   string
	sort       string
	jumpedTo   int
}

func (b *fakeBrowser) SetSearchText(s string)       { b.calls = append(b.calls, "search"); b.searchText = s }
func (b *fakeBrowser) SelectSuggestion(term string) { b.calls = append(b.calls, "select"); b.selected = term }
func (b *fakeBrowser) ClearSuggestions()            { b.calls = append(b.calls, "clear") }
func (b *fakeBrowser) SetCategory(c string)         { b.calls = append(b.calls, "category"); b.category = c }
func (b *fakeBrowser) SetSort(f string)             { b.calls = append(b.calls, "sort"); b.sort = f }
func (b *fakeBrowser) ToggleOrder()                 { b.calls = append(b.calls, "order") }
func (b *fakeBrowser) NextPage() bool               { b.calls = append(b.calls, "next"); return true }
func (b *fakeBrowser) PrevPage() bool               { b.calls = append(b.calls, "prev"); return true }
func (b *fakeBrowser) FirstPage() bool              { b.calls = append(b.calls, "first"); return true }
func (b *fakeBrowser) LastPage() bool               { b.calls = append(b.calls, "last"); return true }
func (b *fakeBrowser) Refresh()                     { b.calls = append(b.calls, "refresh") }

func (b *fakeBrowser) JumpTo(n int) error {
	b.calls = append(b.calls, "jump")
	b.jumpedTo = n
	return nil
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func pageSnapshot() browse.Snapshot {
	q := browse.DefaultQuery()
	q.Search = "proto"
	q.Category = "Networking"
	q.Page = 2
	return browse.Snapshot{
		Query:      q,
		SearchText: "proto",
		Page:       2,
		Pages:      5,
		Total:      50,
		Items: []model.Term{
			{ID: "11", Term: "Protocol 11", Category: "Networking", Definition: "An eleventh protocol"},
			{ID: "12", Term: "Protocol 12", Category: "Networking", Definition: "A twelfth protocol"},
		},
	}
}

func TestViewRendersSnapshot(t *testing.T) {
	m := New(&fakeBrowser{}, nil, browse.Snapshot{}, []string{"Networking", "Security"})
	m = send(t, m, snapshotMsg(pageSnapshot()))

	v := m.View()
	assert.Contains(t, v, "Page 2 of 5")
	assert.Contains(t, v, "(50 terms)")
	assert.Contains(t, v, "> Protocol 11")
	assert.Contains(t, v, "Category: Networking")
}

func TestViewShowsErrors(t *testing.T) {
	m := New(&fakeBrowser{}, nil, browse.Snapshot{}, nil)
	snap := pageSnapshot()
	snap.Items = nil
	snap.Err = apiclient.ErrTimeout
	m = send(t, m, snapshotMsg(snap))
	assert.Contains(t, m.View(), "Error: Request timed out")

	snap.Err = nil
	m = send(t, m, snapshotMsg(snap))
	assert.Contains(t, m.View(), "No terms found.")
}

func TestListKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{keys("n"), "next"},
		{tea.KeyMsg{Type: tea.KeyRight}, "next"},
		{keys("p"), "prev"},
		{keys("g"), "first"},
		{keys("G"), "last"},
		{keys("o"), "order"},
		{keys("r"), "refresh"},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			b := &fakeBrowser{}
			m := New(b, nil, pageSnapshot(), nil)
			send(t, m, tt.key)
			assert.Equal(t, []string{tt.want}, b.calls)
		})
	}
}

func TestCategoryAndSortCycle(t *testing.T) {
	b := &fakeBrowser{}
	m := New(b, nil, pageSnapshot(), []string{"Networking", "Security"})

	send(t, m, keys("c"))
	assert.Equal(t, "Security", b.category)

	snap := pageSnapshot()
	snap.Query.Category = "Security"
	m = send(t, m, snapshotMsg(snap), keys("c"))
	assert.Equal(t, "", b.category, "wraps around to all categories")

	send(t, m, keys("s"))
	assert.Equal(t, model.SortByCategory, b.sort)
}

func TestCursorAndDetail(t *testing.T) {
	m := New(&fakeBrowser{}, nil, pageSnapshot(), nil)

	m = send(t, m, keys("j"), keys("j"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last row")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.detail)
	assert.Equal(t, 2, strings.Count(m.View(), "A twelfth protocol"), "row and detail box")

	// A new query resets the cursor.
	snap := pageSnapshot()
	snap.Query.Page = 3
	m = send(t, m, snapshotMsg(snap))
	assert.Equal(t, 0, m.cursor)
	assert.False(t, m.detail)
}

func TestSearchMode(t *testing.T) {
	b := &fakeBrowser{}
	m := New(b, nil, browse.Snapshot{Query: browse.DefaultQuery()}, nil)

	m = send(t, m, keys("/"), keys("p"), keys("r"))
	assert.Equal(t, modeSearch, m.mode)
	assert.Equal(t, "pr", b.searchText)
	assert.Equal(t, []string{"search", "search"}, b.calls)

	snap := browse.Snapshot{
		Query:      browse.DefaultQuery(),
		SearchText: "pr",
		Suggestions: []model.Term{
			{ID: "1", Term: "Protocol"},
			{ID: "2", Term: "Proxy"},
		},
	}
	m = send(t, m, snapshotMsg(snap))
	assert.Contains(t, m.View(), "Proxy")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.suggestion, "highlight stops at the last suggestion")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Proxy", b.selected)
	assert.Equal(t, "Proxy", m.search.Value())
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "clear", b.calls[len(b.calls)-1])
}

func TestSearchEscKeepsText(t *testing.T) {
	b := &fakeBrowser{}
	m := New(b, nil, browse.Snapshot{Query: browse.DefaultQuery()}, nil)

	m = send(t, m, keys("/"), keys("x"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "x", m.search.Value())
	assert.Empty(t, b.selected)
}

func TestJump(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		b := &fakeBrowser{}
		m := New(b, nil, pageSnapshot(), nil)
		m = send(t, m, keys(":"), keys("4"), tea.KeyMsg{Type: tea.KeyEnter})
		assert.Equal(t, 4, b.jumpedTo)
		assert.Empty(t, m.message)
	})

	t.Run("out of range", func(t *testing.T) {
		b := &fakeBrowser{}
		m := New(b, nil, pageSnapshot(), nil)
		m = send(t, m, keys(":"), keys("9"), tea.KeyMsg{Type: tea.KeyEnter})
		assert.Empty(t, b.calls, "no request for an invalid page")
		assert.Contains(t, m.View(), "Please enter a page number between 1 and 5")

		// The message goes away with the next key.
		m = send(t, m, keys("j"))
		assert.Empty(t, m.message)
	})

	t.Run("esc cancels", func(t *testing.T) {
		b := &fakeBrowser{}
		m := New(b, nil, pageSnapshot(), nil)
		m = send(t, m, keys(":"), keys("3"), tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, modeList, m.mode)
		assert.Empty(t, b.calls)
	})
}

func TestQuit(t *testing.T) {
	m := New(&fakeBrowser{}, nil, pageSnapshot(), nil)
	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	// In search mode q is text appended to the current search, ctrl+c
	// still quits.
	m = send(t, m, keys("/"))
	next, _ := m.Update(keys("q"))
	assert.Equal(t, "protoq", next.(Model).search.Value())
	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFeedKeepsLatest(t *testing.T) {
	f := NewFeed()
	f.Push(browse.Snapshot{Page: 1})
	f.Push(browse.Snapshot{Page: 2})
	f.Push(browse.Snapshot{Page: 3})

	done := make(chan tea.Msg, 1)
	go func() { done <- f.wait()() }()

	select {
	case msg := <-done:
		assert.Equal(t, 3, browse.Snapshot(msg.(snapshotMsg)).Page)
	case <-time.After(time.Second):
		t.Fatal("feed did not deliver")
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
