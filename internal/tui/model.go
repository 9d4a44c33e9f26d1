// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tui is the interactive terminal browser of feddict-cli. It renders
// snapshots of a browse.Controller and turns key presses into controller
// calls; all fetching, debouncing and stale-response handling stays in the
// controller.
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/browse"
	"github.com/feddict/feddict/internal/model"
)

// Browser is the controller surface the model drives. *browse.Controller
// implements it.
type Browser interface {
	SetSearchText(s string)
	SelectSuggestion(term string)
	ClearSuggestions()
	SetCategory(category string)
	SetSort(field string)
	ToggleOrder()
	NextPage() bool
	PrevPage() bool
	FirstPage() bool
	LastPage() bool
	JumpTo(n int) error
	Refresh()
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeJump
)

const definitionWidth = 60

// Model is the bubbletea model of the browser.
type Model struct {
	browser    Browser
	feed       *Feed
	styles     Styles
	categories []string // "" means all
	sortFields []string

	search textinput.Model
	jump   textinput.Model
	mode   mode

	snap       browse.Snapshot
	cursor     int
	suggestion int // highlighted suggestion, -1 for none
	detail     bool
	message    string
	width      int
}

// New creates the browser model. categories are offered by the category
// key in the given order after "all".
func New(b Browser, feed *Feed, initial browse.Snapshot, categories []string) Model {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "type to search terms"
	search.CharLimit = 200
	search.SetValue(initial.SearchText)

	jump := textinput.New()
	jump.Prompt = "Go to page: "
	jump.CharLimit = 6

	return Model{
		browser:    b,
		feed:       feed,
		styles:     DefaultStyles(),
		categories: append([]string{""}, categories...),
		sortFields: model.ValidSortFields(),
		search:     search,
		jump:       jump,
		snap:       initial,
		suggestion: -1,
		width:      80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m Model) waitForSnapshot() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	return m.feed.wait()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.applySnapshot(browse.Snapshot(msg))
		return m, m.waitForSnapshot()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.search.Width = max(msg.Width-len(m.search.Prompt)-2, 10)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeJump:
			return m.updateJump(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) applySnapshot(s browse.Snapshot) {
	if s.Query != m.snap.Query {
		m.cursor = 0
		m.detail = false
	}
	m.snap = s
	if m.cursor >= len(s.Items) {
		m.cursor = max(len(s.Items)-1, 0)
	}
	if m.suggestion >= len(s.Suggestions) {
		m.suggestion = -1
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case ":":
		m.mode = modeJump
		m.jump.Reset()
		return m, m.jump.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Items)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.detail = !m.detail && len(m.snap.Items) > 0
	case "right", "n":
		m.browser.NextPage()
	case "left", "p":
		m.browser.PrevPage()
	case "home", "g":
		m.browser.FirstPage()
	case "end", "G":
		m.browser.LastPage()
	case "c":
		m.browser.SetCategory(m.nextCategory())
	case "s":
		m.browser.SetSort(m.nextSortField())
	case "o":
		m.browser.ToggleOrder()
	case "r":
		m.browser.Refresh()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveSearch()
		return m, nil
	case tea.KeyEnter:
		if m.suggestion >= 0 && m.suggestion < len(m.snap.Suggestions) {
			term := m.snap.Suggestions[m.suggestion].Term
			m.search.SetValue(term)
			m.browser.SelectSuggestion(term)
		}
		m.leaveSearch()
		return m, nil
	case tea.KeyDown:
		if m.suggestion < len(m.snap.Suggestions)-1 {
			m.suggestion++
		}
		return m, nil
	case tea.KeyUp:
		if m.suggestion >= 0 {
			m.suggestion--
		}
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.suggestion = -1
		m.browser.SetSearchText(v)
	}
	return m, cmd
}

func (m *Model) leaveSearch() {
	m.mode = modeList
	m.suggestion = -1
	m.search.Blur()
	m.browser.ClearSuggestions()
}

func (m Model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.jump.Blur()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeList
		m.jump.Blur()
		n, err := browse.ParseJump(m.jump.Value(), m.snap.Pages)
		if err == nil {
			err = m.browser.JumpTo(n)
		}
		if err != nil {
			m.message = err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m Model) nextCategory() string {
	i := slices.Index(m.categories, m.snap.Query.Category)
	return m.categories[(i+1)%len(m.categories)]
}

func (m Model) nextSortField() string {
	i := slices.Index(m.sortFields, m.snap.Query.SortField)
	return m.sortFields[(i+1)%len(m.sortFields)]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("FedDict glossary"))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")

	if m.mode == modeSearch {
		for i, s := range m.snap.Suggestions {
			style := m.styles.Suggestion
			if i == m.suggestion {
				style = m.styles.Selected
			}
			b.WriteString(style.Render(s.Term))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.styles.Filter.Render(m.filterLine()))
	b.WriteString("\n\n")

	switch {
	case m.snap.Err != nil:
		b.WriteString(m.styles.Error.Render(errorText(m.snap.Err)))
		b.WriteString("\n")
	case len(m.snap.Items) == 0 && !m.snap.Loading:
		b.WriteString(m.styles.Status.Render("No terms found."))
		b.WriteString("\n")
	}

	for i, t := range m.snap.Items {
		cursor := "  "
		term := m.styles.Term.Render(t.Term)
		if i == m.cursor {
			cursor = "> "
			term = m.styles.Selected.Render(t.Term)
		}
		fmt.Fprintf(&b, "%s%s %s  %s\n", cursor, term,
			m.styles.Category.Render("["+t.Category+"]"),
			m.styles.Definition.Render(truncate(t.Definition, definitionWidth)))
	}

	if m.detail && m.cursor < len(m.snap.Items) {
		t := m.snap.Items[m.cursor]
		width := max(m.width-4, 20)
		b.WriteString("\n")
		b.WriteString(m.styles.Detail.Width(width).Render(t.Term + "\n\n" + t.Definition))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render(m.statusLine()))
	b.WriteString("\n")
	if m.mode == modeJump {
		b.WriteString(m.jump.View())
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(m.styles.Error.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) filterLine() string {
	category := m.snap.Query.Category
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("Category: %s  Sort: %s %s", category, m.snap.Query.SortField, m.snap.Query.SortOrder)
}

func (m Model) statusLine() string {
	line := fmt.Sprintf("%s  (%d terms)", m.snap.Label(), m.snap.Total)
	if m.snap.Loading {
		line += "  loading..."
	}
	return line
}

func (m Model) helpLine() string {
	switch m.mode {
	case modeSearch:
		return "↑/↓ suggestions • enter accept • esc done"
	case modeJump:
		return "enter go • esc cancel"
	}
	return "/ search • ←/→ page • g/G first/last • : jump • c category • s sort • o order • enter details • q quit"
}

// errorText is the message shown for a failed fetch.
func errorText(err error) string {
	return "Error: " + apiclient.UserMessage(err, "Could not load terms")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
