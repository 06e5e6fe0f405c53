package ui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// menu is a vertical list of actions.
type menu struct {
	items  []string
	cursor int
}

func newMenu(items ...string) menu {
	return menu{items: items}
}

// update moves the cursor or picks an item. Digits pick directly.
func (m *menu) update(msg tea.KeyMsg) (picked int, ok bool) {
	switch key := msg.String(); key {
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(m.items)) % len(m.items)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(m.items)
	case "enter":
		return m.cursor, true
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.items) {
			m.cursor = n - 1
			return m.cursor, true
		}
	}
	return 0, false
}

func (m menu) view(s Styles) string {
	var sb strings.Builder
	for i, item := range m.items {
		line := strconv.Itoa(i+1) + ". " + item
		if i == m.cursor {
			sb.WriteString(s.Cursor.Render("› ") + s.Selected.Render(line))
		} else {
			sb.WriteString("  " + s.Body.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// rowCursor tracks the selected row of a table.
type rowCursor struct {
	pos int
	n   int
}

func (c *rowCursor) setLen(n int) {
	c.n = n
	c.pos = min(c.pos, max(n-1, 0))
}

// update moves the cursor on up/down and reports whether it handled msg.
func (c *rowCursor) update(msg tea.KeyMsg) bool {
	if c.n == 0 {
		return false
	}
	switch msg.String() {
	case "up", "k":
		c.pos = max(c.pos-1, 0)
	case "down", "j":
		c.pos = min(c.pos+1, c.n-1)
	case "home", "g":
		c.pos = 0
	case "end", "G":
		c.pos = c.n - 1
	default:
		return false
	}
	return true
}

// selected returns the cursor row, or -1 for an empty table.
func (c rowCursor) selected() int {
	if c.n == 0 {
		return -1
	}
	return c.pos
}
