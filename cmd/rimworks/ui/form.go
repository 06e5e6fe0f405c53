package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type fieldKind int

const (
	textField fieldKind = iota
	choiceField
)

type field struct {
	label   string
	kind    fieldKind
	input   textinput.Model
	choices []string
	choice  int
}

// form is a vertical list of text inputs and choice pickers. Tab and the
// arrow keys move between fields, left and right cycle a choice, enter
// submits.
type form struct {
	fields []field
	focus  int
	styles Styles
}

func newForm(styles Styles) *form {
	return &form{styles: styles}
}

// addText appends a text input and returns its index.
func (f *form) addText(label, placeholder string, password bool) int {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	ti.Width = 32
	ti.Prompt = ""
	if password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	f.fields = append(f.fields, field{label: label, kind: textField, input: ti})
	f.refocus()
	return len(f.fields) - 1
}

// addChoice appends a picker over choices and returns its index.
func (f *form) addChoice(label string, choices []string) int {
	f.fields = append(f.fields, field{label: label, kind: choiceField, choices: choices})
	f.refocus()
	return len(f.fields) - 1
}

// value returns the trimmed text or the selected choice of field i.
func (f *form) value(i int) string {
	fl := f.fields[i]
	if fl.kind == choiceField {
		if len(fl.choices) == 0 {
			return ""
		}
		return fl.choices[fl.choice]
	}
	return strings.TrimSpace(fl.input.Value())
}

// rawValue returns the untrimmed text of field i, for passwords.
func (f *form) rawValue(i int) string {
	return f.fields[i].input.Value()
}

func (f *form) setValue(i int, v string) {
	fl := &f.fields[i]
	if fl.kind == choiceField {
		for j, c := range fl.choices {
			if c == v {
				fl.choice = j
			}
		}
		return
	}
	fl.input.SetValue(v)
}

// setChoices replaces the options of choice field i, keeping the current
// selection when it is still offered.
func (f *form) setChoices(i int, choices []string) {
	fl := &f.fields[i]
	current := ""
	if fl.choice < len(fl.choices) {
		current = fl.choices[fl.choice]
	}
	fl.choices = choices
	fl.choice = 0
	for j, c := range choices {
		if c == current {
			fl.choice = j
		}
	}
}

// reset clears every text input, rewinds every picker and focuses the
// first field.
func (f *form) reset() {
	for i := range f.fields {
		f.fields[i].input.SetValue("")
		f.fields[i].choice = 0
	}
	f.focus = 0
	f.refocus()
}

func (f *form) focused() int { return f.focus }

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	f.focus = (i + len(f.fields)) % len(f.fields)
	f.refocus()
}

func (f *form) refocus() {
	for i := range f.fields {
		if i == f.focus {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
}

// update handles one key. It reports whether the form was submitted and
// whether any value changed.
func (f *form) update(msg tea.KeyMsg) (submitted, changed bool, cmd tea.Cmd) {
	if len(f.fields) == 0 {
		return msg.String() == "enter", false, nil
	}
	fl := &f.fields[f.focus]

	switch msg.String() {
	case "enter":
		return true, false, nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return false, false, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return false, false, nil
	}

	if fl.kind == choiceField {
		if len(fl.choices) == 0 {
			return false, false, nil
		}
		switch msg.String() {
		case "right", "l", " ":
			fl.choice = (fl.choice + 1) % len(fl.choices)
			return false, true, nil
		case "left", "h":
			fl.choice = (fl.choice - 1 + len(fl.choices)) % len(fl.choices)
			return false, true, nil
		}
		return false, false, nil
	}

	before := fl.input.Value()
	fl.input, cmd = fl.input.Update(msg)
	return false, fl.input.Value() != before, cmd
}

func (f *form) view() string {
	var sb strings.Builder
	for i, fl := range f.fields {
		label := f.styles.FieldLabel
		marker := "  "
		if i == f.focus {
			label = f.styles.FocusedLabel
			marker = f.styles.Cursor.Render("› ")
		}
		sb.WriteString(marker)
		sb.WriteString(label.Render(fl.label))
		if fl.kind == choiceField {
			sb.WriteString(f.choiceView(fl, i == f.focus))
		} else {
			sb.WriteString(fl.input.View())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *form) choiceView(fl field, focused bool) string {
	if len(fl.choices) == 0 {
		return f.styles.Muted.Render("(none)")
	}
	v := fl.choices[fl.choice]
	if !focused {
		return f.styles.Body.Render(v)
	}
	return f.styles.Muted.Render("‹ ") + f.styles.Selected.Render(v) + f.styles.Muted.Render(" ›")
}
