package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// keyEventFrom translates a bubbletea key message into the engine's key
// event. The second return is false for keys the engine has no binding
// for (those stay with the shell: quit, pane toggles, yank).
func keyEventFrom(msg tea.KeyMsg) (tree.KeyEvent, bool) {
	switch msg.Type {
	case tea.KeyUp:
		return tree.KeyEvent{Key: tree.KeyArrowUp}, true
	case tea.KeyShiftUp:
		return tree.KeyEvent{Key: tree.KeyArrowUp, Shift: true}, true
	case tea.KeyDown:
		return tree.KeyEvent{Key: tree.KeyArrowDown}, true
	case tea.KeyShiftDown:
		return tree.KeyEvent{Key: tree.KeyArrowDown, Shift: true}, true
	case tea.KeyRight:
		return tree.KeyEvent{Key: tree.KeyArrowRight}, true
	case tea.KeyLeft:
		return tree.KeyEvent{Key: tree.KeyArrowLeft}, true
	case tea.KeyHome:
		return tree.KeyEvent{Key: tree.KeyHome}, true
	case tea.KeyShiftHome:
		return tree.KeyEvent{Key: tree.KeyHome, Shift: true}, true
	case tea.KeyCtrlHome:
		return tree.KeyEvent{Key: tree.KeyHome, Ctrl: true}, true
	case tea.KeyCtrlShiftHome:
		return tree.KeyEvent{Key: tree.KeyHome, Ctrl: true, Shift: true}, true
	case tea.KeyEnd:
		return tree.KeyEvent{Key: tree.KeyEnd}, true
	case tea.KeyShiftEnd:
		return tree.KeyEvent{Key: tree.KeyEnd, Shift: true}, true
	case tea.KeyCtrlEnd:
		return tree.KeyEvent{Key: tree.KeyEnd, Ctrl: true}, true
	case tea.KeyCtrlShiftEnd:
		return tree.KeyEvent{Key: tree.KeyEnd, Ctrl: true, Shift: true}, true
	case tea.KeyEnter:
		return tree.KeyEvent{Key: tree.KeyEnter}, true
	case tea.KeySpace:
		return tree.KeyEvent{Key: tree.KeySpace}, true
	case tea.KeyCtrlA:
		return tree.KeyEvent{Key: tree.KeyRune, Rune: 'a', Ctrl: true}, true
	case tea.KeyRunes:
		if len(msg.Runes) == 1 {
			// Space can arrive as a rune depending on the input driver.
			if msg.Runes[0] == ' ' {
				return tree.KeyEvent{Key: tree.KeySpace}, true
			}
			return tree.KeyEvent{Key: tree.KeyRune, Rune: msg.Runes[0]}, true
		}
	}
	return tree.KeyEvent{}, false
}
