package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sage-cli/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
}

func TestNewBar_NilArgs(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_InitUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Same(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    string
	}{
		{name: "ready", state: StateReady, want: "Ready"},
		{name: "ready with message", state: StateReady, message: "3 documents", want: "3 documents"},
		{name: "thinking", state: StateThinking, want: "Thinking..."},
		{name: "thinking with message", state: StateThinking, message: "Searching...", want: "Searching..."},
		{name: "error", state: StateError, message: "timeout", want: "Error: timeout"},
		{name: "bare error", state: StateError, want: "Error"},
		{name: "results", state: StateResults, message: "2 members", want: "2 members"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.Set(tt.state, tt.message)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_Hints(t *testing.T) {
	km := keymap.DefaultKeyMap()
	bar := NewBar(nil, km)
	bar.SetWidth(160)

	assert.Contains(t, bar.View(), "enter: ask")

	bar.Set(StateResults, "")
	assert.Contains(t, bar.View(), "n: new question")

	bar.SetHints([]key.Binding{km.Reload})
	assert.Contains(t, bar.View(), "r: reload")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.Set(StateError, "bad")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
}
