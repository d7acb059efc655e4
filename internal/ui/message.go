package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/discog/internal/tasks"
)

// MsgKind enumerates the messages the progress model handles.
type MsgKind int

// Msg is the union of progress model messages.
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgUpdatesClosed
	MsgTick
)

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// updatesClosedMsg is the constructor for [MsgUpdatesClosed]
func updatesClosedMsg() Msg {
	return Msg{kind: MsgUpdatesClosed}
}

// tickMsg is the constructor for [MsgTick], used to refresh the elapsed time
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}
