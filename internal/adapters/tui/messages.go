package tui

import "time"

// MsgPlan announces the static command plan of a build.
type MsgPlan struct {
	Commands []string
	Deps     map[string][]string
	Targets  []string
}

// MsgCommandStart reports that a command began executing.
type MsgCommandStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// MsgCommandLog carries raw output of a running command.
type MsgCommandLog struct {
	SpanID string
	Data   []byte
}

// MsgCommandComplete reports that a command ended. Err is nil on success.
type MsgCommandComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

// msgFinished ends the program once the build is over.
type msgFinished struct{}
