package core

import (
	"encoding/json"
	"time"
)

// State is a stage of a single orchestrated run.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateRunning
	StateAggregating
	StateUploading
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateSelecting:   "selecting",
	StateRunning:     "running",
	StateAggregating: "aggregating",
	StateUploading:   "uploading",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Transition records entering a state. Tool is set for Running transitions.
type Transition struct {
	State State     `json:"state"`
	Tool  string    `json:"tool,omitempty"`
	At    time.Time `json:"at"`
}
