package session

import (
	"errors"

	"github.com/abatilo/tempo/internal/engine"
)

// Recorder writes each saved change to the snapshot and the buffer.
type Recorder struct {
	state  *StateWriter
	buffer *Buffer
}

// NewRecorder creates a Recorder.
func NewRecorder(state *StateWriter, buffer *Buffer) *Recorder {
	return &Recorder{state: state, buffer: buffer}
}

// Notify implements engine.Notifier. Both writers are attempted even if one fails.
func (r *Recorder) Notify(ch engine.Change) error {
	stateErr := r.state.Write(ch.Task, ch.Goal, ch.Action, ch.At)
	bufferErr := r.buffer.Append(ch.Event, ch.Details, ch.At)
	return errors.Join(stateErr, bufferErr)
}
