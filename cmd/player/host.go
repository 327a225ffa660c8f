package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
	"github.com/jwebster45206/cutscene-engine/pkg/playback"
)

// maxActivity bounds the activity panel history
const maxActivity = 50

// stage is the host side of a playback session. The interpreter writes to
// it through the playback interfaces while the Bubble Tea model reads it
// when rendering. Both happen inside Update, so no locking is needed.
type stage struct {
	text     string
	choices  []playback.Choice
	activity []string
	pending  []tea.Cmd
	done     bool
	failure  error

	next playback.Observer
}

// Ensure stage implements the playback host interfaces
var (
	_ playback.Display   = (*stage)(nil)
	_ playback.Effects   = (*stage)(nil)
	_ playback.Scheduler = (*stage)(nil)
	_ playback.Observer  = (*stage)(nil)
)

type delayDoneMsg struct {
	fn func()
}

func (s *stage) SetText(text string) {
	s.text = text
}

func (s *stage) SetChoices(choices []playback.Choice) {
	s.choices = choices
}

func (s *stage) AimCamera(camera, focus *identity.Object, zoom float64) {
	s.record(fmt.Sprintf("Camera %s focuses %s (zoom %.2g)", camera.Name, focus.Name, zoom))
}

// After hands the delay to Bubble Tea; the callback runs when the tick
// message reaches Update
func (s *stage) After(d time.Duration, fn func()) {
	s.record(fmt.Sprintf("Waiting %s", d))
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return delayDoneMsg{fn: fn}
	}))
}

func (s *stage) NodeEntered(rec container.NodeRecord) {
	s.record(fmt.Sprintf("%s: %s", rec.Kind, displayName(rec)))
	if s.next != nil {
		s.next.NodeEntered(rec)
	}
}

func (s *stage) PlaybackFinished() {
	s.done = true
	s.record("Finished")
	if s.next != nil {
		s.next.PlaybackFinished()
	}
}

func (s *stage) PlaybackFailed(err error) {
	s.failure = err
	s.record("Failed: " + err.Error())
	if s.next != nil {
		s.next.PlaybackFailed(err)
	}
}

// reset clears everything a previous run left behind
func (s *stage) reset() {
	s.text = ""
	s.choices = nil
	s.done = false
	s.failure = nil
}

// drain returns the commands queued since the last call
func (s *stage) drain() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

func (s *stage) record(line string) {
	s.activity = append(s.activity, line)
	if len(s.activity) > maxActivity {
		s.activity = s.activity[len(s.activity)-maxActivity:]
	}
}

func displayName(rec container.NodeRecord) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.GUID
}
