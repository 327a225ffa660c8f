// Package playback replays a saved cutscene against live host objects.
//
// The Interpreter walks a container from its entry link. Dialogue nodes
// wait for the host to pick a choice and Delay nodes wait for the host's
// scheduler; Camera and UnityEvent nodes run their effect and advance
// immediately. Everything runs on the caller's goroutine: callbacks handed
// to the host must be invoked from the same thread of control that called
// Start.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

// DefaultMaxAutoSteps bounds a run of automatic transitions when
// Options.MaxAutoSteps is zero
const DefaultMaxAutoSteps = 1000

var (
	ErrNodeNotFound = errors.New("node record not found")
	ErrUnknownKind  = errors.New("unknown node kind")
	ErrAutoLoop     = errors.New("too many automatic transitions")
)

// State is the interpreter's position in its lifecycle
type State int

const (
	StateIdle State = iota
	StateWaitingChoice
	StateWaitingDelay
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingChoice:
		return "waiting-choice"
	case StateWaitingDelay:
		return "waiting-delay"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Choice is one selectable dialogue option
type Choice struct {
	Label  string
	Select func()
}

// Display renders dialogue
type Display interface {
	SetText(text string)
	SetChoices(choices []Choice)
}

// Effects applies non-dialogue node effects to the host
type Effects interface {
	AimCamera(camera, focus *identity.Object, zoom float64)
}

// Scheduler runs fn after d on the host's thread of control
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Observer is notified of playback progress
type Observer interface {
	NodeEntered(rec container.NodeRecord)
	PlaybackFinished()
	PlaybackFailed(err error)
}

// Options carries the host collaborators. Display is required; the rest may
// be nil. A nil Scheduler resumes delays immediately.
type Options struct {
	Display      Display
	Effects      Effects
	Scheduler    Scheduler
	Resolver     identity.Resolver
	Binder       action.Binder
	Observer     Observer
	Logger       *slog.Logger
	MaxAutoSteps int
}

// Interpreter walks one container
type Interpreter struct {
	c    *container.Container
	opts Options
	log  *slog.Logger

	state      State
	current    string
	visited    []string
	err        error
	generation int
	actions    map[string]*action.Action
}

// New creates an idle interpreter for c
func New(c *container.Container, opts Options) *Interpreter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxAutoSteps <= 0 {
		opts.MaxAutoSteps = DefaultMaxAutoSteps
	}
	return &Interpreter{
		c:       c,
		opts:    opts,
		log:     opts.Logger.With("cutscene", c.Name),
		actions: make(map[string]*action.Action),
	}
}

// State returns the current lifecycle state
func (i *Interpreter) State() State { return i.state }

// Current returns the ID of the node being played, or "" before Start
func (i *Interpreter) Current() string { return i.current }

// Err returns the error that moved playback to StateFailed
func (i *Interpreter) Err() error { return i.err }

// Visited returns the IDs of every node entered, in order
func (i *Interpreter) Visited() []string {
	out := make([]string, len(i.visited))
	copy(out, i.visited)
	return out
}

// Start begins playback at the entry link's destination. Restarting
// discards any pending choice or delay callback from the previous run.
func (i *Interpreter) Start() error {
	i.generation++
	i.state = StateIdle
	i.current = ""
	i.visited = nil
	i.err = nil

	link, ok := i.c.EntryLink()
	if !ok {
		i.log.Info("Cutscene has no entry link, nothing to play")
		i.finish()
		return nil
	}
	return i.run(link.DestNodeID)
}

// run enters nodes until one waits on the host, the graph dead-ends or a
// failure occurs
func (i *Interpreter) run(id string) error {
	i.state = StateIdle
	for steps := 1; ; steps++ {
		if steps > i.opts.MaxAutoSteps {
			return i.fail(fmt.Errorf("%w: more than %d steps without waiting, last node %s", ErrAutoLoop, i.opts.MaxAutoSteps, id))
		}

		rec, ok := i.c.Node(id)
		if !ok {
			return i.fail(fmt.Errorf("%w: %s", ErrNodeNotFound, id))
		}
		i.current = id
		i.visited = append(i.visited, id)
		i.log.Debug("Entering node", "node_id", id, "type", rec.Kind, "name", rec.Name)
		if i.opts.Observer != nil {
			i.opts.Observer.NodeEntered(*rec)
		}

		switch rec.Kind {
		case graph.KindDialogue:
			i.showDialogue(rec)
			return nil
		case graph.KindCamera:
			i.aimCamera(rec)
		case graph.KindUnityEvent:
			i.fireEvent(rec)
		case graph.KindDelay:
			if i.scheduleDelay(rec) {
				return nil
			}
		default:
			return i.fail(fmt.Errorf("%w: %q on node %s", ErrUnknownKind, rec.Kind, id))
		}

		next, ok := i.next(id)
		if !ok {
			i.finish()
			return nil
		}
		id = next
	}
}

// resume is the entry point for host callbacks. Errors are recorded on the
// interpreter and reported to the observer.
func (i *Interpreter) resume(id string) {
	_ = i.run(id)
}

func (i *Interpreter) next(id string) (string, bool) {
	links := i.c.LinksFrom(id)
	if len(links) == 0 {
		return "", false
	}
	return links[0].DestNodeID, true
}

func (i *Interpreter) showDialogue(rec *container.NodeRecord) {
	i.generation++
	gen := i.generation

	i.opts.Display.SetText(Substitute(rec.DialogueText, i.c.ExposedProperties))

	links := i.c.LinksFrom(rec.GUID)
	choices := make([]Choice, 0, len(links))
	for _, l := range links {
		label := l.SourcePortLabel
		if l.SourcePortIndex >= 0 && l.SourcePortIndex < len(rec.Choices) {
			label = rec.Choices[l.SourcePortIndex]
		}
		dest := l.DestNodeID
		choices = append(choices, Choice{
			Label: Substitute(label, i.c.ExposedProperties),
			Select: func() {
				if gen != i.generation || i.state != StateWaitingChoice {
					i.log.Debug("Ignoring stale choice", "label", label)
					return
				}
				i.generation++
				i.resume(dest)
			},
		})
	}
	i.opts.Display.SetChoices(choices)

	if len(choices) == 0 {
		i.finish()
		return
	}
	i.state = StateWaitingChoice
}

func (i *Interpreter) aimCamera(rec *container.NodeRecord) {
	camera := i.resolve(rec.CameraGUID)
	focus := i.resolve(rec.FocusGUID)
	if camera == nil || focus == nil {
		i.log.Warn("Camera node is missing its camera or focus, skipping",
			"node_id", rec.GUID,
			"camera_guid", rec.CameraGUID,
			"focus_guid", rec.FocusGUID)
		return
	}
	if i.opts.Effects != nil {
		i.opts.Effects.AimCamera(camera, focus, rec.ZoomLevel)
	}
}

func (i *Interpreter) resolve(id string) *identity.Object {
	if id == "" || i.opts.Resolver == nil {
		return nil
	}
	obj, _ := i.opts.Resolver.Resolve(id)
	return obj
}

func (i *Interpreter) fireEvent(rec *container.NodeRecord) {
	a, ok := i.actions[rec.GUID]
	if !ok {
		a = action.Rebuild(rec.Listeners, i.opts.Resolver, i.opts.Binder, i.log)
		i.actions[rec.GUID] = a
	}
	if err := a.Invoke(); err != nil {
		i.log.Error("Event listener failed", "node_id", rec.GUID, "event", rec.EventName, "error", err)
	}
}

// scheduleDelay reports whether playback is now suspended
func (i *Interpreter) scheduleDelay(rec *container.NodeRecord) bool {
	d := rec.Delay()
	if i.opts.Scheduler == nil {
		i.log.Debug("No scheduler, skipping delay", "node_id", rec.GUID, "delay", d)
		return false
	}

	i.generation++
	gen := i.generation
	from := rec.GUID
	i.state = StateWaitingDelay
	i.opts.Scheduler.After(d, func() {
		if gen != i.generation || i.state != StateWaitingDelay {
			i.log.Debug("Ignoring stale delay", "node_id", from)
			return
		}
		i.generation++
		i.state = StateIdle
		next, ok := i.next(from)
		if !ok {
			i.finish()
			return
		}
		i.resume(next)
	})
	return true
}

func (i *Interpreter) finish() {
	i.state = StateFinished
	i.log.Info("Playback finished", "last_node", i.current, "visited", len(i.visited))
	if i.opts.Observer != nil {
		i.opts.Observer.PlaybackFinished()
	}
}

func (i *Interpreter) fail(err error) error {
	i.state = StateFailed
	i.err = err
	i.log.Error("Playback failed", "node_id", i.current, "error", err)
	if i.opts.Observer != nil {
		i.opts.Observer.PlaybackFailed(err)
	}
	return err
}

// Substitute replaces every [name] placeholder with the value of the
// exposed property of that name in a single pass. Placeholders without a
// matching property are left as written.
func Substitute(text string, props []graph.ExposedProperty) string {
	if len(props) == 0 || !strings.Contains(text, "[") {
		return text
	}
	pairs := make([]string, 0, 2*len(props))
	for _, p := range props {
		pairs = append(pairs, "["+p.Name+"]", p.Value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
