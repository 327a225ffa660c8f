package playback

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
	"github.com/jwebster45206/cutscene-engine/pkg/persistence"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type fakeDisplay struct {
	texts   []string
	choices []Choice
}

func (d *fakeDisplay) SetText(text string)         { d.texts = append(d.texts, text) }
func (d *fakeDisplay) SetChoices(choices []Choice) { d.choices = choices }

func (d *fakeDisplay) labels() []string {
	out := make([]string, len(d.choices))
	for i, c := range d.choices {
		out[i] = c.Label
	}
	return out
}

type aim struct {
	camera, focus string
	zoom          float64
}

type fakeEffects struct{ aims []aim }

func (e *fakeEffects) AimCamera(camera, focus *identity.Object, zoom float64) {
	e.aims = append(e.aims, aim{camera.Name, focus.Name, zoom})
}

type pending struct {
	d  time.Duration
	fn func()
}

type manualScheduler struct{ queue []pending }

func (s *manualScheduler) After(d time.Duration, fn func()) {
	s.queue = append(s.queue, pending{d, fn})
}

func (s *manualScheduler) fire() {
	p := s.queue[0]
	s.queue = s.queue[1:]
	p.fn()
}

type recordingObserver struct {
	entered  []string
	finished int
	failed   []error
}

func (o *recordingObserver) NodeEntered(rec container.NodeRecord) { o.entered = append(o.entered, rec.GUID) }
func (o *recordingObserver) PlaybackFinished()                    { o.finished++ }
func (o *recordingObserver) PlaybackFailed(err error)             { o.failed = append(o.failed, err) }

type harness struct {
	display   *fakeDisplay
	effects   *fakeEffects
	scheduler *manualScheduler
	observer  *recordingObserver
	scene     *identity.Scene
	table     *action.MethodTable
}

func newHarness() *harness {
	return &harness{
		display:   &fakeDisplay{},
		effects:   &fakeEffects{},
		scheduler: &manualScheduler{},
		observer:  &recordingObserver{},
		scene:     identity.NewScene(testLogger()),
		table:     action.NewMethodTable(),
	}
}

func (h *harness) interpreter(c *container.Container) *Interpreter {
	return New(c, Options{
		Display:   h.display,
		Effects:   h.effects,
		Scheduler: h.scheduler,
		Resolver:  h.scene,
		Binder:    h.table,
		Observer:  h.observer,
		Logger:    testLogger(),
	})
}

func link(from string, index int, label, to string) container.LinkRecord {
	return container.LinkRecord{SourceNodeID: from, SourcePortIndex: index, SourcePortLabel: label, DestNodeID: to}
}

func TestPlayback_DialogueWithSubstitution(t *testing.T) {
	g := graph.New()
	d := g.CreateNode(graph.KindDialogue, "Greet", graph.Vec2{})
	g.SetDialogueText(d, "Hello [Player]")
	g.AddChoicePort(d, "Yes")
	g.AddChoicePort(d, "No")
	yes := g.CreateNode(graph.KindDelay, "AfterYes", graph.Vec2{})
	no := g.CreateNode(graph.KindDelay, "AfterNo", graph.Vec2{})
	node, _ := g.Node(d)
	entry := g.Entry()
	yesNode, _ := g.Node(yes)
	noNode, _ := g.Node(no)
	g.Connect(entry.ID, entry.Outputs[0].ID, d, node.Inputs[0].ID)
	g.Connect(d, node.Outputs[0].ID, yes, yesNode.Inputs[0].ID)
	g.Connect(d, node.Outputs[1].ID, no, noNode.Inputs[0].ID)
	g.AddExposedProperty("Player", "Alex")

	svc := persistence.NewService(storage.NewMockStorage(), identity.NewScene(testLogger()), nil, testLogger())
	c, ok := svc.Flatten(g, "greeting")
	require.True(t, ok)

	h := newHarness()
	p := h.interpreter(c)
	require.NoError(t, p.Start())

	assert.Equal(t, []string{"Hello Alex"}, h.display.texts)
	assert.Equal(t, []string{"Yes", "No"}, h.display.labels())
	assert.Equal(t, StateWaitingChoice, p.State())
	assert.Equal(t, d, p.Current())

	h.display.choices[1].Select()
	assert.Equal(t, no, p.Current())
	assert.Equal(t, StateWaitingDelay, p.State())
}

func TestPlayback_CameraAndEventAutoAdvance(t *testing.T) {
	h := newHarness()
	cam := identity.NewObject("MainCamera", identity.KindCamera)
	hero := identity.NewObject("Hero", identity.KindObject)
	door := identity.NewObject("Door", identity.KindObject)
	h.scene.Add(cam, hero, door)

	var opened []string
	h.table.Register(door, "Open", action.ShapeString, func(arg any) error {
		opened = append(opened, arg.(string))
		return nil
	})
	h.table.Register(door, "Creak", action.ShapeNone, func(any) error {
		return errors.New("hinge stuck")
	})

	c := container.New("auto")
	c.EntryNodeID = "entry"
	c.Nodes = []container.NodeRecord{
		{Kind: graph.KindCamera, GUID: "c1", CameraGUID: cam.ID(), FocusGUID: hero.ID(), ZoomLevel: 3},
		{Kind: graph.KindUnityEvent, GUID: "e1", EventName: "open", Listeners: []action.Listener{
			{TargetID: door.ID(), Method: "Creak"},
			{TargetID: door.ID(), Method: "Open", Shape: action.ShapeString, Argument: "slowly"},
		}},
	}
	c.Links = []container.LinkRecord{link("entry", 0, "Next", "c1"), link("c1", 0, "Next", "e1")}

	p := h.interpreter(c)
	require.NoError(t, p.Start())

	assert.Equal(t, []aim{{"MainCamera", "Hero", 3}}, h.effects.aims)
	assert.Equal(t, []string{"slowly"}, opened)
	assert.Equal(t, StateFinished, p.State())
	assert.Equal(t, []string{"c1", "e1"}, p.Visited())
	assert.Equal(t, []string{"c1", "e1"}, h.observer.entered)
	assert.Equal(t, 1, h.observer.finished)
}

func TestPlayback_MissingFocusStillAdvances(t *testing.T) {
	h := newHarness()
	cam := identity.NewObject("MainCamera", identity.KindCamera)
	h.scene.Add(cam)

	c := container.New("focus")
	c.EntryNodeID = "entry"
	c.Nodes = []container.NodeRecord{
		{Kind: graph.KindCamera, GUID: "c1", CameraGUID: cam.ID(), FocusGUID: "deleted-object"},
		{Kind: graph.KindDialogue, GUID: "d1", DialogueText: "After the pan"},
	}
	c.Links = []container.LinkRecord{link("entry", 0, "Next", "c1"), link("c1", 0, "Next", "d1")}

	p := h.interpreter(c)
	require.NoError(t, p.Start())

	assert.Empty(t, h.effects.aims)
	assert.Equal(t, []string{"After the pan"}, h.display.texts)
	assert.Equal(t, StateFinished, p.State())
}

func TestPlayback_DelayWaitsForScheduler(t *testing.T) {
	h := newHarness()
	c := container.New("delay")
	c.EntryNodeID = "entry"
	c.Nodes = []container.NodeRecord{
		{Kind: graph.KindDelay, GUID: "w1", DelaySeconds: (1001 * time.Millisecond).Seconds()},
		{Kind: graph.KindDialogue, GUID: "d1", DialogueText: "Later", Choices: []string{"Ok"}},
		{Kind: graph.KindDelay, GUID: "w2"},
	}
	c.Links = []container.LinkRecord{
		link("entry", 0, "Next", "w1"),
		link("w1", 0, "Next", "d1"),
		link("d1", 0, "Ok", "w2"),
	}

	p := h.interpreter(c)
	require.NoError(t, p.Start())

	assert.Equal(t, StateWaitingDelay, p.State())
	require.Len(t, h.scheduler.queue, 1)
	assert.Equal(t, 1001*time.Millisecond, h.scheduler.queue[0].d)
	assert.Empty(t, h.display.texts)

	h.scheduler.fire()
	assert.Equal(t, []string{"Later"}, h.display.texts)
	assert.Equal(t, StateWaitingChoice, p.State())

	h.display.choices[0].Select()
	require.Len(t, h.scheduler.queue, 1)
	h.scheduler.fire()
	assert.Equal(t, StateFinished, p.State())
	assert.Equal(t, []string{"w1", "d1", "w2"}, p.Visited())
}

func TestPlayback_NilSchedulerSkipsDelay(t *testing.T) {
	h := newHarness()
	c := container.New("delay")
	c.EntryNodeID = "entry"
	c.Nodes = []container.NodeRecord{{Kind: graph.KindDelay, GUID: "w1", DelaySeconds: 10}}
	c.Links = []container.LinkRecord{link("entry", 0, "Next", "w1")}

	p := New(c, Options{Display: h.display, Logger: testLogger()})
	require.NoError(t, p.Start())
	assert.Equal(t, StateFinished, p.State())
}

func TestPlayback_StaleCallbacksIgnored(t *testing.T) {
	h := newHarness()
	c := container.New("stale")
	c.EntryNodeID = "entry"
	c.Nodes = []container.NodeRecord{
		{Kind: graph.KindDialogue, GUID: "d1", DialogueText: "First", Choices: []string{"Go"}},
		{Kind: graph.KindDialogue, GUID: "d2", DialogueText: "Second", Choices: []string{"Back"}},
	}
	c.Links = []container.LinkRecord{
		link("entry", 0, "Next", "d1"),
		link("d1", 0, "Go", "d2"),
		link("d2", 0, "Back", "d1"),
	}

	p := h.interpreter(c)
	require.NoError(t, p.Start())
	first := h.display.choices[0]

	first.Select()
	assert.Equal(t, "d2", p.Current())

	// A second click on the old choice must not advance again
	first.Select()
	assert.Equal(t, "d2", p.Current())
	assert.Equal(t, []string{"First", "Second"}, h.display.texts)

	// Restarting invalidates the pending choice of the previous run
	second := h.display.choices[0]
	require.NoError(t, p.Start())
	second.Select()
	assert.Equal(t, "d1", p.Current())
	assert.Equal(t, []string{"d1"}, p.Visited())
}

func TestPlayback_Failures(t *testing.T) {
	tests := []struct {
		name  string
		nodes []container.NodeRecord
		links []container.LinkRecord
		want  error
	}{
		{
			name:  "missing node",
			links: []container.LinkRecord{link("entry", 0, "Next", "ghost")},
			want:  ErrNodeNotFound,
		},
		{
			name:  "unknown kind",
			nodes: []container.NodeRecord{{Kind: "Shout", GUID: "x"}},
			links: []container.LinkRecord{link("entry", 0, "Next", "x")},
			want:  ErrUnknownKind,
		},
		{
			name: "automatic loop",
			nodes: []container.NodeRecord{
				{Kind: graph.KindUnityEvent, GUID: "a"},
				{Kind: graph.KindUnityEvent, GUID: "b"},
			},
			links: []container.LinkRecord{
				link("entry", 0, "Next", "a"),
				link("a", 0, "Next", "b"),
				link("b", 0, "Next", "a"),
			},
			want: ErrAutoLoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			c := container.New("bad")
			c.EntryNodeID = "entry"
			c.Nodes = tt.nodes
			c.Links = tt.links

			p := New(c, Options{Display: h.display, Observer: h.observer, Logger: testLogger(), MaxAutoSteps: 10})
			err := p.Start()
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, p.Err(), tt.want)
			assert.Equal(t, StateFailed, p.State())
			require.Len(t, h.observer.failed, 1)
		})
	}
}

func TestPlayback_NoEntryLinkFinishes(t *testing.T) {
	h := newHarness()
	p := h.interpreter(container.New("empty"))
	require.NoError(t, p.Start())
	assert.Equal(t, StateFinished, p.State())
	assert.Empty(t, p.Visited())
}

func TestSubstitute(t *testing.T) {
	props := []graph.ExposedProperty{
		{Name: "Player", Value: "Alex"},
		{Name: "Town", Value: "[Player]ville"},
	}

	tests := []struct {
		in, want string
	}{
		{"Hello [Player]", "Hello Alex"},
		{"[Player] meets [Player]", "Alex meets Alex"},
		{"Welcome to [Town]", "Welcome to [Player]ville"},
		{"Who is [Nobody]?", "Who is [Nobody]?"},
		{"no placeholders", "no placeholders"},
		{"[Player", "[Player"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Substitute(tt.in, props), tt.in)
	}

	once := Substitute("Hello [Player] from [Nobody]", props[:1])
	assert.Equal(t, once, Substitute(once, props[:1]))
	assert.Equal(t, "Hi [Player]", Substitute("Hi [Player]", nil))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "waiting-choice", StateWaitingChoice.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
}
