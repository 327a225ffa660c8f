package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
	"github.com/jwebster45206/cutscene-engine/pkg/persistence"
)

// DefaultFileName is the name offered for a new session
const DefaultFileName = "New Narrative"

// ErrInvalidName is returned by Save and Load for a blank name
var ErrInvalidName = errors.New("invalid file name")

// PaletteEntry is one creatable node kind
type PaletteEntry struct {
	Group string
	Label string
	Kind  graph.Kind
}

var palette = []PaletteEntry{
	{Group: "Dialogue", Label: "Dialogue Node", Kind: graph.KindDialogue},
	{Group: "Camera", Label: "Camera Node", Kind: graph.KindCamera},
	{Group: "Events", Label: "Unity Event Node", Kind: graph.KindUnityEvent},
	{Group: "Flow", Label: "Delay Node", Kind: graph.KindDelay},
}

// Palette lists the node kinds a session can create
func Palette() []PaletteEntry {
	out := make([]PaletteEntry, len(palette))
	copy(out, palette)
	return out
}

// Session owns one graph being edited
type Session struct {
	graph       *graph.Graph
	persistence *persistence.Service
	binder      action.Binder
	logger      *slog.Logger
	FileName    string
}

// NewSession starts a session on an empty graph. The binder is used when
// listeners are added through AddListener.
func NewSession(svc *persistence.Service, binder action.Binder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		graph:       graph.New(),
		persistence: svc,
		binder:      binder,
		logger:      logger,
		FileName:    DefaultFileName,
	}
}

// Graph returns the live graph
func (s *Session) Graph() *graph.Graph {
	return s.graph
}

// Create adds a node of any palette kind with its default payload
func (s *Session) Create(kind graph.Kind, name string, pos graph.Vec2) string {
	id := s.graph.CreateNode(kind, name, pos)
	s.logger.Debug("Node created", "node_id", id, "type", kind, "name", name)
	return id
}

// CreateDialogueNode adds a dialogue node; its text starts as its name
func (s *Session) CreateDialogueNode(name string, pos graph.Vec2) string {
	return s.Create(graph.KindDialogue, name, pos)
}

// CreateCameraNode adds a camera node aimed at focus
func (s *Session) CreateCameraNode(name string, pos graph.Vec2, camera, focus *identity.Object, zoom float64) string {
	id := s.Create(graph.KindCamera, name, pos)
	s.graph.SetCamera(id, camera, focus, zoom)
	return id
}

// CreateEventNode adds an event node with no listeners
func (s *Session) CreateEventNode(name string, pos graph.Vec2, eventName string) string {
	id := s.Create(graph.KindUnityEvent, name, pos)
	s.graph.SetEvent(id, eventName, action.New())
	return id
}

// CreateDelayNode adds a delay node waiting d
func (s *Session) CreateDelayNode(name string, pos graph.Vec2, d time.Duration) string {
	id := s.Create(graph.KindDelay, name, pos)
	s.graph.SetDelay(id, d)
	return id
}

// AddChoice appends a choice to a dialogue node; a blank label is numbered
func (s *Session) AddChoice(nodeID, label string) string {
	return s.graph.AddChoicePort(nodeID, label)
}

// RemoveChoice deletes a choice and any link leaving it
func (s *Session) RemoveChoice(nodeID, portID string) {
	s.graph.RemovePort(nodeID, portID)
}

// AddListener binds target.method on an event node
func (s *Session) AddListener(nodeID string, target *identity.Object, method string, shape action.Shape, argument string) error {
	n, ok := s.graph.Node(nodeID)
	if !ok || n.Kind != graph.KindUnityEvent {
		return fmt.Errorf("node %s is not an event node", nodeID)
	}
	if err := n.Event.AddListener(s.binder, target, method, shape, argument); err != nil {
		s.logger.Warn("Failed to add listener", "node_id", nodeID, "method", method, "error", err)
		return err
	}
	return nil
}

// Link connects an output port to the destination node's input
func (s *Session) Link(fromNodeID, fromPortID, toNodeID string) string {
	to, ok := s.graph.Node(toNodeID)
	if !ok || len(to.Inputs) == 0 {
		panic(fmt.Sprintf("editor: node %q has no input port", toNodeID))
	}
	return s.graph.Connect(fromNodeID, fromPortID, toNodeID, to.Inputs[0].ID)
}

// LinkNext connects a node's first output, the entry's "Next" included
func (s *Session) LinkNext(fromNodeID, toNodeID string) string {
	from, ok := s.graph.Node(fromNodeID)
	if !ok || len(from.Outputs) == 0 {
		panic(fmt.Sprintf("editor: node %q has no output port", fromNodeID))
	}
	return s.Link(fromNodeID, from.Outputs[0].ID, toNodeID)
}

// AddProperty adds an exposed property and returns its unique name
func (s *Session) AddProperty(name, value string) string {
	return s.graph.AddExposedProperty(name, value)
}

// RenameProperty renames an exposed property
func (s *Session) RenameProperty(oldName, newName string) error {
	return s.graph.RenameExposedProperty(oldName, newName)
}

// Save writes the graph under name
func (s *Session) Save(ctx context.Context, name string) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	if err := s.persistence.Save(ctx, s.graph, name); err != nil {
		return err
	}
	s.FileName = name
	return nil
}

// Load replaces the graph with the container stored under name
func (s *Session) Load(ctx context.Context, name string) error {
	name, err := checkName(name)
	if err != nil {
		return err
	}
	if err := s.persistence.Load(ctx, s.graph, name); err != nil {
		return err
	}
	s.FileName = name
	return nil
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: please enter a valid file name", ErrInvalidName)
	}
	return name, nil
}
