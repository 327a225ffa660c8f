package graph

import (
	"time"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

// Kind is the closed set of node kinds
type Kind string

const (
	KindDialogue   Kind = "Dialogue"
	KindCamera     Kind = "Camera"
	KindUnityEvent Kind = "UnityEvent"
	KindDelay      Kind = "Delay"
)

// Kinds lists every node kind in declaration order
var Kinds = []Kind{KindDialogue, KindCamera, KindUnityEvent, KindDelay}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindDialogue, KindCamera, KindUnityEvent, KindDelay:
		return true
	}
	return false
}

const (
	EntryNodeName   = "Start"
	EntryPortLabel  = "Next"
	InputPortLabel  = "Input"
	OutputPortLabel = "Next"
)

// Vec2 is a canvas position. It is cosmetic and never affects playback.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Direction of a port
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Capacity of a port
type Capacity int

const (
	Single Capacity = iota
	Multi
)

// Port is a connection point on a node
type Port struct {
	ID        string
	Label     string
	Direction Direction
	Capacity  Capacity
	NodeID    string
}

// Edge is a directed connection from an output port to an input port
type Edge struct {
	ID         string
	FromNodeID string
	FromPortID string
	ToNodeID   string
	ToPortID   string
}

// Node is a unit of cutscene logic. Only the payload fields matching Kind
// are meaningful.
type Node struct {
	ID       string
	Name     string
	Kind     Kind
	Position Vec2
	Entry    bool

	Inputs  []*Port
	Outputs []*Port

	// Dialogue
	Text string

	// Camera
	Camera *identity.Object
	Focus  *identity.Object
	Zoom   float64

	// UnityEvent
	EventName string
	Event     *action.Action

	// Delay
	Delay time.Duration
}

// Port returns the port with the given ID
func (n *Node) Port(portID string) (*Port, bool) {
	for _, p := range n.Inputs {
		if p.ID == portID {
			return p, true
		}
	}
	for _, p := range n.Outputs {
		if p.ID == portID {
			return p, true
		}
	}
	return nil, false
}

// OutputIndex returns the ordinal of an output port, or -1
func (n *Node) OutputIndex(portID string) int {
	for i, p := range n.Outputs {
		if p.ID == portID {
			return i
		}
	}
	return -1
}

// Choices returns the labels of the node's output ports in order
func (n *Node) Choices() []string {
	labels := make([]string, len(n.Outputs))
	for i, p := range n.Outputs {
		labels[i] = p.Label
	}
	return labels
}
