// Package graph holds the in-memory cutscene graph edited by the authoring
// surface: typed nodes, their ports, the edges between them and the exposed
// properties substituted into dialogue at playback.
//
// The graph is owned by a single editing session and is not safe for
// concurrent use. Referencing a node or port that does not exist, and
// connecting a node to itself, are programmer errors and panic.
package graph

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
)

// ErrEntryNode is returned when an operation would delete the entry node
var ErrEntryNode = errors.New("the entry node cannot be deleted")

// Graph is the live cutscene graph
type Graph struct {
	nodes      []*Node
	edges      []*Edge
	properties []ExposedProperty
	entry      *Node
}

// New creates a graph containing only the entry node
func New() *Graph {
	g := &Graph{}
	entry := &Node{
		ID:       uuid.NewString(),
		Name:     EntryNodeName,
		Entry:    true,
		Position: Vec2{X: 100, Y: 200},
	}
	entry.Outputs = []*Port{newPort(entry.ID, EntryPortLabel, Output, Single)}
	g.entry = entry
	g.nodes = []*Node{entry}
	return g
}

func newPort(nodeID, label string, dir Direction, capacity Capacity) *Port {
	return &Port{
		ID:        uuid.NewString(),
		Label:     label,
		Direction: dir,
		Capacity:  capacity,
		NodeID:    nodeID,
	}
}

// Entry returns the entry node
func (g *Graph) Entry() *Node {
	return g.entry
}

// Nodes returns every node, entry first, in creation order
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns every edge in creation order
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Node returns the node with the given ID
func (g *Graph) Node(id string) (*Node, bool) {
	for _, n := range g.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

func (g *Graph) mustNode(id string) *Node {
	n, ok := g.Node(id)
	if !ok {
		panic(fmt.Sprintf("graph: node %q does not exist", id))
	}
	return n
}

func (g *Graph) mustPort(n *Node, portID string) *Port {
	p, ok := n.Port(portID)
	if !ok {
		panic(fmt.Sprintf("graph: port %q does not exist on node %q", portID, n.ID))
	}
	return p
}

// CreateNode registers a new node of the given kind and returns its ID.
// Dialogue nodes start with an input port only; every other kind gets one
// input and one output port.
func (g *Graph) CreateNode(kind Kind, name string, pos Vec2) string {
	return g.createNode(uuid.NewString(), kind, name, pos)
}

// CreateNodeWithID is CreateNode with a caller-chosen ID, used when a
// saved graph is restored
func (g *Graph) CreateNodeWithID(id string, kind Kind, name string, pos Vec2) string {
	return g.createNode(id, kind, name, pos)
}

func (g *Graph) createNode(id string, kind Kind, name string, pos Vec2) string {
	if !kind.Valid() {
		panic(fmt.Sprintf("graph: unknown node kind %q", kind))
	}
	if _, taken := g.Node(id); taken || id == "" {
		panic(fmt.Sprintf("graph: node id %q is empty or already in use", id))
	}
	n := &Node{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Position: pos,
	}
	n.Inputs = []*Port{newPort(n.ID, InputPortLabel, Input, Multi)}

	switch kind {
	case KindDialogue:
		n.Text = name
	case KindCamera:
		n.Zoom = 1
		n.Outputs = []*Port{newPort(n.ID, OutputPortLabel, Output, Single)}
	case KindUnityEvent:
		n.Event = action.New()
		n.Outputs = []*Port{newPort(n.ID, OutputPortLabel, Output, Single)}
	case KindDelay:
		n.Outputs = []*Port{newPort(n.ID, OutputPortLabel, Output, Single)}
	}

	g.nodes = append(g.nodes, n)
	return n.ID
}

// AddChoicePort appends a choice output to a dialogue node. A blank label
// becomes "Choice {n+1}" where n is the current number of choices; such
// labels are not guaranteed to be unique.
func (g *Graph) AddChoicePort(nodeID, label string) string {
	n := g.mustNode(nodeID)
	if n.Kind != KindDialogue {
		panic(fmt.Sprintf("graph: node %q is %s, only dialogue nodes take choices", nodeID, n.Kind))
	}
	if label == "" {
		label = fmt.Sprintf("Choice %d", len(n.Outputs)+1)
	}
	p := newPort(n.ID, label, Output, Single)
	n.Outputs = append(n.Outputs, p)
	return p.ID
}

// SetPortLabel renames a port
func (g *Graph) SetPortLabel(nodeID, portID, label string) {
	p := g.mustPort(g.mustNode(nodeID), portID)
	p.Label = label
}

// RemovePort deletes every edge touching the port, then the port
func (g *Graph) RemovePort(nodeID, portID string) {
	n := g.mustNode(nodeID)
	g.mustPort(n, portID)
	g.removeEdgesWhere(func(e *Edge) bool {
		return e.FromPortID == portID || e.ToPortID == portID
	})
	n.Inputs = removePort(n.Inputs, portID)
	n.Outputs = removePort(n.Outputs, portID)
}

func removePort(ports []*Port, id string) []*Port {
	out := ports[:0]
	for _, p := range ports {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// RemoveNode deletes a node and its edges
func (g *Graph) RemoveNode(nodeID string) error {
	n := g.mustNode(nodeID)
	if n.Entry {
		return ErrEntryNode
	}
	g.removeEdgesWhere(func(e *Edge) bool {
		return e.FromNodeID == nodeID || e.ToNodeID == nodeID
	})
	for i, node := range g.nodes {
		if node == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every node except the entry, and every edge
func (g *Graph) Clear() {
	g.edges = nil
	g.nodes = []*Node{g.entry}
}

// SetEntryID reassigns the entry node's ID, reattaching its edges
func (g *Graph) SetEntryID(id string) {
	g.SetNodeID(g.entry.ID, id)
}

// SetNodeID changes a node's ID and rewrites every reference to it
func (g *Graph) SetNodeID(oldID, newID string) {
	n := g.mustNode(oldID)
	if oldID == newID {
		return
	}
	if _, taken := g.Node(newID); taken {
		panic(fmt.Sprintf("graph: node %q already exists", newID))
	}
	n.ID = newID
	for _, p := range n.Inputs {
		p.NodeID = newID
	}
	for _, p := range n.Outputs {
		p.NodeID = newID
	}
	for _, e := range g.edges {
		if e.FromNodeID == oldID {
			e.FromNodeID = newID
		}
		if e.ToNodeID == oldID {
			e.ToNodeID = newID
		}
	}
}

// Connect links an output port to an input port on another node and
// returns the edge ID. An output already connected loses its old edge.
func (g *Graph) Connect(fromNodeID, fromPortID, toNodeID, toPortID string) string {
	from := g.mustNode(fromNodeID)
	to := g.mustNode(toNodeID)
	if from == to {
		panic(fmt.Sprintf("graph: cannot connect node %q to itself", fromNodeID))
	}
	out := g.mustPort(from, fromPortID)
	in := g.mustPort(to, toPortID)
	if out.Direction != Output || in.Direction != Input {
		panic(fmt.Sprintf("graph: edge must run from an output to an input (got %s -> %s)", out.Direction, in.Direction))
	}

	if out.Capacity == Single {
		g.removeEdgesWhere(func(e *Edge) bool { return e.FromPortID == out.ID })
	}
	if in.Capacity == Single {
		g.removeEdgesWhere(func(e *Edge) bool { return e.ToPortID == in.ID })
	}

	e := &Edge{
		ID:         uuid.NewString(),
		FromNodeID: from.ID,
		FromPortID: out.ID,
		ToNodeID:   to.ID,
		ToPortID:   in.ID,
	}
	g.edges = append(g.edges, e)
	return e.ID
}

// Disconnect removes an edge. Unknown IDs are ignored.
func (g *Graph) Disconnect(edgeID string) {
	g.removeEdgesWhere(func(e *Edge) bool { return e.ID == edgeID })
}

// EdgesFrom returns the edges leaving a node
func (g *Graph) EdgesFrom(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.FromNodeID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns the edges entering a node
func (g *Graph) EdgesTo(nodeID string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.ToNodeID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// EdgeFromPort returns the edge leaving an output port, if any
func (g *Graph) EdgeFromPort(portID string) (*Edge, bool) {
	for _, e := range g.edges {
		if e.FromPortID == portID {
			return e, true
		}
	}
	return nil, false
}

// CompatiblePorts returns every port a connection from the given port may
// end on: ports of the opposite direction on any other node.
func (g *Graph) CompatiblePorts(nodeID, portID string) []*Port {
	start := g.mustPort(g.mustNode(nodeID), portID)
	var out []*Port
	for _, n := range g.nodes {
		if n.ID == nodeID {
			continue
		}
		ports := n.Inputs
		if start.Direction == Input {
			ports = n.Outputs
		}
		out = append(out, ports...)
	}
	return out
}

func (g *Graph) removeEdgesWhere(match func(*Edge) bool) {
	out := g.edges[:0]
	for _, e := range g.edges {
		if !match(e) {
			out = append(out, e)
		}
	}
	for i := len(out); i < len(g.edges); i++ {
		g.edges[i] = nil
	}
	g.edges = out
}

// Payload setters panic on an unknown node; the kind-specific ones also
// panic on a node of another kind.

// SetName renames a node
func (g *Graph) SetName(nodeID, name string) {
	g.mustNode(nodeID).Name = name
}

// SetPosition moves a node on the canvas
func (g *Graph) SetPosition(nodeID string, pos Vec2) {
	g.mustNode(nodeID).Position = pos
}

// SetDialogueText replaces a dialogue node's text body
func (g *Graph) SetDialogueText(nodeID, text string) {
	n := g.mustKind(nodeID, KindDialogue)
	n.Text = text
}

// SetCamera sets the camera, focus and zoom of a camera node. Either
// object may be nil.
func (g *Graph) SetCamera(nodeID string, camera, focus *identity.Object, zoom float64) {
	n := g.mustKind(nodeID, KindCamera)
	n.Camera = camera
	n.Focus = focus
	n.Zoom = zoom
}

// SetEvent sets an event node's name and action; a nil action is replaced
// by an empty one
func (g *Graph) SetEvent(nodeID, eventName string, a *action.Action) {
	n := g.mustKind(nodeID, KindUnityEvent)
	if a == nil {
		a = action.New()
	}
	n.EventName = eventName
	n.Event = a
}

// SetDelay sets a delay node's duration
func (g *Graph) SetDelay(nodeID string, d time.Duration) {
	n := g.mustKind(nodeID, KindDelay)
	n.Delay = d
}

func (g *Graph) mustKind(nodeID string, kind Kind) *Node {
	n := g.mustNode(nodeID)
	if n.Kind != kind {
		panic(fmt.Sprintf("graph: node %q is %s, not %s", nodeID, n.Kind, kind))
	}
	return n
}
