package container

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/cutscene-engine/pkg/graph"
)

// ErrInvalid wraps every structural problem reported by Validate
var ErrInvalid = errors.New("invalid container")

// Problems lists structural defects that would prevent a faithful load.
// An empty result means the container is consistent.
func (c *Container) Problems() []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Version > CurrentVersion {
		add("unsupported version %d", c.Version)
	}
	if c.EntryNodeID == "" && len(c.Links) > 0 {
		add("entry_node_id is required when links are present")
	}

	nodes := make(map[string]*NodeRecord, len(c.Nodes))
	for i := range c.Nodes {
		n := &c.Nodes[i]
		switch {
		case n.GUID == "":
			add("node %d (%q) has no guid", i, n.Name)
			continue
		case n.GUID == c.EntryNodeID:
			add("node %s reuses the entry node id", n.GUID)
		case nodes[n.GUID] != nil:
			add("duplicate node guid %s", n.GUID)
		}
		nodes[n.GUID] = n

		if !n.Kind.Valid() {
			add("node %s has unknown type %q", n.GUID, n.Kind)
		}
		if n.Kind == graph.KindDelay && n.DelaySeconds < 0 {
			add("delay node %s has negative duration", n.GUID)
		}
		if n.Kind == graph.KindCamera && n.ZoomLevel < 0 {
			add("camera node %s has negative zoom", n.GUID)
		}
		for j, l := range n.Listeners {
			if l.Method == "" {
				add("listener %d on node %s has no method", j, n.GUID)
			}
			if !l.Shape.Valid() {
				add("listener %d on node %s has unknown parameter shape %q", j, n.GUID, l.Shape)
			}
		}
	}

	type portKey struct {
		node  string
		index int
	}
	seen := make(map[portKey]bool)
	for i, l := range c.Links {
		ports := 0
		if l.SourceNodeID == c.EntryNodeID && c.EntryNodeID != "" {
			ports = 1
		} else if src, ok := nodes[l.SourceNodeID]; ok {
			ports = outputCount(src)
		} else {
			add("link %d has unknown source node %s", i, l.SourceNodeID)
			continue
		}

		if l.SourcePortIndex < 0 || l.SourcePortIndex >= ports {
			add("link %d source port %d out of range for node %s", i, l.SourcePortIndex, l.SourceNodeID)
		}
		key := portKey{l.SourceNodeID, l.SourcePortIndex}
		if seen[key] {
			add("link %d duplicates output port %d of node %s", i, l.SourcePortIndex, l.SourceNodeID)
		}
		seen[key] = true

		if _, ok := nodes[l.DestNodeID]; !ok {
			add("link %d has unknown destination node %s", i, l.DestNodeID)
		}
	}

	names := make(map[string]bool, len(c.ExposedProperties))
	for _, p := range c.ExposedProperties {
		if strings.TrimSpace(p.Name) == "" {
			add("exposed property with empty name")
			continue
		}
		if names[p.Name] {
			add("duplicate exposed property %q", p.Name)
		}
		names[p.Name] = true
	}

	return problems
}

// Validate returns ErrInvalid describing every problem, or nil
func (c *Container) Validate() error {
	problems := c.Problems()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func outputCount(n *NodeRecord) int {
	switch n.Kind {
	case graph.KindDialogue:
		return len(n.Choices)
	case graph.KindCamera, graph.KindUnityEvent, graph.KindDelay:
		return 1
	default:
		return 0
	}
}
