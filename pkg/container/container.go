package container

import (
	"math"
	"sort"
	"time"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
)

// CurrentVersion is the container shape written by this package. Older
// versions are migrated once when decoded.
const CurrentVersion = 2

// Container is one saved cutscene
type Container struct {
	Version           int                     `json:"version" yaml:"version"`
	Name              string                  `json:"name" yaml:"name"`
	EntryNodeID       string                  `json:"entry_node_id,omitempty" yaml:"entry_node_id,omitempty"`
	Links             []LinkRecord            `json:"links" yaml:"links"`
	Nodes             []NodeRecord            `json:"nodes" yaml:"nodes"`
	ExposedProperties []graph.ExposedProperty `json:"exposed_properties" yaml:"exposed_properties"`
}

// LinkRecord is one saved edge. SourcePortIndex is the ordinal of the
// source node's output port; SourcePortLabel is kept for display and for
// matching legacy links.
type LinkRecord struct {
	SourceNodeID    string `json:"source_node_id" yaml:"source_node_id"`
	SourcePortLabel string `json:"source_port_label" yaml:"source_port_label"`
	SourcePortIndex int    `json:"source_port_index" yaml:"source_port_index"`
	DestNodeID      string `json:"dest_node_id" yaml:"dest_node_id"`
}

// NodeRecord is one saved non-entry node. Only the fields of its Kind are
// populated.
type NodeRecord struct {
	Kind     graph.Kind `json:"type" yaml:"type"`
	Name     string     `json:"node_name" yaml:"node_name"`
	GUID     string     `json:"guid" yaml:"guid"`
	Position graph.Vec2 `json:"position" yaml:"position"`

	// Dialogue
	DialogueText string   `json:"dialogue_text,omitempty" yaml:"dialogue_text,omitempty"`
	Choices      []string `json:"choices,omitempty" yaml:"choices,omitempty"`

	// Camera
	CameraGUID string  `json:"camera_guid,omitempty" yaml:"camera_guid,omitempty"`
	FocusGUID  string  `json:"focus_guid,omitempty" yaml:"focus_guid,omitempty"`
	ZoomLevel  float64 `json:"camera_zoom_level,omitempty" yaml:"camera_zoom_level,omitempty"`

	// UnityEvent
	EventName string            `json:"event_name,omitempty" yaml:"event_name,omitempty"`
	Listeners []action.Listener `json:"listeners,omitempty" yaml:"listeners,omitempty"`

	// Delay
	DelaySeconds float64 `json:"delay_seconds,omitempty" yaml:"delay_seconds,omitempty"`

	// Legacy listener shape (version < 2): parallel target and method lists
	LegacyListenerGUIDs   []string `json:"listener_guids,omitempty" yaml:"-"`
	LegacyListenerMethods []string `json:"listener_methods,omitempty" yaml:"-"`
}

// Delay returns the record's delay rounded to the nearest nanosecond, so a
// duration saved through DelaySeconds comes back unchanged
func (r *NodeRecord) Delay() time.Duration {
	return time.Duration(math.Round(r.DelaySeconds * float64(time.Second)))
}

// New returns an empty container at the current version
func New(name string) *Container {
	return &Container{
		Version:           CurrentVersion,
		Name:              name,
		Links:             []LinkRecord{},
		Nodes:             []NodeRecord{},
		ExposedProperties: []graph.ExposedProperty{},
	}
}

// Node returns the record with the given GUID
func (c *Container) Node(guid string) (*NodeRecord, bool) {
	for i := range c.Nodes {
		if c.Nodes[i].GUID == guid {
			return &c.Nodes[i], true
		}
	}
	return nil, false
}

// LinksFrom returns the links leaving a node ordered by source port
func (c *Container) LinksFrom(guid string) []LinkRecord {
	var out []LinkRecord
	for _, l := range c.Links {
		if l.SourceNodeID == guid {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SourcePortIndex < out[j].SourcePortIndex
	})
	return out
}

// EntryLink returns the link leaving the entry node
func (c *Container) EntryLink() (LinkRecord, bool) {
	for _, l := range c.Links {
		if l.SourceNodeID == c.EntryNodeID {
			return l, true
		}
	}
	return LinkRecord{}, false
}
