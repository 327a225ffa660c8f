package container

import (
	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
)

// Migrate upgrades a legacy container in place and returns a description of
// each change applied. Containers already at CurrentVersion are untouched.
//
// Legacy containers have no entry marker (the first link's source is the
// entry), no port ordinals on links (a dialogue's links map to its choices
// in list order), no choice list on dialogue records, and listeners stored
// as parallel GUID and method lists.
func Migrate(c *Container) []string {
	if c.Version >= CurrentVersion {
		return nil
	}
	var notes []string

	if c.EntryNodeID == "" && len(c.Links) > 0 {
		c.EntryNodeID = c.Links[0].SourceNodeID
		notes = append(notes, "entry node taken from first link")
	}

	ordinals := make(map[string]int)
	labels := make(map[string][]string)
	for i := range c.Links {
		l := &c.Links[i]
		l.SourcePortIndex = ordinals[l.SourceNodeID]
		ordinals[l.SourceNodeID]++
		labels[l.SourceNodeID] = append(labels[l.SourceNodeID], l.SourcePortLabel)
	}
	if len(c.Links) > 0 {
		notes = append(notes, "link port ordinals derived from link order")
	}

	for i := range c.Nodes {
		n := &c.Nodes[i]
		if n.Kind == graph.KindDialogue && n.Choices == nil && len(labels[n.GUID]) > 0 {
			n.Choices = labels[n.GUID]
			notes = append(notes, "dialogue choices rebuilt from links for "+n.GUID)
		}
		if len(n.LegacyListenerGUIDs) > 0 || len(n.LegacyListenerMethods) > 0 {
			if len(n.Listeners) == 0 {
				n.Listeners = zipListeners(n.LegacyListenerGUIDs, n.LegacyListenerMethods)
			}
			n.LegacyListenerGUIDs = nil
			n.LegacyListenerMethods = nil
			notes = append(notes, "listeners converted from guid/method lists for "+n.GUID)
		}
	}

	if c.Links == nil {
		c.Links = []LinkRecord{}
	}
	if c.Nodes == nil {
		c.Nodes = []NodeRecord{}
	}
	if c.ExposedProperties == nil {
		c.ExposedProperties = []graph.ExposedProperty{}
	}
	c.Version = CurrentVersion
	return notes
}

// zipListeners pairs the legacy lists; a method without a matching GUID is
// kept with an empty target so the loss is visible when rebinding.
func zipListeners(guids, methods []string) []action.Listener {
	n := len(methods)
	if len(guids) > n {
		n = len(guids)
	}
	out := make([]action.Listener, 0, n)
	for i := 0; i < n; i++ {
		var l action.Listener
		if i < len(guids) {
			l.TargetID = guids[i]
		}
		if i < len(methods) {
			l.Method = methods[i]
		}
		out = append(out, l)
	}
	return out
}
