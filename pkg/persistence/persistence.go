// Package persistence converts between the live cutscene graph and its
// stored container form.
//
// Save flattens nodes to primitive records and object references to stable
// IDs. Load clears the graph and rebuilds it from a container, resolving IDs
// back to live objects and rebinding event listeners. References that no
// longer resolve are dropped with a warning; they never fail a load.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/graph"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

// Service saves and loads graphs through a Storage backend
type Service struct {
	storage  storage.Storage
	resolver identity.Resolver
	binder   action.Binder
	logger   *slog.Logger
}

// NewService creates a persistence service. The resolver maps object IDs
// to live objects; the binder rebinds event listeners on load.
func NewService(store storage.Storage, resolver identity.Resolver, binder action.Binder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage:  store,
		resolver: resolver,
		binder:   binder,
		logger:   logger,
	}
}

// Save flattens g and writes it under name. A graph without edges is not
// saved and nothing is written.
func (s *Service) Save(ctx context.Context, g *graph.Graph, name string) error {
	c, ok := s.Flatten(g, name)
	if !ok {
		s.logger.Info("Nothing to save, graph has no connections", "name", name)
		return nil
	}

	if err := s.storage.SaveContainer(ctx, name, c); err != nil {
		s.logger.Error("Failed to save cutscene", "name", name, "error", err)
		return fmt.Errorf("failed to save cutscene %q: %w", name, err)
	}

	s.logger.Info("Cutscene saved", "name", name, "nodes", len(c.Nodes), "links", len(c.Links))
	return nil
}

// Flatten builds a fresh container from g. It reports false when g has no
// edges.
func (s *Service) Flatten(g *graph.Graph, name string) (*container.Container, bool) {
	if len(g.Edges()) == 0 {
		return nil, false
	}

	c := container.New(name)
	c.EntryNodeID = g.Entry().ID

	for _, n := range g.Nodes() {
		for i, p := range n.Outputs {
			e, ok := g.EdgeFromPort(p.ID)
			if !ok {
				continue
			}
			if _, ok := g.Node(e.ToNodeID); !ok {
				continue
			}
			c.Links = append(c.Links, container.LinkRecord{
				SourceNodeID:    n.ID,
				SourcePortLabel: p.Label,
				SourcePortIndex: i,
				DestNodeID:      e.ToNodeID,
			})
		}
	}

	for _, n := range g.Nodes() {
		if n.Entry {
			continue
		}
		c.Nodes = append(c.Nodes, s.flattenNode(n))
	}

	c.ExposedProperties = append(c.ExposedProperties, g.ExposedProperties()...)
	return c, true
}

func (s *Service) flattenNode(n *graph.Node) container.NodeRecord {
	rec := container.NodeRecord{
		Kind:     n.Kind,
		Name:     n.Name,
		GUID:     n.ID,
		Position: n.Position,
	}

	switch n.Kind {
	case graph.KindDialogue:
		rec.DialogueText = n.Text
		rec.Choices = n.Choices()
	case graph.KindCamera:
		rec.CameraGUID = s.objectID(n.Camera, n.ID, "camera")
		rec.FocusGUID = s.objectID(n.Focus, n.ID, "focus")
		rec.ZoomLevel = n.Zoom
	case graph.KindUnityEvent:
		rec.EventName = n.EventName
		rec.Listeners = n.Event.Extract(s.resolver, s.logger)
	case graph.KindDelay:
		rec.DelaySeconds = n.Delay.Seconds()
	}
	return rec
}

func (s *Service) objectID(obj *identity.Object, nodeID, role string) string {
	if obj == nil || s.resolver == nil {
		return ""
	}
	id, ok := s.resolver.IDOf(obj)
	if !ok {
		s.logger.Warn("Camera reference has no stable ID, saving as empty", "node_id", nodeID, "role", role, "object", obj.Name)
		return ""
	}
	return id
}

// Load reads the container stored under name and restores it into g.
// A missing container returns an error wrapping storage.ErrNotFound and
// leaves g untouched.
func (s *Service) Load(ctx context.Context, g *graph.Graph, name string) error {
	c, err := s.storage.LoadContainer(ctx, name)
	if err != nil {
		s.logger.Error("Failed to load cutscene", "name", name, "error", err)
		return fmt.Errorf("failed to load cutscene %q: %w", name, err)
	}

	s.Restore(g, c)
	s.logger.Info("Cutscene loaded", "name", name, "nodes", len(c.Nodes), "links", len(c.Links))
	return nil
}

// Restore replaces the contents of g with c. Records that cannot be
// rebuilt are skipped with an error log.
func (s *Service) Restore(g *graph.Graph, c *container.Container) {
	for _, problem := range c.Problems() {
		s.logger.Warn("Container problem", "name", c.Name, "problem", problem)
	}

	g.Clear()
	if c.EntryNodeID != "" {
		g.SetEntryID(c.EntryNodeID)
	}

	for i := range c.Nodes {
		s.restoreNode(g, &c.Nodes[i])
	}

	for _, l := range c.Links {
		s.restoreLink(g, l)
	}

	g.ClearExposedProperties()
	for _, p := range c.ExposedProperties {
		g.AddExposedProperty(p.Name, p.Value)
	}
}

func (s *Service) restoreNode(g *graph.Graph, rec *container.NodeRecord) {
	if !rec.Kind.Valid() {
		s.logger.Error("Skipping node with unknown type", "node_id", rec.GUID, "type", rec.Kind)
		return
	}
	if rec.GUID == "" {
		s.logger.Error("Skipping node without guid", "name", rec.Name)
		return
	}
	if _, taken := g.Node(rec.GUID); taken {
		s.logger.Error("Skipping node with duplicate guid", "node_id", rec.GUID)
		return
	}

	id := g.CreateNodeWithID(rec.GUID, rec.Kind, rec.Name, rec.Position)
	switch rec.Kind {
	case graph.KindDialogue:
		g.SetDialogueText(id, rec.DialogueText)
		for _, label := range rec.Choices {
			g.AddChoicePort(id, label)
		}
	case graph.KindCamera:
		g.SetCamera(id, s.resolve(rec.CameraGUID), s.resolve(rec.FocusGUID), rec.ZoomLevel)
	case graph.KindUnityEvent:
		g.SetEvent(id, rec.EventName, action.Rebuild(rec.Listeners, s.resolver, s.binder, s.logger))
	case graph.KindDelay:
		g.SetDelay(id, rec.Delay())
	}
}

func (s *Service) resolve(id string) *identity.Object {
	if id == "" || s.resolver == nil {
		return nil
	}
	obj, _ := s.resolver.Resolve(id)
	return obj
}

// restoreLink connects by port ordinal, falling back to the first output
// with a matching label when the ordinal does not exist.
func (s *Service) restoreLink(g *graph.Graph, l container.LinkRecord) {
	src, ok := g.Node(l.SourceNodeID)
	if !ok {
		s.logger.Warn("Skipping link from unknown node", "source_node_id", l.SourceNodeID)
		return
	}
	dst, ok := g.Node(l.DestNodeID)
	if !ok || len(dst.Inputs) == 0 || dst == src {
		s.logger.Warn("Skipping link to unknown node", "dest_node_id", l.DestNodeID)
		return
	}

	var port *graph.Port
	if l.SourcePortIndex >= 0 && l.SourcePortIndex < len(src.Outputs) {
		port = src.Outputs[l.SourcePortIndex]
	} else {
		for _, p := range src.Outputs {
			if p.Label == l.SourcePortLabel {
				port = p
				break
			}
		}
	}
	if port == nil {
		s.logger.Warn("Skipping link from missing port",
			"source_node_id", l.SourceNodeID,
			"port_index", l.SourcePortIndex,
			"port_label", l.SourcePortLabel)
		return
	}

	g.Connect(src.ID, port.ID, dst.ID, dst.Inputs[0].ID)
}
