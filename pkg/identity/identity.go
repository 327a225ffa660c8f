package identity

import (
	"log/slog"

	"github.com/google/uuid"
)

// Kind describes what a scene object is used for
type Kind string

const (
	KindObject Kind = "object"
	KindCamera Kind = "camera"
)

// Object is a live, identity-tagged scene object. Graph nodes reference
// objects by handle; containers reference them by ID only.
type Object struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
	// Data is owned by the host (a transform, a light, a Lua table name...)
	Data any `json:"-" yaml:"-"`

	id string
}

// NewObject creates an object without an ID. The ID is assigned the first
// time the object is observed by a Scene.
func NewObject(name string, kind Kind) *Object {
	if kind == "" {
		kind = KindObject
	}
	return &Object{Name: name, Kind: kind}
}

// NewObjectWithID creates an object carrying a previously persisted ID
func NewObjectWithID(id, name string, kind Kind) *Object {
	obj := NewObject(name, kind)
	obj.id = id
	return obj
}

// ID returns the stable ID, or "" when none has been assigned yet
func (o *Object) ID() string {
	if o == nil {
		return ""
	}
	return o.id
}

// EnsureID assigns a fresh ID if the object does not have one yet and
// reports whether an assignment happened. Assigned IDs never change.
func (o *Object) EnsureID() bool {
	if o.id != "" {
		return false
	}
	o.id = uuid.NewString()
	return true
}

// Regenerate replaces the object's ID with a fresh one. References saved
// under the previous ID no longer resolve.
func (o *Object) Regenerate() string {
	o.id = uuid.NewString()
	return o.id
}

// Resolver maps stable IDs to live objects and back
type Resolver interface {
	// Resolve returns the first object carrying the given ID
	Resolve(id string) (*Object, bool)
	// IDOf returns the stable ID of a live object
	IDOf(obj *Object) (string, bool)
}

// Scene is the ordered set of identity-tagged objects currently alive
type Scene struct {
	objects []*Object
	logger  *slog.Logger
}

// Ensure Scene implements Resolver
var _ Resolver = (*Scene)(nil)

// NewScene creates an empty scene
func NewScene(logger *slog.Logger) *Scene {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scene{logger: logger}
}

// Add registers objects with the scene, tagging any that lack an ID
func (s *Scene) Add(objs ...*Object) {
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if obj.EnsureID() {
			s.logger.Debug("Generated new object ID", "name", obj.Name, "id", obj.id)
		}
		s.objects = append(s.objects, obj)
	}
}

// Remove deletes the object with the given ID from the scene
func (s *Scene) Remove(id string) bool {
	for i, obj := range s.objects {
		if obj.id == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return true
		}
	}
	return false
}

// Objects returns the registered objects in registration order
func (s *Scene) Objects() []*Object {
	out := make([]*Object, len(s.objects))
	copy(out, s.objects)
	return out
}

// Find returns the first object with the given name
func (s *Scene) Find(name string) (*Object, bool) {
	for _, obj := range s.objects {
		if obj.Name == name {
			return obj, true
		}
	}
	return nil, false
}

// Resolve scans the scene for the first object with the given ID. A miss
// is logged and reported as (nil, false).
func (s *Scene) Resolve(id string) (*Object, bool) {
	if id == "" {
		return nil, false
	}
	for _, obj := range s.objects {
		if obj.id == id {
			return obj, true
		}
	}
	s.logger.Warn("Object ID could not be resolved", "id", id)
	return nil, false
}

// IDOf returns the ID of a registered object, tagging it lazily if needed.
// Objects that were never registered with the scene are unresolvable.
func (s *Scene) IDOf(obj *Object) (string, bool) {
	if obj == nil {
		return "", false
	}
	for _, o := range s.objects {
		if o != obj {
			continue
		}
		if o.EnsureID() {
			s.logger.Debug("Generated new object ID", "name", o.Name, "id", o.id)
		}
		return o.id, true
	}
	s.logger.Warn("Object is not tagged in the scene", "name", obj.Name)
	return "", false
}
