package models

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// LocationPath is the denormalized root-to-leaf path of a location.
type LocationPath struct {
	IDPath      []uuid.UUID `json:"id_path"`
	NamePath    []string    `json:"name_path"`
	DisplayPath string      `json:"display_path"` // names joined by " / "
	SortKey     string      `json:"sort_key"`     // FoldTextForSort(DisplayPath)
}

// EmptyLocationPath is the path of an item without a location.
func EmptyLocationPath() LocationPath {
	return LocationPath{IDPath: []uuid.UUID{}, NamePath: []string{}}
}

// IsEmpty reports the no-location sentinel.
func (p LocationPath) IsEmpty() bool {
	return len(p.IDPath) == 0
}

// Contains reports whether id is on the path.
func (p LocationPath) Contains(id uuid.UUID) bool {
	return slices.Contains(p.IDPath, id)
}

func (p LocationPath) Equal(other LocationPath) bool {
	return slices.Equal(p.IDPath, other.IDPath) &&
		slices.Equal(p.NamePath, other.NamePath) &&
		p.DisplayPath == other.DisplayPath &&
		p.SortKey == other.SortKey
}

func (p LocationPath) Clone() LocationPath {
	return LocationPath{
		IDPath:      append([]uuid.UUID{}, p.IDPath...),
		NamePath:    append([]string{}, p.NamePath...),
		DisplayPath: p.DisplayPath,
		SortKey:     p.SortKey,
	}
}

// Location is a named container in the location forest.
type Location struct {
	ID       uuid.UUID    `json:"id"`
	ParentID *uuid.UUID   `json:"parent_id"`
	Name     string       `json:"name"`
	AreaID   *string      `json:"area_id"`
	Path     LocationPath `json:"path"`
}

func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := *l
	if l.ParentID != nil {
		parent := *l.ParentID
		out.ParentID = &parent
	}
	if l.AreaID != nil {
		area := *l.AreaID
		out.AreaID = &area
	}
	out.Path = l.Path.Clone()
	return &out
}

// IsRoot reports a location without a parent.
func (l *Location) IsRoot() bool {
	return l.ParentID == nil
}

// ParentKey is the children-index key of the location's parent; uuid.Nil for roots.
func (l *Location) ParentKey() uuid.UUID {
	if l.ParentID == nil {
		return uuid.Nil
	}
	return *l.ParentID
}

// BuildLocationPath derives the path from a root-to-leaf chain.
func BuildLocationPath(chain []*Location) LocationPath {
	if len(chain) == 0 {
		return EmptyLocationPath()
	}
	ids := make([]uuid.UUID, 0, len(chain))
	names := make([]string, 0, len(chain))
	for _, loc := range chain {
		ids = append(ids, loc.ID)
		names = append(names, loc.Name)
	}
	display := strings.Join(names, " / ")
	return LocationPath{
		IDPath:      ids,
		NamePath:    names,
		DisplayPath: display,
		SortKey:     FoldTextForSort(display),
	}
}

// LocationChain walks parent pointers from leaf to root and returns the chain root first.
func LocationChain(leaf uuid.UUID, locations map[uuid.UUID]*Location) ([]*Location, error) {
	current, ok := locations[leaf]
	if !ok {
		return nil, NewValidationError("location_id must reference an existing location")
	}
	chain := make([]*Location, 0, 4)
	for steps := 0; ; steps++ {
		if steps >= LocationGuardMaxSteps {
			return nil, NewValidationError("location graph too deep or cyclic")
		}
		chain = append(chain, current)
		if current.ParentID == nil {
			break
		}
		parent, ok := locations[*current.ParentID]
		if !ok {
			return nil, NewValidationError("location_id must reference an existing location chain")
		}
		current = parent
	}
	slices.Reverse(chain)
	return chain, nil
}

// BuildLocationPathFromMap resolves the chain for leaf and derives its path.
func BuildLocationPathFromMap(leaf uuid.UUID, locations map[uuid.UUID]*Location) (LocationPath, error) {
	chain, err := LocationChain(leaf, locations)
	if err != nil {
		return LocationPath{}, err
	}
	return BuildLocationPath(chain), nil
}

type parentChangeKind int

const (
	parentUnchanged parentChangeKind = iota
	parentSetTo
	parentSetToRoot
)

// ParentChange describes what an update does to a location's parent.
type ParentChange struct {
	kind parentChangeKind
	id   uuid.UUID
}

// KeepParent leaves the parent untouched.
func KeepParent() ParentChange { return ParentChange{} }

// MoveTo re-parents under id.
func MoveTo(id uuid.UUID) ParentChange { return ParentChange{kind: parentSetTo, id: id} }

// MoveToRoot detaches the location into a root.
func MoveToRoot() ParentChange { return ParentChange{kind: parentSetToRoot} }

// ParentFromField converts a decoded nullable parent field.
func ParentFromField(f Field[uuid.UUID]) ParentChange {
	switch {
	case !f.Set:
		return KeepParent()
	case f.Value == nil:
		return MoveToRoot()
	default:
		return MoveTo(*f.Value)
	}
}

func (p ParentChange) Changes() bool { return p.kind != parentUnchanged }

// Target returns the new parent, nil meaning root. ok is false when unchanged.
func (p ParentChange) Target() (parent *uuid.UUID, ok bool) {
	switch p.kind {
	case parentSetTo:
		id := p.id
		return &id, true
	case parentSetToRoot:
		return nil, true
	default:
		return nil, false
	}
}

// LocationUpdate is a rename and/or move plus an optional area change.
type LocationUpdate struct {
	Name   *string
	Parent ParentChange
	AreaID Field[string]
}

// LocationNode is one entry of the nested location tree.
type LocationNode struct {
	*Location
	Children []*LocationNode `json:"children"`
}
