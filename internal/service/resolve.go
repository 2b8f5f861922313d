package service

import (
	"context"
	"fmt"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
	"github.com/danmuck/gfxtrace/internal/path"
)

// Get resolves p to the object it names.
//
// Paths that need the capture replayed (state, memory, resources and the
// image, timing and device roots) are not resolvable by this server.
func (s *Server) Get(ctx context.Context, p path.Path) (binary.Object, error) {
	switch p := path.Value(p).(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil path", ErrInvalidPath)
	case path.Capture:
		list, c, err := s.atoms(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &CaptureInfo{Name: c.Name, Size: uint64(c.Size), Atoms: uint64(list.Len())}, nil
	case path.Atoms:
		list, _, err := s.atoms(ctx, p.Capture.ID)
		if err != nil {
			return nil, err
		}
		return list, nil
	case path.Atom:
		return s.atom(ctx, p)
	case path.Field, path.ArrayIndex:
		t, v, err := s.value(ctx, p)
		if err != nil {
			return nil, err
		}
		return &schema.Box{Type: t, Value: v}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrNotResolvable, p)
	}
}

// Follow returns the path that the value at p refers to. An ID held by an
// atom field names a resource as it exists after that atom.
func (s *Server) Follow(ctx context.Context, p path.Path) (path.Path, error) {
	_, v, err := s.value(ctx, p)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case binary.ID:
		a, ok := path.AtomOf(p)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not inside an atom", ErrNotResolvable, p)
		}
		return a.ResourceAfter(v), nil
	case path.Path:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %v holds %T, which is not a reference", ErrNotResolvable, p, v)
	}
}

func (s *Server) atom(ctx context.Context, p path.Atom) (atom.Atom, error) {
	list, _, err := s.atoms(ctx, p.Atoms.Capture.ID)
	if err != nil {
		return nil, err
	}
	if p.Index >= uint64(list.Len()) {
		return nil, fmt.Errorf("%w: atom %d of %d", ErrNotFound, p.Index, list.Len())
	}
	return list.Get(int(p.Index))
}

// value resolves a field or element path to its schema type and value.
func (s *Server) value(ctx context.Context, p path.Path) (binary.Type, any, error) {
	switch p := path.Value(p).(type) {
	case path.Field:
		if a, ok := p.Struct.(path.Atom); ok {
			resolved, err := s.atom(ctx, a)
			if err != nil {
				return nil, nil, err
			}
			return atomField(resolved, p.Name)
		}
		_, parent, err := s.value(ctx, p.Struct)
		if err != nil {
			return nil, nil, err
		}
		obj, ok := parent.(*schema.Object)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %v has no fields", ErrNotResolvable, p.Struct)
		}
		i := obj.Type().FieldIndex(p.Name)
		if i < 0 {
			return nil, nil, fmt.Errorf("%w: %s has no field %q", ErrNotFound, obj.Type().Name(), p.Name)
		}
		return obj.Type().Fields[i].Type, obj.Fields[i], nil
	case path.ArrayIndex:
		t, parent, err := s.value(ctx, p.Array)
		if err != nil {
			return nil, nil, err
		}
		var elem binary.Type
		switch t := t.(type) {
		case *schema.Array:
			elem = t.ValueType
		case *schema.Slice:
			elem = t.ValueType
		default:
			return nil, nil, fmt.Errorf("%w: %v is not a sequence", ErrNotResolvable, p.Array)
		}
		items, _ := parent.([]any)
		if p.Index >= uint64(len(items)) {
			return nil, nil, fmt.Errorf("%w: index %d of %d elements", ErrNotFound, p.Index, len(items))
		}
		return elem, items[p.Index], nil
	case nil:
		return nil, nil, fmt.Errorf("%w: nil path", ErrInvalidPath)
	default:
		return nil, nil, fmt.Errorf("%w: %v does not name a value", ErrNotResolvable, p)
	}
}

func atomField(a atom.Atom, name string) (binary.Type, any, error) {
	for i := 0; i < a.FieldCount(); i++ {
		f := a.FieldInfo(i)
		if f.Declared != name {
			continue
		}
		return f.Type, schemaValue(a.FieldValue(i)), nil
	}
	return nil, nil, fmt.Errorf("%w: %s has no field %q", ErrNotFound, a.Name(), name)
}

// schemaValue converts the typed fields of generated atoms to the generic
// representation used by package schema.
func schemaValue(v any) any {
	switch v := v.(type) {
	case atom.Extras:
		items := make([]any, len(v))
		for i, x := range v {
			items[i] = x
		}
		return items
	default:
		return v
	}
}
