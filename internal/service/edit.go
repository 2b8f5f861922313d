package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
	"github.com/danmuck/gfxtrace/internal/path"
)

// Set writes value at p and returns p rebased onto a new capture holding the
// edit. The source capture is left as it was.
//
// p is an atom, which value replaces, or a field or element inside one, in
// which case value is a *schema.Box of the same type as the current value.
func (s *Server) Set(ctx context.Context, p path.Path, value binary.Object) (path.Path, error) {
	p = path.Value(p)
	target, steps, err := editSteps(p)
	if err != nil {
		return nil, err
	}
	list, c, err := s.atoms(ctx, target.Atoms.Capture.ID)
	if err != nil {
		return nil, err
	}
	if target.Index >= uint64(list.Len()) {
		return nil, fmt.Errorf("%w: atom %d of %d", ErrNotFound, target.Index, list.Len())
	}

	replacement, err := editAtom(list.Atoms[target.Index], steps, value)
	if err != nil {
		return nil, err
	}
	atoms := slices.Clone(list.Atoms)
	atoms[target.Index] = replacement
	data, err := binary.Encode(&atom.List{Atoms: atoms})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	capture, err := s.Import(ctx, c.Name, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("path", p.String()).Str("capture", capture.ID.String()).Msg("value set")
	return path.Rebase(p, capture), nil
}

// editSteps splits p into the atom it edits and the field and element
// selections below that atom, outermost first.
func editSteps(p path.Path) (path.Atom, []path.Path, error) {
	var steps []path.Path
	for {
		switch v := path.Value(p).(type) {
		case nil:
			return path.Atom{}, nil, fmt.Errorf("%w: nil path", ErrInvalidPath)
		case path.Atom:
			slices.Reverse(steps)
			return v, steps, nil
		case path.Field:
			steps = append(steps, v)
			p = v.Struct
		case path.ArrayIndex:
			steps = append(steps, v)
			p = v.Array
		default:
			return path.Atom{}, nil, fmt.Errorf("%w: %v is not an atom value", ErrNotResolvable, v)
		}
	}
}

func editAtom(a atom.Atom, steps []path.Path, value binary.Object) (atom.Atom, error) {
	if len(steps) == 0 {
		replacement, err := atom.Wrap(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return replacement, nil
	}
	box, ok := value.(*schema.Box)
	if !ok {
		return nil, fmt.Errorf("%w: setting a value needs a box, got %T", ErrInvalidArgument, value)
	}
	entity := a.Class().Entity
	if entity == nil {
		return nil, fmt.Errorf("%w: %s has no schema", ErrNotResolvable, a.Name())
	}
	klass, err := schema.NewClass(entity)
	if err != nil {
		return nil, err
	}

	// Generated atoms are rebuilt as schema objects; both share the entity's
	// identity and wire layout.
	obj := &schema.Object{Klass: klass, Fields: make([]any, a.FieldCount())}
	for i := range obj.Fields {
		obj.Fields[i] = schemaValue(a.FieldValue(i))
	}
	edited, err := setValue(nil, obj, steps, box)
	if err != nil {
		return nil, err
	}
	return atom.NewDynamic(edited.(*schema.Object)), nil
}

// setValue returns a copy of v, of type t, with box written at steps. Objects
// carry their own field types, so t may be nil for them.
func setValue(t binary.Type, v any, steps []path.Path, box *schema.Box) (any, error) {
	if len(steps) == 0 {
		if t == nil || box.Type == nil || box.Type.String() != t.String() {
			return nil, fmt.Errorf("%w: cannot store %v as %v", ErrInvalidArgument, box.Type, t)
		}
		return box.Value, nil
	}
	switch step := steps[0].(type) {
	case path.Field:
		obj, ok := v.(*schema.Object)
		if !ok {
			return nil, fmt.Errorf("%w: %v has no fields", ErrNotResolvable, step.Struct)
		}
		i := obj.Type().FieldIndex(step.Name)
		if i < 0 || i >= len(obj.Fields) {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrNotFound, obj.Type().Name(), step.Name)
		}
		next, err := setValue(obj.Type().Fields[i].Type, obj.Fields[i], steps[1:], box)
		if err != nil {
			return nil, err
		}
		fields := slices.Clone(obj.Fields)
		fields[i] = next
		return &schema.Object{Klass: obj.Klass, Fields: fields}, nil
	case path.ArrayIndex:
		var elem binary.Type
		switch t := t.(type) {
		case *schema.Array:
			elem = t.ValueType
		case *schema.Slice:
			elem = t.ValueType
		default:
			return nil, fmt.Errorf("%w: %v is not a sequence", ErrNotResolvable, step.Array)
		}
		items, _ := v.([]any)
		if step.Index >= uint64(len(items)) {
			return nil, fmt.Errorf("%w: index %d of %d elements", ErrNotFound, step.Index, len(items))
		}
		next, err := setValue(elem, items[step.Index], steps[1:], box)
		if err != nil {
			return nil, err
		}
		items = slices.Clone(items)
		items[step.Index] = next
		return items, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrNotResolvable, step)
	}
}

// LoadCapture imports a capture file from the server's capture directory.
// name is resolved inside that directory and may not leave it.
func (s *Server) LoadCapture(ctx context.Context, name string) (path.Capture, error) {
	if s.dir == "" {
		return path.Capture{}, fmt.Errorf("%w: no capture directory configured", ErrUnsupported)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return path.Capture{}, fmt.Errorf("%w: capture file name is required", ErrInvalidArgument)
	}
	f, err := os.OpenInRoot(s.dir, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path.Capture{}, fmt.Errorf("%w: capture file %q", ErrNotFound, name)
		}
		return path.Capture{}, fmt.Errorf("%w: open %q: %v", ErrInvalidArgument, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return path.Capture{}, fmt.Errorf("service: read capture %q: %w", name, err)
	}
	base := filepath.Base(name)
	return s.Import(ctx, strings.TrimSuffix(base, filepath.Ext(base)), data)
}
