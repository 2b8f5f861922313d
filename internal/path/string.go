package path

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/danmuck/gfxtrace/internal/binary"
)

func (p Capture) String() string         { return render(p) }
func (p Atoms) String() string           { return render(p) }
func (p Atom) String() string            { return render(p) }
func (p State) String() string           { return render(p) }
func (p MemoryRange) String() string     { return render(p) }
func (p Resource) String() string        { return render(p) }
func (p Field) String() string           { return render(p) }
func (p ArrayIndex) String() string      { return render(p) }
func (p ResourceBundles) String() string { return render(p) }
func (p Device) String() string          { return render(p) }
func (p ImageInfo) String() string       { return render(p) }
func (p TimingInfo) String() string      { return render(p) }

// Key returns the binary encoding of p as a string. Unlike String, it keeps
// the kind of every segment, so distinct paths never share a key.
func Key(p Path) (string, error) {
	if p = Value(p); p == nil {
		return "", ErrMissingParent
	}
	data, err := binary.Encode(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Hash is a stable 64-bit hash of the path's encoding, for caches that live
// outside the process. Paths that cannot be encoded hash their rendering.
func Hash(p Path) uint64 {
	if p = Value(p); p == nil {
		return 0
	}
	key, err := Key(p)
	if err != nil {
		return xxhash.Sum64String(p.String())
	}
	return xxhash.Sum64String(key)
}

func render(p Path) string {
	var b strings.Builder
	writePath(&b, p)
	return b.String()
}

// writePath renders ancestors first, then the segment of p itself.
func writePath(b *strings.Builder, p Path) {
	if p = Value(p); p == nil {
		b.WriteString("<nil>")
		return
	}
	if parent := p.Parent(); parent != nil {
		writePath(b, parent)
	}
	switch p := p.(type) {
	case Capture:
		b.WriteString("Capture(")
		b.WriteString(p.ID.String())
		b.WriteByte(')')
	case Device:
		b.WriteString("Device(")
		b.WriteString(p.ID.String())
		b.WriteByte(')')
	case ImageInfo:
		b.WriteString("ImageInfo(")
		b.WriteString(p.ID.String())
		b.WriteByte(')')
	case TimingInfo:
		b.WriteString("TimingInfo(")
		b.WriteString(p.ID.String())
		b.WriteByte(')')
	case Atoms:
		b.WriteString(".Atoms")
	case Atom:
		writeIndex(b, p.Index)
	case ArrayIndex:
		if p.Array == nil {
			b.WriteString("<nil>")
		}
		writeIndex(b, p.Index)
	case State:
		b.WriteString(".State")
	case MemoryRange:
		b.WriteString(".Memory(")
		b.WriteString(strconv.FormatUint(uint64(p.Pool), 10))
		b.WriteString(")[0x")
		b.WriteString(strconv.FormatUint(p.Address, 16))
		b.WriteString(":0x")
		b.WriteString(strconv.FormatUint(p.End(), 16))
		b.WriteByte(']')
	case Resource:
		b.WriteString(".Resource(")
		b.WriteString(p.ID.String())
		b.WriteByte(')')
	case Field:
		if p.Struct == nil {
			b.WriteString("<nil>")
		}
		b.WriteByte('.')
		b.WriteString(p.Name)
	case ResourceBundles:
		b.WriteString(".ResourceBundles")
	}
}

func writeIndex(b *strings.Builder, i uint64) {
	b.WriteByte('[')
	b.WriteString(strconv.FormatUint(i, 10))
	b.WriteByte(']')
}
