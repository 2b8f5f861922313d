// Package catalog builds the namespace a process decodes with.
package catalog

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
	"github.com/danmuck/gfxtrace/internal/gles"
	"github.com/danmuck/gfxtrace/internal/path"
	"github.com/danmuck/gfxtrace/internal/service"
)

type registration struct {
	name     string
	register func(*binary.Builder) error
}

var registrations = []registration{
	{name: "schema", register: schema.Register},
	{name: "path", register: path.Register},
	{name: "atom", register: atom.Register},
	{name: "gles", register: gles.Register},
	{name: "service", register: service.Register},
}

// Build registers every known class plus a dynamic class for each of
// entities, typically the schema published by a server.
func Build(entities ...*binary.Entity) (*binary.Namespace, error) {
	b := binary.NewBuilder()
	for _, r := range registrations {
		if err := r.register(b); err != nil {
			return nil, fmt.Errorf("catalog: register %s: %w", r.name, err)
		}
	}
	if err := schema.RegisterEntities(b, entities...); err != nil {
		return nil, fmt.Errorf("catalog: register entities: %w", err)
	}
	return b.Build(), nil
}

// MustBuild is Build for process start-up, where a registration conflict is a
// programming error.
func MustBuild(entities ...*binary.Entity) *binary.Namespace {
	ns, err := Build(entities...)
	if err != nil {
		panic(err)
	}
	return ns
}

// Entities returns the entities of every generated type this process knows.
func Entities() []*binary.Entity {
	return gles.Entities()
}
