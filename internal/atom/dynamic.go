package atom

import (
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
)

// Dynamic is an atom whose type the client knows only from its entity.
type Dynamic struct {
	Object *schema.Object
	meta   *Metadata
}

func NewDynamic(o *schema.Object) *Dynamic {
	return &Dynamic{Object: o, meta: Find(o.Type())}
}

func (a *Dynamic) Class() *binary.Class {
	return a.Object.Class()
}

func (a *Dynamic) Metadata() *Metadata {
	return a.meta
}

func (a *Dynamic) Name() string {
	if a.meta.DisplayName != "" {
		return a.meta.DisplayName
	}
	return a.Object.Type().Identity
}

func (a *Dynamic) FieldCount() int {
	return len(a.Object.Type().Fields)
}

func (a *Dynamic) FieldInfo(i int) binary.Field {
	return a.Object.Type().Fields[i]
}

func (a *Dynamic) FieldValue(i int) any {
	return a.Object.Fields[i]
}

// Result returns the value of the result field, if the entity declares one.
func (a *Dynamic) Result() (any, bool) {
	i := a.meta.ResultIndex()
	if i < 0 || i >= len(a.Object.Fields) {
		return nil, false
	}
	return a.Object.Fields[i], true
}

func (a *Dynamic) Observations() *Observations {
	i := a.meta.ExtrasIndex()
	if i < 0 || i >= len(a.Object.Fields) {
		return nil
	}
	items, _ := a.Object.Fields[i].([]any)
	for _, item := range items {
		if o, ok := item.(*Observations); ok {
			return o
		}
	}
	return nil
}

func (a *Dynamic) IsEndOfFrame() bool {
	return a.meta.EndOfFrame
}

func (a *Dynamic) String() string {
	return a.Object.String()
}
