package service

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/path"
)

func messageID(name string) binary.ID {
	return binary.NewID([]byte("service." + name))
}

type callGet struct {
	Path path.Path
}

type resultGet struct {
	Value binary.Object
}

type callFollow struct {
	Path path.Path
}

type resultFollow struct {
	Path path.Path
}

type callGetCaptures struct{}

type resultGetCaptures struct {
	Captures []path.Capture
}

type callGetSchema struct{}

type resultGetSchema struct {
	Entities []*binary.Entity
}

type callImportCapture struct {
	Name string
	Data []byte
}

type resultImportCapture struct {
	Capture path.Capture
}

type callSet struct {
	Path  path.Path
	Value binary.Object
}

type resultSet struct {
	Path path.Path
}

type callLoadCapture struct {
	Path string
}

type callGetDevices struct{}

type resultGetDevices struct {
	Devices []path.Device
}

type callGetFeatures struct{}

type resultGetFeatures struct {
	Features []string
}

type errorResult struct {
	Code    string
	Message string
}

// CaptureInfo is the value of a capture path.
type CaptureInfo struct {
	Name  string
	Size  uint64
	Atoms uint64
}

func (*callGet) Class() *binary.Class             { return callGetClass }
func (*resultGet) Class() *binary.Class           { return resultGetClass }
func (*callFollow) Class() *binary.Class          { return callFollowClass }
func (*resultFollow) Class() *binary.Class        { return resultFollowClass }
func (*callGetCaptures) Class() *binary.Class     { return callGetCapturesClass }
func (*resultGetCaptures) Class() *binary.Class   { return resultGetCapturesClass }
func (*callGetSchema) Class() *binary.Class       { return callGetSchemaClass }
func (*resultGetSchema) Class() *binary.Class     { return resultGetSchemaClass }
func (*callImportCapture) Class() *binary.Class   { return callImportCaptureClass }
func (*resultImportCapture) Class() *binary.Class { return resultImportCaptureClass }
func (*callSet) Class() *binary.Class             { return callSetClass }
func (*resultSet) Class() *binary.Class           { return resultSetClass }
func (*callLoadCapture) Class() *binary.Class     { return callLoadCaptureClass }
func (*callGetDevices) Class() *binary.Class      { return callGetDevicesClass }
func (*resultGetDevices) Class() *binary.Class    { return resultGetDevicesClass }
func (*callGetFeatures) Class() *binary.Class     { return callGetFeaturesClass }
func (*resultGetFeatures) Class() *binary.Class   { return resultGetFeaturesClass }
func (*errorResult) Class() *binary.Class         { return errorResultClass }
func (*CaptureInfo) Class() *binary.Class         { return captureInfoClass }

// Register adds every service message class to b.
func Register(b *binary.Builder) error {
	return b.RegisterAll(
		callGetClass,
		resultGetClass,
		callFollowClass,
		resultFollowClass,
		callGetCapturesClass,
		resultGetCapturesClass,
		callGetSchemaClass,
		resultGetSchemaClass,
		callImportCaptureClass,
		resultImportCaptureClass,
		callSetClass,
		resultSetClass,
		callLoadCaptureClass,
		callGetDevicesClass,
		resultGetDevicesClass,
		callGetFeaturesClass,
		resultGetFeaturesClass,
		errorResultClass,
		captureInfoClass,
	)
}

var callGetClass = &binary.Class{
	ID:  messageID("callGet"),
	New: func() binary.Object { return &callGet{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		return encodePath(e, o.(*callGet).Path)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		p, err := decodePath(d)
		if err != nil {
			return nil, err
		}
		return &callGet{Path: p}, nil
	},
}

var resultGetClass = &binary.Class{
	ID:  messageID("resultGet"),
	New: func() binary.Object { return &resultGet{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		return e.Object(o.(*resultGet).Value)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		v, err := d.Object()
		if err != nil {
			return nil, err
		}
		return &resultGet{Value: v}, nil
	},
}

var callFollowClass = &binary.Class{
	ID:  messageID("callFollow"),
	New: func() binary.Object { return &callFollow{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		return encodePath(e, o.(*callFollow).Path)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		p, err := decodePath(d)
		if err != nil {
			return nil, err
		}
		return &callFollow{Path: p}, nil
	},
}

var resultFollowClass = &binary.Class{
	ID:  messageID("resultFollow"),
	New: func() binary.Object { return &resultFollow{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		return encodePath(e, o.(*resultFollow).Path)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		p, err := decodePath(d)
		if err != nil {
			return nil, err
		}
		return &resultFollow{Path: p}, nil
	},
}

var callGetCapturesClass = &binary.Class{
	ID:     messageID("callGetCaptures"),
	New:    func() binary.Object { return &callGetCaptures{} },
	Encode: func(*binary.Encoder, binary.Object) error { return nil },
	Decode: func(*binary.Decoder) (binary.Object, error) { return &callGetCaptures{}, nil },
}

var resultGetCapturesClass = &binary.Class{
	ID:  messageID("resultGetCaptures"),
	New: func() binary.Object { return &resultGetCaptures{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		captures := o.(*resultGetCaptures).Captures
		e.Uint32(uint32(len(captures)))
		for _, c := range captures {
			e.ID(c.ID)
		}
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		n, err := d.Count()
		if err != nil {
			return nil, err
		}
		r := &resultGetCaptures{Captures: make([]path.Capture, n)}
		for i := range r.Captures {
			if r.Captures[i].ID, err = d.ID(); err != nil {
				return nil, err
			}
		}
		return r, nil
	},
}

var callGetSchemaClass = &binary.Class{
	ID:     messageID("callGetSchema"),
	New:    func() binary.Object { return &callGetSchema{} },
	Encode: func(*binary.Encoder, binary.Object) error { return nil },
	Decode: func(*binary.Decoder) (binary.Object, error) { return &callGetSchema{}, nil },
}

var resultGetSchemaClass = &binary.Class{
	ID:  messageID("resultGetSchema"),
	New: func() binary.Object { return &resultGetSchema{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		entities := o.(*resultGetSchema).Entities
		e.Uint32(uint32(len(entities)))
		for _, entity := range entities {
			if err := e.Variant(entity); err != nil {
				return err
			}
		}
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		n, err := d.Count()
		if err != nil {
			return nil, err
		}
		r := &resultGetSchema{Entities: make([]*binary.Entity, 0, n)}
		for i := uint32(0); i < n; i++ {
			o, err := d.Variant()
			if err != nil {
				return nil, err
			}
			entity, ok := o.(*binary.Entity)
			if !ok {
				return nil, fmt.Errorf("%w: schema holds %T", binary.ErrMalformedWireData, o)
			}
			r.Entities = append(r.Entities, entity)
		}
		return r, nil
	},
}

var callImportCaptureClass = &binary.Class{
	ID:  messageID("callImportCapture"),
	New: func() binary.Object { return &callImportCapture{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		c := o.(*callImportCapture)
		e.String(c.Name)
		e.Data(c.Data)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		c := &callImportCapture{}
		var err error
		if c.Name, err = d.String(); err != nil {
			return nil, err
		}
		if c.Data, err = d.Data(); err != nil {
			return nil, err
		}
		return c, nil
	},
}

var resultImportCaptureClass = &binary.Class{
	ID:  messageID("resultImportCapture"),
	New: func() binary.Object { return &resultImportCapture{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		e.ID(o.(*resultImportCapture).Capture.ID)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		id, err := d.ID()
		if err != nil {
			return nil, err
		}
		return &resultImportCapture{Capture: path.NewCapture(id)}, nil
	},
}

var callSetClass = &binary.Class{
	ID:  messageID("callSet"),
	New: func() binary.Object { return &callSet{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		c := o.(*callSet)
		if err := encodePath(e, c.Path); err != nil {
			return err
		}
		return e.Object(c.Value)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		p, err := decodePath(d)
		if err != nil {
			return nil, err
		}
		v, err := d.Object()
		if err != nil {
			return nil, err
		}
		return &callSet{Path: p, Value: v}, nil
	},
}

var resultSetClass = &binary.Class{
	ID:  messageID("resultSet"),
	New: func() binary.Object { return &resultSet{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		return encodePath(e, o.(*resultSet).Path)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		p, err := decodePath(d)
		if err != nil {
			return nil, err
		}
		return &resultSet{Path: p}, nil
	},
}

var callLoadCaptureClass = &binary.Class{
	ID:  messageID("callLoadCapture"),
	New: func() binary.Object { return &callLoadCapture{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		e.String(o.(*callLoadCapture).Path)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		p, err := d.String()
		if err != nil {
			return nil, err
		}
		return &callLoadCapture{Path: p}, nil
	},
}

var callGetDevicesClass = &binary.Class{
	ID:     messageID("callGetDevices"),
	New:    func() binary.Object { return &callGetDevices{} },
	Encode: func(*binary.Encoder, binary.Object) error { return nil },
	Decode: func(*binary.Decoder) (binary.Object, error) { return &callGetDevices{}, nil },
}

var resultGetDevicesClass = &binary.Class{
	ID:  messageID("resultGetDevices"),
	New: func() binary.Object { return &resultGetDevices{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		devices := o.(*resultGetDevices).Devices
		e.Uint32(uint32(len(devices)))
		for _, dev := range devices {
			e.ID(dev.ID)
		}
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		n, err := d.Count()
		if err != nil {
			return nil, err
		}
		r := &resultGetDevices{Devices: make([]path.Device, n)}
		for i := range r.Devices {
			if r.Devices[i].ID, err = d.ID(); err != nil {
				return nil, err
			}
		}
		return r, nil
	},
}

var callGetFeaturesClass = &binary.Class{
	ID:     messageID("callGetFeatures"),
	New:    func() binary.Object { return &callGetFeatures{} },
	Encode: func(*binary.Encoder, binary.Object) error { return nil },
	Decode: func(*binary.Decoder) (binary.Object, error) { return &callGetFeatures{}, nil },
}

var resultGetFeaturesClass = &binary.Class{
	ID:  messageID("resultGetFeatures"),
	New: func() binary.Object { return &resultGetFeatures{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		features := o.(*resultGetFeatures).Features
		e.Uint32(uint32(len(features)))
		for _, f := range features {
			e.String(f)
		}
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		n, err := d.Count()
		if err != nil {
			return nil, err
		}
		r := &resultGetFeatures{Features: make([]string, n)}
		for i := range r.Features {
			if r.Features[i], err = d.String(); err != nil {
				return nil, err
			}
		}
		return r, nil
	},
}

var errorResultClass = &binary.Class{
	ID:  messageID("errorResult"),
	New: func() binary.Object { return &errorResult{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		r := o.(*errorResult)
		e.String(r.Code)
		e.String(r.Message)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		r := &errorResult{}
		var err error
		if r.Code, err = d.String(); err != nil {
			return nil, err
		}
		if r.Message, err = d.String(); err != nil {
			return nil, err
		}
		return r, nil
	},
}

var captureInfoClass = &binary.Class{
	ID:  messageID("CaptureInfo"),
	New: func() binary.Object { return &CaptureInfo{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		c := o.(*CaptureInfo)
		e.String(c.Name)
		e.Uint64(c.Size)
		e.Uint64(c.Atoms)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		c := &CaptureInfo{}
		var err error
		if c.Name, err = d.String(); err != nil {
			return nil, err
		}
		if c.Size, err = d.Uint64(); err != nil {
			return nil, err
		}
		if c.Atoms, err = d.Uint64(); err != nil {
			return nil, err
		}
		return c, nil
	},
}

func encodePath(e *binary.Encoder, p path.Path) error {
	if p == nil {
		return fmt.Errorf("%w: nil path", ErrInvalidPath)
	}
	return e.Variant(p)
}

func decodePath(d *binary.Decoder) (path.Path, error) {
	o, err := d.Variant()
	if err != nil {
		return nil, err
	}
	p, ok := o.(path.Path)
	if !ok {
		return nil, fmt.Errorf("%w: expected a path, got %T", binary.ErrMalformedWireData, o)
	}
	return p, nil
}
