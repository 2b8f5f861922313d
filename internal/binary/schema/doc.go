// Package schema describes the declared shape of wire types.
//
// The type hierarchy (Primitive, Array, Slice, Pointer, Struct, Interface,
// Variant) is closed. Values are encoded by type with a single type switch in
// EncodeValue/DecodeValue, which also backs the dynamic classes built from
// entities the client only learns about from a server schema.
package schema
