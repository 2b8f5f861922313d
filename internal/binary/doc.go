// Package binary owns the object wire format and the type namespace.
//
// Ownership boundary:
// - fixed-width primitives, strings, byte slices and 20 byte identities
// - variant/object dispatch through an immutable Namespace
// - entity descriptors used for schema introspection and derived identities
//
// Every wire-transportable value implements Object and reports the Class that
// knows how to create, encode and decode it. Polymorphic decoding happens in
// exactly one place, Decoder.Variant, which resolves the type discriminator
// through the Namespace the decoder was built with.
package binary
