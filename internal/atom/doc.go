// Package atom models the recorded command stream of a capture.
//
// Concrete atoms are generated per traced API (see package gles). Atoms known
// to the client only through a server schema decode as *schema.Object and are
// presented as *Dynamic.
package atom
