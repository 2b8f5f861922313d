// Package path builds typed references into a server-held capture graph.
//
// Paths are small comparable values. Two paths built independently that name
// the same remote object compare equal with ==, so they can be used directly
// as map keys for request de-duplication and result caching.
package path
