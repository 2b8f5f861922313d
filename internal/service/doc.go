// Package service carries path requests between a trace client and the
// service that holds the captures.
//
// Every call and result is a registered binary object. A request is the
// variant encoding of a call; a response is the variant encoding of its result
// or of an error result. Transports only move those bytes.
package service
