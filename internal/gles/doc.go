// Package gles holds the atoms recorded for the OpenGL ES and EGL APIs.
//
// Each atom has an entity describing its fields and an entity-derived class,
// so a server that publishes the same entities decodes into the same types.
package gles
