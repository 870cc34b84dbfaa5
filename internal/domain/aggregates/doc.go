// Package aggregates declares the domain-side aggregate contracts.
//
// A contract here is the semantic write boundary of one consistency unit:
// which operations exist, what they return, and which error codes they fail
// with. Persistence and transport stay out; internal/data/aggregates holds
// the implementations.
package aggregates
