// Package driving provides interfaces for application entrypoints
// (primary/inbound ports) such as the CLI.
package driving
