// Package main runs the statusbus demo: synthetic workers emit progress
// events through the bus while the display driver renders a live status
// line and the observability server exposes /status and /metrics.
package main
