// Package main hosts the solarrec CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the solarrecd daemon: uploading captures, inspecting and
// re-running pipeline stages, requesting translations, syncing to Solar
// Core, and configuration scaffolding.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
