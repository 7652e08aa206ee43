// Package builder runs the compile-and-place pipeline. Units are built one
// at a time: the external compiler is invoked and awaited, the artifact is
// optionally placed at a secondary destination, and the outcome is logged.
// A failing unit is recorded and the run moves on; nothing a unit does can
// stop the units after it.
package builder
