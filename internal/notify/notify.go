// Package notify tells a running engine about freshly built shaders so it
// can hot-reload them. Delivery is best effort: a notifier never fails a
// build.
package notify

import (
	"context"

	"github.com/vk/shaderbuild/internal/shader"
)

// DefaultEvent is the socket.io event name used when none is configured.
const DefaultEvent = "shader:built"

// Event describes the outcome of one unit.
type Event struct {
	Shader string
	Stage  shader.Stage
	Output string
	Placed string
	OK     bool
	Error  string
}

// Payload renders e as the JSON-friendly map sent over the wire.
func (e Event) Payload() map[string]any {
	p := map[string]any{
		"shader": e.Shader,
		"stage":  string(e.Stage),
		"output": e.Output,
		"ok":     e.OK,
	}
	if e.Placed != "" {
		p["placed"] = e.Placed
	}
	if e.Error != "" {
		p["error"] = e.Error
	}
	return p
}

// Notifier publishes unit events.
type Notifier interface {
	Notify(ctx context.Context, e Event)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
func (Nop) Close() error                  { return nil }
