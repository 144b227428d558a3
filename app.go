package asyncgui

import (
	"github.com/Mo-to/go-async-gui/core"
)

// App is the composed GUI-side object: a core.Loop plus the public surface
// widgets and example code consume. It owns the command queue and update
// registry for its lifetime, which spans from construction until the window
// is destroyed or the process exits.
type App struct {
	*core.Loop
}

// New composes an App over the given toolkit binding. A nil cfg uses
// DefaultConfig; see core.Config for the options.
func New(binding core.ToolkitBinding, cfg *core.Config) (*App, error) {
	loop, err := core.NewLoop(binding, cfg)
	if err != nil {
		return nil, err
	}
	return &App{Loop: loop}, nil
}
