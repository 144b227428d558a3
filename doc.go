// Package asyncgui bridges a blocking desktop GUI toolkit's synchronous
// event loop with asynchronous background work.
//
// The toolkit's mainloop is replaced by three cooperating loops driven from a
// single Run call: an event pump that drains pending native events without
// blocking, an update scheduler that runs registered periodic funcs every
// interval with deadline enforcement, and a command dispatcher that executes
// async handlers enqueued from synchronous widget callbacks, strictly in
// submission order.
//
// # Quick Start
//
// Implement core.ToolkitBinding for your toolkit (process one pending event,
// report whether the window still exists), then:
//
//	app, err := asyncgui.New(binding, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	app.AddUpdateFunc(func(ctx context.Context) error {
//		clock.SetText(time.Now().Format("15:04:05"))
//		return nil
//	})
//
//	button.OnClick(app.WrapCommand(func(ctx context.Context) error {
//		return showPopupAsync(ctx)
//	}))
//
//	if err := app.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// Run returns nil once the window is destroyed; closing the window cancels
// the update scheduler and command dispatcher as well.
//
// # Key Concepts
//
// Update funcs: periodic async work registered with AddUpdateFunc. All
// registered funcs of one cycle run concurrently under the update interval
// as deadline; a cycle that runs over is cancelled and reported, never
// fatal. A cycle that finishes early still waits out the interval.
//
// Commands: async handlers wrapped by WrapCommand into plain callbacks that
// widget event handlers can invoke. Invoking the callback enqueues the
// handler; the dispatcher executes queued handlers one at a time, FIFO.
//
// Supervision: any unrecovered loop error cancels the sibling loops and is
// returned from Run. Command failures are fatal by default; set
// core.CommandErrorIsolate to report and continue instead.
//
// For metrics, see the observability/prometheus package; for a zerolog
// logging backend, see the logging package; for a scriptable in-memory
// toolkit binding, see the fakeui package.
package asyncgui
