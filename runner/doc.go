// Package runner is the entry point for executing agents.
//
// A Runner holds what every run shares: the agent registry, the capability
// ports, the tracer and the logger. Each call to Run builds a fresh
// environment with a new run ID, so evidence and log lines of concurrent runs
// never mix.
//
//	r := runner.New(registry, func(o *runner.Options) {
//		o.Ports = core.Ports{Model: model}
//		o.MaxModelCalls = 20
//	})
//	res, info := runner.Run(ctx, r, pipeline, initialState)
//
// Active runs can be listed with Active and cancelled with Cancel.
package runner
