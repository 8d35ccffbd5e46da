// Package pkg provides the core libraries for Panelgrid panel layouts.
//
// # Overview
//
// Panelgrid arranges rectangular panels on a canvas. Each panel states a
// preferred size, aspect ratio and region; the optimizer partitions the
// canvas into non-overlapping cells that honor those preferences and stay
// close to where panels were before. The pkg directory is organized into
// four areas:
//
//  1. [layout] - Domain logic (scoring, guillotine partitioning, anytime search)
//  2. [panel] and [protocol] - Panel kinds and the request/response messages
//  3. [pipeline] and [worker] - Orchestration (cached compute, background worker)
//  4. [cache], [config], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through Panelgrid:
//
//	Canvas edits (panels, size, drag gestures)
//	         ↓
//	    [worker] Controller (state + monotonically increasing request id)
//	         ↓
//	    [worker] Worker (one computation at a time, FIFO)
//	         ↓
//	    [pipeline] Runner (cache lookup, then anytime search)
//	         ↓
//	    [layout] package (recursive guillotine partition, scoring)
//	         ↓
//	    Response → Controller accepts it only if its id is the latest
//
// # Quick Start
//
// Compute a layout directly:
//
//	import (
//	    "github.com/matzehuels/panelgrid/pkg/layout"
//	    "github.com/matzehuels/panelgrid/pkg/panel"
//	)
//
//	panels := []layout.Panel{
//	    panel.New(panel.Editor, "main"),
//	    panel.New(panel.Terminal, "shell"),
//	}
//	canvas := layout.Cell{Width: 1600, Height: 900}
//	res := layout.Search{Budget: 50 * time.Millisecond}.Optimize(ctx, canvas, panels, nil, 0.3)
//
// Drive layouts from a UI:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	ctrl := worker.NewController(worker.RunnerFunc(runner, pipeline.Options{}), worker.ControllerOptions{
//	    OnLayout: func(l worker.Layout) { redraw(l) },
//	})
//	defer ctrl.Close()
//	ctrl.SetCanvasSize(1600, 900)
//	ctrl.SetPanels(specs)
//
// # Main Packages
//
// [layout] - The optimizer. [layout.Config.Score] blends size, aspect and
// region fit; [layout.Partition] splits a cell recursively, one guillotine
// cut per level; [layout.Search.Optimize] repeats randomized partitions
// until its budget runs out and keeps the best blend of quality and
// stability.
//
// [panel] - The closed set of panel kinds and their preferences.
//
// [protocol] - Wire messages exchanged between controller and worker, with
// JSON and YAML codecs and request validation.
//
// [pipeline] - Options, defaults and the cached Runner shared by the CLI,
// the HTTP server and the worker.
//
// [worker] - The background Worker and the Controller that discards stale
// responses.
//
// [cache] - Result caches: NullCache, FileCache (CLI) and RedisCache
// (server), plus key derivation.
//
// [config] - TOML configuration file.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Optional hooks for search, worker and cache events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/layout/...      # Specific package
//	go test -run Example ./pkg/...
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/layout
// [panel]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/panel
// [protocol]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/protocol
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/pipeline
// [worker]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/worker
// [cache]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/panelgrid/pkg/observability
package pkg
