// Package worker runs layout computations off the caller's goroutine and
// keeps only the newest answer.
//
// # Overview
//
// A [Worker] owns exactly one goroutine. Requests submitted to it are
// computed one at a time, in submission order, each to completion. There is
// no per-request goroutine and no pool.
//
// A [Controller] is the single owner of canvas state: the panel list, the
// canvas size, the stability weight, the drag gesture and the last accepted
// layout. Every change increments its request id and hands a snapshot of the
// state to its Worker. Responses come back asynchronously and are accepted
// only when their id equals the latest issued id:
//
//	ctrl := worker.NewController(worker.RunnerFunc(runner, opts), worker.ControllerOptions{
//	    OnLayout: func(l worker.Layout) { redraw(l) },
//	})
//	defer ctrl.Close()
//
//	ctrl.SetCanvasSize(1600, 900)
//	ctrl.SetPanels(panels) // request 2
//	ctrl.SetStabilityWeight(0.8) // request 3; the answer to 2 is dropped
//
// Accepted layouts reach OnLayout from one delivery goroutine in request id
// order. When a newer layout is accepted while OnLayout is still running, the
// older ones queued behind it are skipped.
//
// Dropping a stale answer is not an error. It happens on every burst of
// input and is logged at debug level only.
//
// # Degenerate input
//
// With no panels or a canvas without area the Controller applies an empty
// layout immediately and skips the Worker entirely.
//
// # Drag gestures
//
// [Controller.BeginDrag] and [Controller.MoveDrag] only record the gesture
// and hit-test the last accepted layout; they never start a computation.
// [Controller.EndDrag] over another panel swaps the two panels and their
// previous cells, then issues one request.
package worker
