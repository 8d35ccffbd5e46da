package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panelgrid/pkg/protocol"
	"github.com/matzehuels/panelgrid/pkg/worker"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags   searchFlags
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "watch [request.json|request.yaml]",
		Short: "Recompute the layout whenever a request file changes",
		Long: `Watch a request file and recompute its layout on every change.

Changes feed a canvas controller backed by one background worker. Each
accepted layout becomes the previous layout of the next computation, so
panels stay where they are unless the change warrants a move. Layouts that
are superseded while computing are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, args[0], &flags, preview)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&preview, "preview", false, "draw each layout in the terminal instead of printing JSON")

	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, path string, flags *searchFlags, preview bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts, err := flags.options(cmd, c)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	layouts := make(chan worker.Layout, 1)
	ctrl := worker.NewController(worker.RunnerFunc(runner, opts), worker.ControllerOptions{
		Logger:   logger,
		OnLayout: func(l worker.Layout) { publishLatest(layouts, l) },
	})
	defer ctrl.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are seen.
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	reload := func() {
		req, err := protocol.ReadRequestFile(target)
		if err == nil {
			flags.apply(cmd, &req)
			err = protocol.Validate(req)
		}
		if err != nil {
			logger.Warn("ignoring request file", "path", path, "error", err)
			return
		}
		if err := syncController(ctrl, req); err != nil {
			logger.Warn("ignoring request file", "path", path, "error", err)
		}
	}

	printInfo("Watching %s", path)
	reload()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				logger.Debug("request file changed", "op", ev.Op.String())
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case l := <-layouts:
			if err := printLayout(ctrl, l, preview); err != nil {
				return err
			}
		}
	}
}

// syncController applies the differences between req and the controller
// state. Each difference issues one request; only the last one's answer
// will be accepted. The request's own id and previous layout are ignored
// because the controller owns both.
func syncController(ctrl *worker.Controller, req protocol.Request) error {
	if w, h := ctrl.Canvas(); w != req.CanvasWidth || h != req.CanvasHeight {
		if _, err := ctrl.SetCanvasSize(req.CanvasWidth, req.CanvasHeight); err != nil {
			return err
		}
	}
	if ctrl.StabilityWeight() != req.StabilityWeight {
		if _, err := ctrl.SetStabilityWeight(req.StabilityWeight); err != nil {
			return err
		}
	}
	if !reflect.DeepEqual(ctrl.Panels(), req.Panels) {
		ctrl.SetPanels(req.Panels)
	}
	return nil
}

// publishLatest delivers l on a one-slot channel, replacing any layout that
// has not been consumed yet.
func publishLatest(ch chan worker.Layout, l worker.Layout) {
	for {
		select {
		case ch <- l:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func printLayout(ctrl *worker.Controller, l worker.Layout, preview bool) error {
	if !preview {
		return protocol.WriteResponse(os.Stdout, protocol.Response{RequestID: l.RequestID, Assignments: l.Assignments})
	}
	w, h := ctrl.Canvas()
	printNewline()
	printInfo("Layout %d", l.RequestID)
	fmt.Print(renderPreview(l.Assignments, w, h, previewCols))
	return nil
}
