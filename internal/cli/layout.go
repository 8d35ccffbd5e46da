package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panelgrid/pkg/layout"
	"github.com/matzehuels/panelgrid/pkg/pipeline"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// spinnerThreshold is the budget above which a spinner is shown.
const spinnerThreshold = 500 * time.Millisecond

// searchFlags are the optimizer flags shared by layout, tree and watch.
// Flags override the configuration file; canvas and stability flags also
// override the request.
type searchFlags struct {
	budget       time.Duration
	seed         uint64
	maxRuns      int
	stability    float64
	distribution string
	width        float64
	height       float64
	noCache      bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.budget, "budget", 0, "anytime search budget (default from config, 100ms)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "perturbation seed (0 seeds from the clock)")
	cmd.Flags().IntVar(&f.maxRuns, "max-runs", 0, "cap on partitioner runs (0 is unbounded)")
	cmd.Flags().Float64Var(&f.stability, "stability", pipeline.DefaultStabilityWeight, "stability weight in [0,1], overrides the request")
	cmd.Flags().StringVar(&f.distribution, "distribution", "", "group sizes: strict, best-effort (default from config)")
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultCanvasWidth, "canvas width, overrides the request")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultCanvasHeight, "canvas height, overrides the request")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options builds pipeline options from the configuration and the flags.
func (f *searchFlags) options(cmd *cobra.Command, c *CLI) (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.OptionsFromConfig(cfg)
	opts.Logger = c.Logger
	opts.NoCache = f.noCache

	flags := cmd.Flags()
	if flags.Changed("budget") {
		opts.Budget = f.budget
	}
	if flags.Changed("seed") {
		opts.Seed = f.seed
	}
	if flags.Changed("max-runs") {
		opts.MaxRuns = f.maxRuns
	}
	if f.distribution != "" {
		d, err := layout.ParseDistribution(f.distribution)
		if err != nil {
			return opts, err
		}
		opts.Layout.Distribution = d
	}
	return opts, nil
}

// apply overrides request fields with explicitly set flags. A request
// without a canvas gets the default canvas.
func (f *searchFlags) apply(cmd *cobra.Command, req *protocol.Request) {
	flags := cmd.Flags()
	missing := req.CanvasWidth == 0 && req.CanvasHeight == 0
	if flags.Changed("width") || missing {
		req.CanvasWidth = f.width
	}
	if flags.Changed("height") || missing {
		req.CanvasHeight = f.height
	}
	if flags.Changed("stability") {
		req.StabilityWeight = f.stability
	}
}

// readRequest reads a request file, or stdin when path is "-".
func readRequest(path string) (protocol.Request, error) {
	if path == "-" {
		return protocol.ReadRequest(os.Stdin)
	}
	return protocol.ReadRequestFile(path)
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   searchFlags
		output  string
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "layout [request.json|request.yaml|-]",
		Short: "Compute a panel layout from a request file",
		Long: `Compute a panel layout from a request file.

The request lists panels with their preferences, the canvas size, an optional
previous layout and a stability weight. The response assigns every panel a
non-overlapping cell of the canvas.

Results are cached so repeated requests answer immediately.`,
		Example: `  # Compute and print the response
  panelgrid layout workspace.yaml

  # Preview in the terminal with a larger budget
  panelgrid layout workspace.yaml --preview --budget 500ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], &flags, output, preview)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&preview, "preview", false, "draw the layout in the terminal instead of printing JSON to stdout")

	return cmd
}

// runLayout reads the request, computes the layout and writes output.
func (c *CLI) runLayout(cmd *cobra.Command, input string, flags *searchFlags, output string, preview bool) error {
	ctx := cmd.Context()
	req, err := readRequest(input)
	if err != nil {
		return fmt.Errorf("load request %s: %w", input, err)
	}
	flags.apply(cmd, &req)
	if err := protocol.Validate(req); err != nil {
		return err
	}

	opts, err := flags.options(cmd, c)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res := c.compute(ctx, runner, req, opts)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var buf bytes.Buffer
	if err := protocol.WriteResponse(&buf, res.Response); err != nil {
		return err
	}

	if output == "" {
		if preview {
			fmt.Print(renderPreview(res.Response.Assignments, req.CanvasWidth, req.CanvasHeight, previewCols))
			return nil
		}
		return writeOutput(buf.Bytes(), "")
	}

	if err := writeOutput(buf.Bytes(), output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printSuccess("Layout complete")
	printFile(output)
	printStats(len(req.Panels), res.Stats, res.CacheHit)
	if preview {
		printNewline()
		fmt.Print(renderPreview(res.Response.Assignments, req.CanvasWidth, req.CanvasHeight, previewCols))
	}
	printNewline()
	printNextStep("Inspect", "panelgrid tree "+input)
	return nil
}

// compute runs the pipeline, showing a spinner for long budgets.
func (c *CLI) compute(ctx context.Context, runner *pipeline.Runner, req protocol.Request, opts pipeline.Options) pipeline.Result {
	if opts.Budget > spinnerThreshold {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Optimizing %d panels...", len(req.Panels)))
		opts.Progress = spinner.searchProgress()
		spinner.Start()
		defer spinner.Stop()
	}
	prog := newProgress(c.Logger, req)
	res := runner.ComputeWithCacheInfo(ctx, req, opts)
	prog.done(res)
	return res
}
