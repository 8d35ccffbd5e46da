package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panelgrid/pkg/errors"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// Decision tree output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// treeCommand creates the tree command for inspecting partition decisions.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		flags  searchFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "tree [request.json|request.yaml|-]",
		Short: "Render the partitioner's decision tree (debug tool)",
		Long: `Render the decision tree of the winning partitioner run.

Inner nodes show the chosen cut (continuity or ratio), its axis, ratio,
weighted total and the number of candidates evaluated. Leaves show each
panel's cell and score. The cache is bypassed.`,
		Example: `  # DOT on stdout
  panelgrid tree workspace.yaml

  # SVG via Graphviz, single deterministic run
  panelgrid tree workspace.yaml --budget -1ns -o tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = formatForOutput(output)
			}
			if format != formatDOT && format != formatSVG {
				return errors.New(errors.ErrCodeUnsupported, "unsupported tree format %q (want dot or svg)", format)
			}

			req, err := readRequest(args[0])
			if err != nil {
				return fmt.Errorf("load request %s: %w", args[0], err)
			}
			flags.apply(cmd, &req)
			if err := protocol.Validate(req); err != nil {
				return err
			}
			opts, err := flags.options(cmd, c)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			tree := runner.Explain(cmd.Context(), req, opts)
			data := []byte(tree.ToDOT())
			if format == formatSVG {
				if data, err = tree.RenderSVG(cmd.Context()); err != nil {
					return fmt.Errorf("render: %w", err)
				}
			}

			if err := writeOutput(data, output); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if output != "" {
				printSuccess("Decision tree generated")
				printKeyValue("Depth", fmt.Sprintf("%d", tree.Depth()))
				printKeyValue("Total", formatScore(tree.Total))
				printFile(output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot, svg (default from the output extension, else dot)")

	return cmd
}

// formatForOutput picks the tree format from an output file extension.
func formatForOutput(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return formatSVG
	}
	return formatDOT
}
