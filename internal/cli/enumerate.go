package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/vecsynth/internal/queryast"
	"github.com/roach88/vecsynth/internal/synth"
)

// EnumerateOptions holds flags for the enumerate command.
type EnumerateOptions struct {
	*RootOptions
	Capability string
	Depth      int
	Tree       bool
}

// EnumerateOutput is the enumerate command's result payload.
type EnumerateOutput struct {
	Example    string   `json:"example"`
	Capability string   `json:"capability"`
	Depth      int      `json:"depth"`
	Leaves     int      `json:"leaves"`
	Count      int      `json:"count"`
	Nodes      []string `json:"nodes"`
}

// NewEnumerateCommand creates the enumerate command.
func NewEnumerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnumerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enumerate <example-file>",
		Short: "List the candidates of one capability and depth",
		Long: `List every candidate the enumerator builds for an example's primary table.

Nothing is executed. Useful for inspecting how the search space grows.

Capabilities: query, orderable, limitable, expression, filter.

Examples:
  vecsynth enumerate items.yaml --depth 1
  vecsynth enumerate items.yaml --capability expression --depth 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnumerate(opts, args[0], cmd)
		},
	}

	addSearchFlags(cmd)
	cmd.Flags().StringVar(&opts.Capability, "capability", synth.CapQuery.String(), "capability to enumerate")
	cmd.Flags().IntVar(&opts.Depth, "depth", 1, "depth to enumerate")
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "print each candidate as an operator tree")

	return cmd
}

func runEnumerate(opts *EnumerateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	c, err := synth.ParseCapability(opts.Capability)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid capability", err)
	}

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), opts.RootOptions, cfg)

	ex, err := loadExample(path)
	if err != nil {
		return err
	}
	inputs, err := ex.InputTables()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid example inputs", err)
	}

	so := cfg.SynthOptions()
	enum, err := synth.NewEnumerator(inputs[0], ex.Vectors(), synth.EnumeratorOptions{
		Limits:           so.Limits,
		Cumulative:       so.Cumulative,
		DistanceSortKeys: so.DistanceSortKeys,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build enumerator", err)
	}

	nodes, err := enum.Enumerate(c, opts.Depth)
	if err != nil {
		return WrapExitError(ExitCommandError, "enumeration failed", err)
	}
	formatter.VerboseLog("Enumerated %s at depth %d over table %s", c, opts.Depth, inputs[0].Name())

	out := EnumerateOutput{
		Example:    ex.Name,
		Capability: c.String(),
		Depth:      opts.Depth,
		Leaves:     enum.Leaves().Len(),
		Count:      len(nodes),
		Nodes:      make([]string, len(nodes)),
	}
	for i, n := range nodes {
		out.Nodes[i] = n.String()
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}

	formatter.Printf("%s at depth %d: %d candidate(s) from %d leaves\n", out.Capability, out.Depth, out.Count, out.Leaves)
	for i, n := range nodes {
		if opts.Tree {
			formatter.Printf("\n[%d]\n%s", i+1, queryast.Print(n))
			continue
		}
		formatter.Printf("%s\n", n)
	}
	return nil
}
