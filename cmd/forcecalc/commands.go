package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/onnwee/repulse/internal/config"
	"github.com/onnwee/repulse/internal/db"
	"github.com/onnwee/repulse/internal/force"
	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/positions"
)

type options struct {
	input     string
	dsn       string
	limit     int
	dims      int
	workers   int
	threshold int
	seed      uint64
	pretty    bool
	verbose   bool

	quotient    int
	quotientSet bool
	padding     float64
}

type result struct {
	Strategy     string               `json:"strategy"`
	Nodes        int                  `json:"nodes"`
	GridQuotient int                  `json:"grid_quotient,omitempty"`
	Box          *force.DrawingBox    `json:"box,omitempty"`
	Forces       map[string]force.Vec `json:"forces"`
}

func newRootCmd(out io.Writer) *cobra.Command {
	cfg := config.Load()
	opts := &options{
		dsn:       cfg.DatabaseURL,
		dims:      cfg.Dimensions,
		workers:   cfg.Workers,
		threshold: cfg.MultithreadThreshold,
		seed:      cfg.Seed,
		quotient:  cfg.GridQuotient,
		padding:   1,
	}

	root := &cobra.Command{
		Use:          "forcecalc",
		Short:        "Compute Fruchterman-Reingold repulsive forces for a layout",
		Long:         `forcecalc reads node positions from a JSON document (--input, "-" for stdin) or from the graph_nodes table (--dsn) and prints the repulsive force on every node.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			// stdout carries the JSON result
			logger.Setup(os.Stderr, level, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.input, "input", "i", "", `positions JSON file, "-" for stdin`)
	pf.StringVar(&opts.dsn, "dsn", opts.dsn, "Postgres connection string (default $DATABASE_URL)")
	pf.IntVar(&opts.limit, "limit", 0, "maximum rows read from Postgres, 0 for all")
	pf.IntVar(&opts.dims, "dims", opts.dims, "layout dimensions, 2 or 3")
	pf.IntVar(&opts.workers, "workers", opts.workers, "worker pool size, 0 for all CPUs")
	pf.IntVar(&opts.threshold, "threshold", opts.threshold, "node count from which exact passes run in parallel")
	pf.Uint64Var(&opts.seed, "seed", opts.seed, "perturbation seed, 0 for time based")
	pf.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newExactCmd(out, opts))
	root.AddCommand(newApproxCmd(out, opts))
	return root
}

func newExactCmd(out io.Writer, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exact",
		Short: "All-pairs forces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), out, opts, "exact")
		},
	}
}

func newApproxCmd(out io.Writer, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approx",
		Short: "Grid-approximated forces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.quotientSet = cmd.Flags().Changed("quotient")
			return run(cmd.Context(), out, opts, "approx")
		},
	}
	cmd.Flags().IntVarP(&opts.quotient, "quotient", "q", opts.quotient, "grid quotient, cells per axis = sqrt(n)/quotient")
	cmd.Flags().Float64Var(&opts.padding, "padding", opts.padding, "padding around the fitted drawing box when the input has none")
	return cmd
}

func loadSnapshot(ctx context.Context, opts *options) (*positions.Snapshot, error) {
	var src positions.Source
	switch {
	case opts.input != "":
		src = positions.FileSource{Path: opts.input}
	case opts.dsn != "":
		conn, err := db.Open(ctx, opts.dsn)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		src = positions.PostgresSource{DB: conn, Limit: opts.limit}
	default:
		src = positions.FileSource{Path: "-"}
	}
	return src.Load(ctx)
}

func run(ctx context.Context, out io.Writer, opts *options, mode string) error {
	snap, err := loadSnapshot(ctx, opts)
	if err != nil {
		return err
	}

	engine, err := force.New(force.Options{
		Dimensions:           opts.dims,
		MultithreadThreshold: opts.threshold,
		Workers:              opts.workers,
		Seed:                 opts.seed,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer engine.Shutdown()

	res := result{Strategy: mode, Nodes: snap.Len()}
	switch mode {
	case "exact":
		res.Forces, err = engine.ComputeExact(ctx, snap.IDs, snap)
	case "approx":
		// --quotient beats the document, the document beats the env default
		q := opts.quotient
		if !opts.quotientSet && snap.GridQuotient != 0 {
			q = snap.GridQuotient
		}
		box := snap.DrawingBox(opts.padding, engine.Dimensions())
		res.Box = &box
		res.GridQuotient = force.NormalizeGridQuotient(q)
		res.Forces, err = engine.ComputeApprox(ctx, snap.IDs, snap, box, q)
	}
	if err != nil {
		return fmt.Errorf("%s pass: %w", mode, err)
	}
	logger.Get().Debug("force pass written", "mode", mode, "nodes", res.Nodes)

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
