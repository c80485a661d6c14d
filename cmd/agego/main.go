// Package main provides the agego CLI entry point.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/orneryd/agego/pkg/age"
	"github.com/orneryd/agego/pkg/agtype"
	"github.com/orneryd/agego/pkg/cypher"
	"github.com/orneryd/agego/pkg/storage"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agego",
		Short: "agego - Cypher over PostgreSQL with Apache AGE",
		Long: `agego assembles Cypher calls for Apache AGE, runs them over
PostgreSQL and decodes the agtype results.

Features:
  • Result column synthesis from the RETURN clause
  • Parameter maps bound as agtype
  • Vertex, edge and path decoding
  • Persistent projection plan cache`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file (env vars override it)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agego v%s (%s)\n", version, commit)
		},
	})

	// Offline commands
	rootCmd.AddCommand(&cobra.Command{
		Use:   "columns [query]",
		Short: "Show the result columns synthesized for a Cypher query",
		Args:  cobra.ExactArgs(1),
		RunE:  runColumns,
	})

	assembleCmd := &cobra.Command{
		Use:   "assemble [query]",
		Short: "Print the SQL command and arguments for a Cypher query",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssemble,
	}
	assembleCmd.Flags().String("graph", "", "Graph name")
	assembleCmd.Flags().String("params", "", "Parameters as a JSON object")
	_ = assembleCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(assembleCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode [agtype]",
		Short: "Decode an agtype literal and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}
	decodeCmd.Flags().Bool("kind", false, "Print only the value kind")
	rootCmd.AddCommand(decodeCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "encode [json]",
		Short: "Encode a JSON value as an agtype literal",
		Args:  cobra.ExactArgs(1),
		RunE:  runEncode,
	})

	// Database commands
	queryCmd := &cobra.Command{
		Use:   "query [cypher]",
		Short: "Run a Cypher query and print rows as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
	addDatabaseFlags(queryCmd)
	queryCmd.Flags().String("graph", "", "Graph name")
	queryCmd.Flags().String("params", "", "Parameters as a JSON object")
	_ = queryCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(queryCmd)

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive Cypher shell",
		RunE:  runShell,
	}
	addDatabaseFlags(shellCmd)
	shellCmd.Flags().String("graph", "", "Graph name")
	_ = shellCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(shellCmd)

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Graph administration",
	}
	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a graph",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGraphCreate,
	}
	createCmd.Flags().Bool("temp", false, "Generate a unique graph name")
	dropCmd := &cobra.Command{
		Use:   "drop [name]",
		Short: "Drop a graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runGraphDrop,
	}
	dropCmd.Flags().Bool("cascade", false, "Drop the graph's labels and data")
	existsCmd := &cobra.Command{
		Use:   "exists [name]",
		Short: "Report whether a graph exists",
		Args:  cobra.ExactArgs(1),
		RunE:  runGraphExists,
	}
	for _, c := range []*cobra.Command{createCmd, dropCmd, existsCmd} {
		addDatabaseFlags(c)
		graphCmd.AddCommand(c)
	}
	rootCmd.AddCommand(graphCmd)

	plansCmd := &cobra.Command{
		Use:   "plans",
		Short: "Persistent plan store operations",
	}
	plansCmd.PersistentFlags().String("store-dir", "", "Plan store directory (default AGEGO_PLAN_STORE_DIR)")
	plansCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		RunE:  runPlansList,
	})
	plansCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every stored plan",
		RunE:  runPlansClear,
	})
	plansCmd.AddCommand(&cobra.Command{
		Use:   "forget [query]",
		Short: "Remove the stored plan for one query",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlansForget,
	})
	rootCmd.AddCommand(plansCmd)

	return rootCmd
}

func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("dsn", "", "PostgreSQL DSN (default AGEGO_DATABASE_URL)")
}

// =============================================================================
// Offline commands
// =============================================================================

func runColumns(cmd *cobra.Command, args []string) error {
	plan := cypher.NewPlan(args[0])
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, plan.Declaration)
	if plan.Fallback() {
		if cypher.ContainsKeyword(args[0], "RETURN") {
			fmt.Fprintln(out, "(RETURN clause is not a projection, single fallback column)")
		} else {
			fmt.Fprintln(out, "(no RETURN clause, single fallback column)")
		}
		return nil
	}
	fmt.Fprintf(out, "RETURN %s\n", plan.Clause)
	for i, col := range plan.Columns {
		fmt.Fprintf(out, "  %d. %s\n", i+1, col.Identifier())
	}
	return nil
}

func runAssemble(cmd *cobra.Command, args []string) error {
	graph, _ := cmd.Flags().GetString("graph")
	rawParams, _ := cmd.Flags().GetString("params")

	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}
	command, err := age.CypherCommand(graph, args[0], params)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, command.Text)
	for i, arg := range command.Args {
		fmt.Fprintf(out, "$%d = %v\n", i+1, arg)
	}
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	kindOnly, _ := cmd.Flags().GetBool("kind")

	v, err := agtype.DecodeString(args[0])
	if err != nil {
		return err
	}
	if kindOnly {
		fmt.Fprintln(cmd.OutOrStdout(), v.Kind())
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), agtype.ToJSONCompatible(v), true)
}

func runEncode(cmd *cobra.Command, args []string) error {
	native, err := decodeJSON(args[0])
	if err != nil {
		return err
	}
	v, err := agtype.FromNative(native)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), agtype.EncodeString(v))
	return nil
}

// parseParams turns a JSON object into a parameter map. Empty input means no
// parameters.
func parseParams(raw string) (agtype.Value, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	native, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing params: %w", err)
	}
	if _, ok := native.(map[string]any); !ok {
		return nil, fmt.Errorf("parsing params: want a JSON object, got %T", native)
	}
	return agtype.FromNative(native)
}

// decodeJSON keeps numbers as json.Number so integers stay integers.
func decodeJSON(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// =============================================================================
// Database commands
// =============================================================================

func runQuery(cmd *cobra.Command, args []string) error {
	graph, _ := cmd.Flags().GetString("graph")
	rawParams, _ := cmd.Flags().GetString("params")

	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := rt.client.CypherValue(ctx, graph, args[0], params)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func runShell(cmd *cobra.Command, args []string) error {
	graph, _ := cmd.Flags().GetString("graph")

	rt, err := openRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.startMetricsServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected, graph %s\n", graph)
	fmt.Fprintln(out, "End statements with ';'. Type 'exit' or Ctrl+D to quit")

	return runShellLoop(ctx, cmd.InOrStdin(), out, func(ctx context.Context, query string) error {
		res, err := rt.client.Cypher(ctx, graph, query, nil)
		if err != nil {
			return err
		}
		return printResult(out, res)
	})
}

// runShellLoop reads statements terminated by a trailing ';' from in and
// hands each to run.
// Errors from run are printed and the loop continues.
func runShellLoop(ctx context.Context, in io.Reader, out io.Writer, run func(context.Context, string) error) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder

	prompt := func() {
		if pending.Len() == 0 {
			fmt.Fprint(out, "agego> ")
		} else {
			fmt.Fprint(out, "   ... ")
		}
	}

	prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if pending.Len() == 0 && (line == "exit" || line == "quit") {
			return nil
		}
		if line != "" {
			if pending.Len() > 0 {
				pending.WriteByte(' ')
			}
			pending.WriteString(line)
		}

		text := pending.String()
		if strings.HasSuffix(text, ";") {
			pending.Reset()
			stmt := strings.TrimSpace(strings.TrimRight(text, ";"))
			if stmt != "" {
				if err := run(ctx, stmt); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
		}
		prompt()
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// printResult writes one JSON object per row.
func printResult(w io.Writer, res *age.Result) error {
	for i, row := range res.Rows {
		rec := make(map[string]any, len(row))
		for j, v := range row {
			if j < len(res.Columns) {
				rec[res.Columns[j]] = agtype.ToJSONCompatible(v)
			}
		}
		if err := writeJSON(w, rec, false); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	fmt.Fprintf(w, "(%d rows)\n", res.Len())
	return nil
}

func runGraphCreate(cmd *cobra.Command, args []string) error {
	temp, _ := cmd.Flags().GetBool("temp")

	var name string
	switch {
	case len(args) == 1:
		name = args[0]
	case temp:
		name = tempGraphName()
	default:
		return errors.New("graph name required (or --temp)")
	}

	rt, err := openRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.client.CreateGraph(cmd.Context(), name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Created graph %s\n", name)
	return nil
}

func runGraphDrop(cmd *cobra.Command, args []string) error {
	cascade, _ := cmd.Flags().GetBool("cascade")

	rt, err := openRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.client.DropGraph(cmd.Context(), args[0], cascade); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Dropped graph %s\n", args[0])
	return nil
}

func runGraphExists(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ok, err := rt.client.GraphExists(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	return nil
}

// tempGraphName returns a unique, valid graph name.
func tempGraphName() string {
	return "agego_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// =============================================================================
// Plan store commands
// =============================================================================

func runPlansList(cmd *cobra.Command, args []string) error {
	store, err := openPlanStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, rec := range records {
		fmt.Fprintf(out, "%s  %s\n    %s\n",
			rec.Fingerprint().String()[:16], rec.UpdatedAt.Format("2006-01-02 15:04:05"), rec.Query)
		fmt.Fprintf(out, "    AS %s\n", rec.Plan.Declaration)
	}
	fmt.Fprintf(out, "(%d plans)\n", len(records))
	return nil
}

func runPlansClear(cmd *cobra.Command, args []string) error {
	store, err := openPlanStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d plans\n", n)

	// Dropped plans stay in the value log until it is collected.
	if err := store.RunGC(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: value log GC: %v\n", err)
	}
	return nil
}

func runPlansForget(cmd *cobra.Command, args []string) error {
	store, err := openPlanStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no stored plan for %q", args[0])
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Removed 1 plan")
	return nil
}
