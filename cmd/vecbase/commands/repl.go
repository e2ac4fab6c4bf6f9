package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/d65v/vecbase"
	"github.com/d65v/vecbase/persistence"
)

var (
	replBanner = color.New(color.FgCyan)
	replErr    = color.New(color.FgRed)
	replOK     = color.New(color.FgGreen)
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session against an in-memory store",
	Long: `Start an interactive session. Type 'help' at the prompt for commands.

The store lives for the session; use 'save' and 'load' to keep it around.
When stdin is not a terminal, lines are read without a prompt, so scripted
sessions pipe cleanly:

  echo "insert a 1,0,0
  search 1,0,0 1" | vecbase repl --dim 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, metrics, err := openStore(cfg)
		if err != nil {
			return err
		}
		s := &replSession{db: db, metrics: metrics, out: os.Stdout, errOut: os.Stderr}
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return runRepl(cmd.Context(), s, os.Stdin, interactive)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

type replSession struct {
	db      *vecbase.VecBase
	metrics *vecbase.BasicMetricsCollector
	history []string
	out     io.Writer
	errOut  io.Writer
}

func runRepl(ctx context.Context, s *replSession, in io.Reader, interactive bool) error {
	if interactive {
		cfg := s.db.Config()
		replBanner.Fprintf(s.out, "VecBase CLI  dim=%d  metric=%s  type 'help'\n", cfg.Dim, cfg.Metric)
		fmt.Fprintln(s.out, strings.Repeat("-", 52))
	}

	scanner := bufio.NewScanner(in)
	// Vector literals for wide stores overflow the default line limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if interactive {
			fmt.Fprint(s.out, "vecbase> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			s.history = append(s.history, line)
		}
		if !s.exec(ctx, line) {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one REPL line. It returns false when the session should end.
func (s *replSession) exec(ctx context.Context, line string) bool {
	parts := strings.SplitN(line, " ", 2)
	cmd := parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "":
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "bye.")
		return false
	case "help", "h", "?":
		s.printHelp()
	case "len", "count":
		fmt.Fprintf(s.out, "records: %d\n", s.db.Len())
	case "config":
		s.printConfig()
	case "history":
		s.printHistory()
	case "stats":
		s.printStats()
	case "plugins":
		s.printPlugins()
	case "insert":
		s.cmdInsert(ctx, rest)
	case "search":
		s.cmdSearch(ctx, rest)
	case "delete", "del", "rm":
		s.cmdDelete(ctx, rest)
	case "get":
		s.cmdGet(rest)
	case "bench":
		s.cmdBench(ctx, rest)
	case "save":
		s.cmdSave(rest)
	case "load":
		s.cmdLoad(ctx, rest)
	default:
		s.errorf("unknown command: '%s'. Type 'help' for commands.", line)
	}
	return true
}

func (s *replSession) errorf(format string, args ...any) {
	replErr.Fprintf(s.errOut, format+"\n", args...)
}

func (s *replSession) printHelp() {
	fmt.Fprint(s.out, `
Commands:
  insert <id> <v1,v2,...,vN>   Insert a vector
  search <v1,v2,...> [top_k]   Search nearest neighbors (default top_k=5)
  delete <id>                  Delete a record
  get    <id>                  Retrieve a record
  len                          Show record count
  bench  [n]                   Insert n random vectors and time a search
  stats                        Show store and operation counters
  plugins                      List registered plugins
  save   <file>                Write the store to a snapshot file
  load   <file>                Replace the store from a snapshot file
  config                       Show current configuration
  history                      Show command history
  help                         Show this message
  quit                         Exit

Vectors are comma or space separated floats; [0.1, 0.2] also works.

Examples:
  insert doc1 0.1,0.4,0.9,0.3
  search 0.1,0.4,0.8,0.35 3
  delete doc1
`)
}

func (s *replSession) printConfig() {
	cfg := s.db.Config()
	fmt.Fprintf(s.out, "  dim          : %d\n", cfg.Dim)
	fmt.Fprintf(s.out, "  metric       : %s\n", cfg.Metric)
	fmt.Fprintf(s.out, "  max_elements : %d\n", cfg.MaxElements)
	fmt.Fprintf(s.out, "  storage_path : %s\n", cfg.StoragePath)
}

func (s *replSession) printHistory() {
	if len(s.history) == 0 {
		fmt.Fprintln(s.out, "(no history)")
		return
	}
	for i, h := range s.history {
		fmt.Fprintf(s.out, "  %3d  %s\n", i+1, h)
	}
}

func (s *replSession) printStats() {
	st := s.db.Stats()
	fmt.Fprintf(s.out, "  records      : %d\n", st.Records)
	fmt.Fprintf(s.out, "  dim          : %d\n", st.Dim)
	fmt.Fprintf(s.out, "  metric       : %s\n", st.Metric)
	fmt.Fprintf(s.out, "  graph nodes  : %d\n", st.Graph.Nodes)
	fmt.Fprintf(s.out, "  graph edges  : %d\n", st.Graph.Edges)

	m := s.metrics.GetStats()
	fmt.Fprintf(s.out, "  inserts      : %d (%d failed)\n", m.InsertCount, m.InsertErrors)
	fmt.Fprintf(s.out, "  searches     : %d\n", m.SearchCount)
	fmt.Fprintf(s.out, "  deletes      : %d (%d failed)\n", m.DeleteCount, m.DeleteErrors)
}

func (s *replSession) printPlugins() {
	infos := s.db.Plugins()
	if len(infos) == 0 {
		fmt.Fprintln(s.out, "(no plugins)")
		return
	}
	for _, p := range infos {
		fmt.Fprintf(s.out, "  %s %s\n", p.Name, p.Version)
	}
}

func (s *replSession) cmdInsert(ctx context.Context, rest string) {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) < 2 {
		s.errorf("usage: insert <id> <v1,v2,...>")
		return
	}
	vec, err := parseVector(parts[1])
	if err != nil {
		s.errorf("insert: %v", err)
		return
	}
	if err := s.db.Insert(ctx, parts[0], vec, ""); err != nil {
		s.errorf("error: %v", err)
		return
	}
	fmt.Fprintf(s.out, "inserted '%s' (%d dims)\n", parts[0], len(vec))
}

func (s *replSession) cmdSearch(ctx context.Context, rest string) {
	if rest == "" {
		s.errorf("usage: search <v1,v2,...> [top_k]")
		return
	}
	literal, k := splitTopK(rest)
	vec, err := parseVector(literal)
	if err != nil {
		s.errorf("search: %v", err)
		return
	}
	if dim := s.db.Config().Dim; len(vec) != dim {
		s.errorf("error: dimension mismatch: expected %d, got %d", dim, len(vec))
		return
	}

	t := time.Now()
	results := s.db.Search(ctx, vec, k)
	elapsed := time.Since(t).Microseconds()

	fmt.Fprintf(s.out, "top-%d results (%dµs):\n", k, elapsed)
	if len(results) == 0 {
		if s.db.IsEmpty() {
			fmt.Fprintln(s.out, "  (no records; insert some first)")
		} else {
			fmt.Fprintln(s.out, "  (no results)")
		}
		return
	}
	for _, r := range results {
		fmt.Fprintf(s.out, "  id=%-8s  score=%.6f  meta=%q\n", r.ID, r.Score, r.Metadata)
	}
}

func (s *replSession) cmdDelete(ctx context.Context, rest string) {
	if rest == "" {
		s.errorf("usage: delete <id>")
		return
	}
	if err := s.db.Delete(ctx, rest); err != nil {
		s.errorf("error: %v", err)
		return
	}
	fmt.Fprintf(s.out, "deleted '%s'\n", rest)
}

func (s *replSession) cmdGet(rest string) {
	if rest == "" {
		s.errorf("usage: get <id>")
		return
	}
	rec, ok := s.db.Get(rest)
	if !ok {
		s.errorf("error: not found: %q", rest)
		return
	}
	fmt.Fprintf(s.out, "%s  dim=%d  meta=%q\n", rec.ID, len(rec.Vector), rec.Metadata)
	fmt.Fprintf(s.out, "  %s\n", formatVector(rec.Vector, 8))
}

func (s *replSession) cmdBench(ctx context.Context, rest string) {
	n := 1000
	if rest != "" {
		if v, err := strconv.Atoi(rest); err == nil && v > 0 {
			n = v
		}
	}
	dim := s.db.Config().Dim

	fmt.Fprintf(s.out, "bench: inserting %d random vectors (dim=%d)...\n", n, dim)

	t0 := time.Now()
	for i := 0; i < n; i++ {
		if err := s.db.Insert(ctx, fmt.Sprintf("bench_%d", i), lcgVector(i, dim), ""); err != nil {
			s.errorf("error: %v", err)
			return
		}
	}
	fmt.Fprintf(s.out, "  insert %d  : %dms\n", n, time.Since(t0).Milliseconds())

	query := lcgVector(n, dim)
	t1 := time.Now()
	_ = s.db.Search(ctx, query, 10)
	fmt.Fprintf(s.out, "  search top-10: %dµs\n", time.Since(t1).Microseconds())
}

func (s *replSession) cmdSave(rest string) {
	if rest == "" {
		s.errorf("usage: save <file>")
		return
	}
	snap := persistence.Capture(s.db)
	if err := persistence.SaveFile(rest, snap); err != nil {
		s.errorf("error: %v", err)
		return
	}
	replOK.Fprintf(s.out, "saved %d records to %s\n", len(snap.Records), rest)
}

func (s *replSession) cmdLoad(ctx context.Context, rest string) {
	if rest == "" {
		s.errorf("usage: load <file>")
		return
	}
	snap, err := persistence.LoadFile(rest)
	if err != nil {
		s.errorf("error: %v", err)
		return
	}
	db, err := persistence.Restore(ctx, snap, storeOptions(s.metrics)...)
	if err != nil {
		s.errorf("error: %v", err)
		return
	}
	if err := registerEnvPlugins(db); err != nil {
		s.errorf("error: %v", err)
		return
	}
	s.db = db
	replOK.Fprintf(s.out, "loaded %d records (dim=%d, metric=%s)\n", db.Len(), snap.Dim, snap.Metric)
}

// lcgVector generates a deterministic pseudo-random vector for bench runs.
func lcgVector(i, dim int) []float32 {
	state := uint64(i)*6364136223846793005 + 1442695040888963407
	v := make([]float32, dim)
	for j := range v {
		state = state*6364136223846793005 + 1442695040888963407
		v[j] = float32(state>>33)/float32(math.MaxUint32)*2 - 1
	}
	return v
}

func formatVector(v []float32, max int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i == max {
			b.WriteString(", ...")
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}
