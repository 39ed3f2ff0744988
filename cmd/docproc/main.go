package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/jason-riddle/docproc-go"
	"github.com/jason-riddle/docproc-go/internal/config"
	"github.com/jason-riddle/docproc-go/internal/export"
	"github.com/jason-riddle/docproc-go/internal/logger"
	"github.com/jason-riddle/docproc-go/internal/render"
	"github.com/jason-riddle/docproc-go/internal/telemetry"
	"github.com/jason-riddle/docproc-go/internal/view"
)

var version = "dev"

const usage = `usage: docproc [flags] <command> [args]
Available commands:
  home - Show the most recent documents
  docs - List documents
  docs <id> - Show a document's pages
  open [-page N -paragraph N] <id> - Show a document with a paragraph highlighted
  upload <file> - Upload a document
  delete <id> - Delete a document (asks for confirmation unless -yes)
  search <query> - Semantic search over document chunks
  ask <question> - Ask a question about the documents
  cachefile - Print the doc cache file path`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// options are the resolved global settings for one invocation.
type options struct {
	format       string
	forceRefresh bool
	cacheTTL     time.Duration
	xlsx         string
	k            int
	yes          bool
}

type app struct {
	opts   options
	client *docproc.Client
	cache  *docNameCache
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := flag.NewFlagSet("docproc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	baseURL := fs.String("url", cfg.API.BaseURL, "Backend API URL including /api/v1 (default: $DOCPROC_URL)")
	timeout := fs.Duration("timeout", cfg.Timeout(), "Request timeout, 0 for none (default: $DOCPROC_TIMEOUT)")
	outputFormat := fs.String("output-format", cfg.Output.Format, "Output format: 'json' or 'text' (default: text on a terminal, json otherwise)")
	forceRefresh := fs.Bool("force-refresh", false, "Force refresh the doc cache, bypassing any cached data")
	memory := fs.Bool("memory", cfg.Cache.Memory, "Use in-memory doc cache only, do not write to disk")
	xlsx := fs.String("xlsx", "", "Also write docs, search or ask results to this .xlsx file")
	k := fs.Int("k", 0, "Number of chunks for search and ask (0 for the backend default)")
	yes := fs.Bool("yes", false, "Do not ask for confirmation before deleting")
	debug := fs.Bool("debug", cfg.Debug, "Log requests at debug level")
	trace := fs.Bool("trace", cfg.Trace, "Print OpenTelemetry spans to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	format := strings.ToLower(*outputFormat)
	if format == "" {
		format = defaultFormat(stdout)
	}
	if format != config.FormatJSON && format != config.FormatText {
		return fmt.Errorf("unsupported output format: %s (use 'json' or 'text')", *outputFormat)
	}
	if *k < 0 {
		return fmt.Errorf("-k must not be negative")
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New(usage)
	}
	command, rest := rest[0], rest[1:]

	log := logger.Init(stderr, *debug)
	cache := newDocNameCache(*memory, log)

	// Handle cachefile command (no backend required)
	if command == "cachefile" {
		cachePath, err := getDocCacheFilePath()
		if err != nil {
			return fmt.Errorf("failed to get doc cache file path: %w", err)
		}
		fmt.Fprintln(stdout, cachePath)
		return nil
	}

	clientOpts := []docproc.Option{
		docproc.WithLogger(log),
		docproc.WithUserAgent("docproc-go/" + version),
	}
	if *timeout > 0 {
		clientOpts = append(clientOpts, docproc.WithTimeout(*timeout))
	}
	if *trace {
		shutdown, err := telemetry.InitTracer(stderr, "docproc", version)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("Failed to shut down tracer", "err", err)
			}
		}()
		clientOpts = append(clientOpts, docproc.WithTracing())
	}

	a := &app{
		opts: options{
			format:       format,
			forceRefresh: *forceRefresh,
			cacheTTL:     cfg.CacheTTL(),
			xlsx:         *xlsx,
			k:            *k,
			yes:          *yes,
		},
		client: docproc.NewClient(*baseURL, clientOpts...),
		cache:  cache,
		log:    log,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	switch command {
	case "home":
		return a.home(ctx)
	case "docs":
		if len(rest) > 0 {
			id, err := parseID(rest[0])
			if err != nil {
				return err
			}
			return a.open(ctx, id, nil)
		}
		return a.docs(ctx)
	case "open":
		id, hl, err := parseOpenArgs(rest)
		if err != nil {
			return err
		}
		return a.open(ctx, id, hl)
	case "upload":
		if len(rest) != 1 {
			return fmt.Errorf("usage: docproc upload <file>")
		}
		return a.upload(ctx, rest[0])
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: docproc delete <id>")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		return a.delete(ctx, id)
	case "search":
		return a.search(ctx, strings.Join(rest, " "))
	case "ask":
		return a.ask(ctx, strings.Join(rest, " "))
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// defaultFormat picks text for a terminal and JSON for pipes and files.
func defaultFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return config.FormatText
		}
	}
	return config.FormatJSON
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID format: %s", s)
	}
	return id, nil
}

// parseOpenArgs accepts the id before or after the -page/-paragraph flags.
func parseOpenArgs(args []string) (int, *view.Highlight, error) {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 0, "Page of the highlighted paragraph")
	paragraph := fs.Int("paragraph", 0, "Paragraph to highlight")

	if err := fs.Parse(args); err != nil {
		return 0, nil, fmt.Errorf("parse open flags: %w", err)
	}
	if fs.NArg() == 0 {
		return 0, nil, fmt.Errorf("usage: docproc open [-page N -paragraph N] <id>")
	}
	idArg := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 0, nil, fmt.Errorf("parse open flags: %w", err)
	}
	if fs.NArg() > 0 {
		return 0, nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	id, err := parseID(idArg)
	if err != nil {
		return 0, nil, err
	}
	if *page == 0 && *paragraph == 0 {
		return id, nil, nil
	}
	return id, &view.Highlight{Page: *page, Paragraph: *paragraph}, nil
}

// stdinConfirmer asks on out and reads a y/N answer from in.
func stdinConfirmer(in io.Reader, out io.Writer) view.Confirmer {
	r := bufio.NewReader(in)
	return view.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func (a *app) text() bool { return a.opts.format == config.FormatText }

// docNames resolves filenames for citations. Failures only cost the labels.
func (a *app) docNames(ctx context.Context) map[int]string {
	names, err := a.cache.names(ctx, a.client, a.opts.forceRefresh, a.opts.cacheTTL)
	if err != nil {
		a.log.Warn("Could not fetch documents for name resolution", "err", err)
		return map[int]string{}
	}
	return names
}

// writeXLSX runs fill against a new workbook and saves it to -xlsx, if set.
func (a *app) writeXLSX(fill func(*export.Workbook) error) error {
	if a.opts.xlsx == "" {
		return nil
	}
	wb, err := export.New()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := fill(wb); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := wb.SaveAs(a.opts.xlsx); err != nil {
		return err
	}
	a.log.Info("Wrote workbook", "path", a.opts.xlsx)
	return nil
}

func (a *app) home(ctx context.Context) error {
	h := view.NewHome(a.client)
	if err := h.Load(ctx); err != nil {
		return err
	}
	s := h.Snapshot()

	if a.text() {
		return render.Home(a.stdout, s, time.Now())
	}
	recent := make([]DocumentOutput, len(s.Recent))
	for i, d := range s.Recent {
		recent[i] = convertDocToOutput(d)
	}
	return outputJSON(a.stdout, HomeOutput{Total: s.Total, Recent: recent})
}

func (a *app) docs(ctx context.Context) error {
	d := view.NewDocuments(a.client, nil)
	if err := d.Load(ctx); err != nil {
		return err
	}
	s := d.Snapshot()
	a.cache.remember(s.Documents)

	if err := a.writeXLSX(func(wb *export.Workbook) error { return wb.AddDocuments(s.Documents) }); err != nil {
		return err
	}
	if a.text() {
		if err := render.UploadHint(a.stdout); err != nil {
			return err
		}
		return render.DocumentList(a.stdout, s.Documents, time.Now())
	}
	return outputJSON(a.stdout, convertDocsToOutput(s.Documents))
}

func (a *app) open(ctx context.Context, id int, hl *view.Highlight) error {
	m := view.NewModal(a.client)
	var err error
	if hl != nil {
		err = m.OpenCitation(ctx, id, *hl)
	} else {
		err = m.Open(ctx, id)
	}
	if err != nil {
		return err
	}
	mv := m.Snapshot()

	if a.text() {
		return render.Modal(a.stdout, mv)
	}
	return outputJSON(a.stdout, convertDetailToOutput(mv))
}

func (a *app) upload(ctx context.Context, path string) error {
	f, err := view.FileFromPath(path)
	if err != nil {
		return err
	}

	d := view.NewDocuments(a.client, nil)
	d.SelectFile(f)
	warnings := d.Snapshot().Warnings
	for _, w := range warnings {
		a.log.Warn("Upload may be rejected", "file", f.Name, "reason", w)
	}

	// A failed refetch after a successful upload is reported, not fatal.
	if err := d.Upload(ctx); err != nil && d.Snapshot().UploadStatus != view.Succeeded {
		return err
	}
	s := d.Snapshot()
	s.Warnings = warnings
	if s.ListStatus == view.Succeeded {
		a.cache.remember(s.Documents)
	} else {
		a.log.Warn("Could not refresh document list", "err", s.Error)
	}

	if a.text() {
		return render.Documents(a.stdout, s, time.Now())
	}
	return outputJSON(a.stdout, UploadOutput{
		Upload:    s.LastUpload,
		Warnings:  s.Warnings,
		Documents: convertDocsToOutput(s.Documents),
	})
}

func (a *app) delete(ctx context.Context, id int) error {
	confirm := stdinConfirmer(a.stdin, a.stderr)
	if a.opts.yes {
		confirm = view.ConfirmFunc(func(string) bool { return true })
	}

	d := view.NewDocuments(a.client, confirm)
	err := d.Delete(ctx, id)
	if errors.Is(err, view.ErrCancelled) {
		fmt.Fprintln(a.stderr, "Cancelled")
		return nil
	}
	if err != nil && d.Snapshot().DeleteStatus != view.Succeeded {
		return err
	}
	s := d.Snapshot()
	if s.ListStatus == view.Succeeded {
		a.cache.remember(s.Documents)
	} else {
		a.log.Warn("Could not refresh document list", "err", s.Error)
	}

	if a.text() {
		fmt.Fprintf(a.stdout, "Deleted document %d\n", id)
		return render.DocumentList(a.stdout, s.Documents, time.Now())
	}
	return outputJSON(a.stdout, convertDocsToOutput(s.Documents))
}

func (a *app) search(ctx context.Context, query string) error {
	sv := view.NewSearch(a.client)
	sv.K = a.opts.k
	if err := sv.Submit(ctx, query); err != nil {
		return err
	}
	s := sv.Snapshot()

	results := make([]docproc.SearchResult, len(s.Results))
	for i, r := range s.Results {
		results[i] = r.SearchResult
	}
	if err := a.writeXLSX(func(wb *export.Workbook) error { return wb.AddSearchResults(s.Query, results) }); err != nil {
		return err
	}

	var names map[int]string
	if len(s.Results) > 0 {
		names = a.docNames(ctx)
	}
	if a.text() {
		return render.Search(a.stdout, s, names)
	}
	return outputJSON(a.stdout, convertSearchToOutput(s, names))
}

func (a *app) ask(ctx context.Context, question string) error {
	q := view.NewQA(a.client)
	q.K = a.opts.k
	if err := q.Submit(ctx, question); err != nil {
		return err
	}
	s := q.Snapshot()

	if err := a.writeXLSX(func(wb *export.Workbook) error { return wb.AddAnswers(s.Question, s.Answers) }); err != nil {
		return err
	}

	var names map[int]string
	for _, ans := range s.Answers {
		if _, _, _, ok := ans.Citation(); ok {
			names = a.docNames(ctx)
			break
		}
	}
	if a.text() {
		return render.Answers(a.stdout, s, names)
	}
	return outputJSON(a.stdout, convertAnswersToOutput(s, names))
}
