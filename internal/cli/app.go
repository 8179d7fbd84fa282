// Package cli implements the interactive command loop for composing,
// saving and inspecting a calendar.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"adventkeeper/internal/calendar"
	"adventkeeper/internal/config"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/fileproc"
	"adventkeeper/internal/logging"
	"adventkeeper/internal/media"
	"adventkeeper/internal/session"
	"adventkeeper/internal/store"
	"adventkeeper/internal/worker"

	_ "modernc.org/sqlite"
)

// App wires the store facade, the upload processor and the media resolver
// behind a small REPL. The calendar being edited lives in memory; nothing is
// persisted until an explicit save.
type App struct {
	config    *config.Config
	store     *store.Store
	processor *fileproc.Processor
	resolver  *media.Resolver
	cal       *calendar.Calendar
	reader    *bufio.Reader
	out       io.Writer
	log       logging.Logger
	now       func() time.Time
}

// NewApp builds the full object graph from configuration.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := session.InitDatabase(ctx, cfg.SessionDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	factory := func() (*engine.Engine, error) {
		return engine.New(cfg.StorageDir, log)
	}

	rpc, err := worker.NewClient(factory, cfg.RPCTimeout, log)
	if err != nil {
		return nil, err
	}

	sess := session.NewService(db)
	st := store.New(rpc, sess, log)

	resolver, err := media.NewResolver(st, cfg.StagingDir, log)
	if err != nil {
		return nil, err
	}

	return &App{
		config:    cfg,
		store:     st,
		processor: fileproc.NewProcessor(cfg.CompressionThresholdKB, log),
		resolver:  resolver,
		cal:       calendar.New(25),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		log:       log,
		now:       time.Now,
	}, nil
}

// Run loads any stored calendar and enters the command loop.
func (a *App) Run(ctx context.Context) {
	defer a.resolver.RevokeAll()
	defer a.store.Close()

	loaded, err := a.store.LoadCalendar(ctx)
	if err != nil {
		a.log.Error(ctx, "failed to load stored calendar", "error", err)
	} else if loaded != nil {
		a.cal = loaded
		fmt.Fprintf(a.out, "Loaded calendar: %d days, %d completed\n",
			len(a.cal.Days), a.cal.CompletedDays())
	}

	fmt.Fprintln(a.out, `Type "help" for commands.`)

	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "exit" || fields[0] == "quit" {
			return
		}

		if err := a.execute(ctx, fields); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
}
