// zedstats - game-server log analytics and player identity reconciliation
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mvolk/zedstats/internal/collector"
	"github.com/mvolk/zedstats/internal/config"
	"github.com/mvolk/zedstats/internal/fetch"
	"github.com/mvolk/zedstats/internal/notify"
	"github.com/mvolk/zedstats/internal/stats"
	"github.com/mvolk/zedstats/internal/storage"
)

var version = "dev"

const defaultConfigPath = "zedstats.yml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Optional .env next to the binary; environment still wins over YAML.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "process":
		cmdProcess(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	case "history":
		cmdHistory(os.Args[2:])
	case "version":
		fmt.Printf("zedstats %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: zedstats <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  process [--config path] [--local dir]   Fetch logs, compute stats, persist the canonical store")
	fmt.Println("  validate [--config path] [--local dir]  Dry-run: compare computed stats against the persisted store")
	fmt.Println("  history [--config path] [--limit N]     Show recent runs from the history archive")
	fmt.Println("  version                                 Show version")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().Level(lvl)
}

// pipelineResult carries everything the subcommands need after one full
// pass over the inputs.
type pipelineResult struct {
	merge          *stats.MergeResult
	parse          collector.ParseStats
	connectSkipped int
}

func cmdProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	localDir := fs.String("local", "", "read inputs from a local directory instead of FTP")
	noNotify := fs.Bool("no-notify", false, "skip the NATS run notification")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	log := newLogger(cfg.Log.Level)
	started := time.Now().UTC()

	result, err := runPipeline(context.Background(), cfg, *localDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("processing failed")
	}

	store := newStore(cfg)
	if err := store.SavePlayers(result.merge.Players); err != nil {
		log.Fatal().Err(err).Msg("persisting player stats")
	}
	if err := store.SavePlaytime(result.merge.Playtime); err != nil {
		log.Fatal().Err(err).Msg("persisting playtime")
	}

	run := &storage.RunSummary{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Mode:       "process",
		Lines:      result.parse.Lines,
		Parsed:     result.parse.Parsed,
		Skipped:    result.parse.Skipped,
		Players:    len(result.merge.Players.Players),
		Unresolved: len(result.merge.Unresolved),
		Estimated:  result.merge.Playtime.Estimated,
	}
	if cfg.History.Path != "" {
		history, err := storage.OpenHistory(cfg.History.Path)
		if err != nil {
			log.Error().Err(err).Msg("opening run history")
		} else {
			if err := history.RecordRun(context.Background(), run, result.merge.Players, result.merge.Playtime); err != nil {
				log.Error().Err(err).Msg("recording run history")
			}
			history.Close()
		}
	}

	if !*noNotify && cfg.Notify.URL != "" {
		if err := notify.Publish(cfg.Notify.URL, cfg.Notify.Subject, run); err != nil {
			log.Warn().Err(err).Msg("run notification failed")
		}
	}

	log.Info().
		Int("lines", result.parse.Lines).
		Int("parsed", result.parse.Parsed).
		Int("skipped", result.parse.Skipped).
		Int("players", run.Players).
		Int("unresolved", run.Unresolved).
		Bool("estimated_playtime", run.Estimated).
		Msg("run complete")
	for _, name := range result.merge.Unresolved {
		log.Warn().Str("name", name).Msg("identity never resolved; persisted under synthetic key")
	}
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	localDir := fs.String("local", "", "read inputs from a local directory instead of FTP")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	log := newLogger(cfg.Log.Level)

	result, err := runPipeline(context.Background(), cfg, *localDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("processing failed")
	}

	persisted, err := newStore(cfg).LoadPlayers()
	if err != nil {
		log.Fatal().Err(err).Msg("loading persisted store")
	}
	report := stats.Validate(result.merge.Players, persisted)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, key := range report.UnresolvedPersisted {
		fmt.Fprintf(w, "UNRESOLVED\t%s\t(persisted; candidate for manual reconciliation)\n", key)
	}
	for _, diff := range report.Diffs {
		if diff.Missing {
			fmt.Fprintf(w, "MISSING\t%s\t%s\n", diff.Key, diff.Name)
			continue
		}
		var parts []string
		for _, f := range diff.Fields {
			parts = append(parts, fmt.Sprintf("%s %d -> %d", f.Field, f.Old, f.New))
		}
		fmt.Fprintf(w, "DIFF\t%s\t%s\t%s\n", diff.Key, diff.Name, strings.Join(parts, ", "))
	}
	w.Flush()

	fmt.Printf("%d discrepancies\n", report.Count())
	if report.Count() > 0 {
		os.Exit(1)
	}
}

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	limit := fs.Int("limit", 20, "number of runs to show")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	history, err := storage.OpenHistory(cfg.History.Path)
	if err != nil {
		fatal(err)
	}
	defer history.Close()

	runs, err := history.RecentRuns(context.Background(), *limit)
	if err != nil {
		fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tLINES\tPARSED\tSKIPPED\tPLAYERS\tUNRESOLVED\tESTIMATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%v\n",
			run.StartedAt.Format(time.DateTime), run.Mode, run.Lines, run.Parsed,
			run.Skipped, run.Players, run.Unresolved, run.Estimated)
	}
	w.Flush()
}

// runPipeline performs one complete pass: fetch, parse, classify,
// aggregate, resolve, reconstruct sessions and merge.
func runPipeline(ctx context.Context, cfg *config.Config, localDir string, log zerolog.Logger) (*pipelineResult, error) {
	source, err := newSource(cfg, localDir)
	if err != nil {
		return nil, err
	}

	// The raw event log is the one required input.
	eventData, err := source.Fetch(ctx, cfg.Server.EventLog)
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}

	connectData, err := source.Fetch(ctx, cfg.Server.ConnectLog)
	if err != nil {
		if !errors.Is(err, fetch.ErrNotFound) {
			return nil, err
		}
		log.Warn().Str("file", cfg.Server.ConnectLog).Msg("no connect log; playtime will be estimated from activity")
		connectData = nil
	}

	feed := map[string]string{}
	feedData, err := source.Fetch(ctx, cfg.Server.IdentityFeed)
	switch {
	case err == nil:
		feed, err = collector.ParseIdentityFeed(bytes.NewReader(feedData))
		if err != nil {
			return nil, fmt.Errorf("identity feed: %w", err)
		}
	case errors.Is(err, fetch.ErrNotFound):
		log.Warn().Str("file", cfg.Server.IdentityFeed).Msg("no identity feed; resolving from log and playtime only")
	default:
		return nil, err
	}

	events, parseStats, err := collector.ParseLog(bytes.NewReader(eventData))
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}

	agg := stats.NewAggregator()
	for _, event := range events {
		agg.Apply(event)
	}

	store := newStore(cfg)
	priorPlaytime, err := store.LoadPlaytime()
	if err != nil {
		return nil, err
	}

	idmap := stats.BuildIdentityMap(feed, agg.Records(), priorPlaytime.Players)
	unresolved := stats.Resolve(agg.Records(), idmap)

	var set *stats.SessionSet
	connectSkipped := 0
	if connectData != nil {
		sessionEvents, skipped, err := collector.ParseConnectLog(bytes.NewReader(connectData))
		if err != nil {
			return nil, fmt.Errorf("connect log: %w", err)
		}
		connectSkipped = skipped
		set = stats.ReconstructSessions(sessionEvents)
	} else {
		set = stats.EstimateSessions(agg.Activity(), agg.Names(), cfg.Session.Gap, cfg.Session.Padding)
	}

	merged := stats.Merge(agg.Records(), set, unresolved, priorPlaytime, time.Now().UTC())

	if connectSkipped > 0 {
		log.Debug().Int("skipped", connectSkipped).Msg("connect log lines not matching the expected format")
	}

	return &pipelineResult{
		merge:          merged,
		parse:          parseStats,
		connectSkipped: connectSkipped,
	}, nil
}

func newStore(cfg *config.Config) *storage.Store {
	return storage.NewStore(cfg.Output.StatsPath, cfg.Output.PlaytimePath, cfg.Output.BackupDir, cfg.Output.BackupsKeep)
}

func newSource(cfg *config.Config, localDir string) (fetch.Source, error) {
	if localDir != "" {
		return &fetch.LocalSource{Dir: localDir}, nil
	}
	if cfg.Server.Addr == "" {
		return nil, fmt.Errorf("no FTP address configured and no --local directory given")
	}
	password := cfg.Server.Password
	if password == "" {
		fmt.Fprintf(os.Stderr, "FTP password for %s@%s: ", cfg.Server.User, cfg.Server.Addr)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		password = string(raw)
	}
	return &fetch.FTPSource{
		Addr:     cfg.Server.Addr,
		User:     cfg.Server.User,
		Password: password,
		Dir:      cfg.Server.LogDir,
	}, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
