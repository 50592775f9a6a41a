package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/baechuer/redis-idle-scan/internal/config"
	"github.com/baechuer/redis-idle-scan/internal/domain"
	"github.com/baechuer/redis-idle-scan/internal/emitter"
	"github.com/baechuer/redis-idle-scan/internal/infrastructure/redis"
	"github.com/baechuer/redis-idle-scan/internal/logger"
	"github.com/baechuer/redis-idle-scan/internal/metrics"
	"github.com/baechuer/redis-idle-scan/internal/scan"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitRuntime = 2
)

// Run is the main entry point. args excludes the program name. A value on
// sigCh aborts the scan. Returns the exit code.
func Run(out io.Writer, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	inv, err := Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut)

		return ExitUsage
	}

	if inv.Help {
		printUsage(out)

		return ExitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fprintln(errOut, "error:", err)

		return ExitUsage
	}

	logger.InitWithWriter(errOut, inv.Debug)
	lg := logger.WithScanID(uuid.NewString())

	opts := inv.Options
	opts.Password = cfg.RedisPassword

	lg.Debug().EmbedObject(opts).Int("max_inflight", cfg.MaxInFlight).Msg("starting scan")

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	go func() {
		select {
		case sig := <-sigCh:
			lg.Warn().Str("signal", sig.String()).Msg("interrupted, aborting scan")
			cancel(fmt.Errorf("received %s", sig))
		case <-ctx.Done():
		}
	}()

	client, err := redis.Connect(ctx, redis.Target{
		Addr:             net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		MasterName:       opts.MasterName,
		Password:         opts.Password,
		SentinelPassword: cfg.RedisSentinelPassword,
		DB:               opts.DB,
		DialTimeout:      cfg.RedisDialTimeout,
		ReadTimeout:      cfg.RedisReadTimeout,
	})
	if err != nil {
		lg.Error().Err(err).Str("source", opts.Source()).Msg("redis connection failed")

		return ExitRuntime
	}
	defer client.Close()

	m := metrics.New()
	scanner := scan.NewScanner(
		opts,
		client.Pager(opts.Pattern, opts.ScanBatch),
		client.Fetcher(),
		scan.WithLogger(lg),
		scan.WithRecorder(m),
		scan.WithMaxInFlight(cfg.MaxInFlight),
	)

	summary, err := scanner.Run(ctx, emitter.NewLogEmitter(out))

	if cfg.MetricsTextfile != "" {
		if werr := m.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			lg.Warn().Err(werr).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics textfile")
		}
	}

	if err != nil {
		lg.Error().Err(err).Str("kind", string(domain.KindOf(err))).Msg("scan failed")

		return exitCode(err)
	}

	lg.Info().
		Int64("keys_scanned", summary.KeysScanned).
		Int64("keys_selected", summary.KeysSelected).
		Msg("scan complete")

	return ExitOK
}

func exitCode(err error) int {
	if domain.KindOf(err) == domain.KindValidation {
		return ExitUsage
	}

	return ExitRuntime
}

func printUsage(w io.Writer) {
	var v flagValues
	fs := newFlagSet(&v)

	fprintln(w, `Usage: `+programName+` <host>[:<port>] [<master_name>] [flags]

Walk the keyspace of a Redis server with SCAN and report keys by idle time,
TTL and name. Keys are never modified. Every selected key and a final summary
are written to stdout as JSON lines.

With <master_name>, <host>:<port> is a sentinel (default port 26379) and the
scan runs against a replica of that master. Otherwise the default port is 6379.

Flags:`)
	fprintln(w, fs.FlagUsages())
	fprintln(w, `Timeframes are <number><unit> with unit one of s, m, h, d, w (30m, 1w).
All configured criteria must hold for a key to be selected.

Environment:
  REDIS_PASSWORD            password for the data node
  REDIS_SENTINEL_PASSWORD   password for the sentinel
  REDIS_DIAL_TIMEOUT        connect timeout (default 5s)
  REDIS_READ_TIMEOUT        per-command read timeout (default 30s)
  SCAN_MAX_INFLIGHT         max outstanding metadata batches (default unbounded)
  METRICS_TEXTFILE          write Prometheus metrics here on exit (*.prom)
  LOG_LEVEL, LOG_FORMAT     diagnostic logging on stderr

Exit codes: 0 success, 1 invalid arguments, 2 runtime or connection error.`)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
