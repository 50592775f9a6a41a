package cli

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/baechuer/redis-idle-scan/internal/domain"
	"github.com/baechuer/redis-idle-scan/internal/scan"
	"github.com/baechuer/redis-idle-scan/internal/timeframe"
)

const programName = "redis-idle-scan"

// Invocation is the validated result of parsing the command line.
type Invocation struct {
	Options scan.Options
	Debug   bool
	Help    bool
}

type flagValues struct {
	scanBatch int64
	scanLimit int64
	limit     int64
	debug     bool
	db        int
	maxIdle   string
	maxTTL    string
	minIdle   string
	minTTL    string
	noExpiry  bool
	pattern   string
	help      bool
}

func newFlagSet(v *flagValues) *flag.FlagSet {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // errors are reported by Run
	fs.SortFlags = false

	fs.Int64Var(&v.scanBatch, "scan-batch", scan.DefaultScanBatch, "SCAN COUNT hint: keys requested per page")
	fs.Int64Var(&v.scanLimit, "scan-limit", 0, "stop after examining this many keys (default unbounded)")
	fs.Int64Var(&v.limit, "limit", 0, "stop after selecting this many keys (default unbounded)")
	fs.IntVar(&v.db, "db", 0, "logical database index")
	fs.StringVar(&v.pattern, "pattern", scan.DefaultPattern, "only examine keys matching this glob")
	fs.StringVar(&v.maxIdle, "max-idle", "", "select keys idle for at most this timeframe")
	fs.StringVar(&v.minIdle, "min-idle", "", "select keys idle for at least this timeframe")
	fs.StringVar(&v.maxTTL, "max-ttl", "", "select keys expiring within this timeframe")
	fs.StringVar(&v.minTTL, "min-ttl", "", "select keys expiring no sooner than this timeframe")
	fs.BoolVar(&v.noExpiry, "no-expiry", false, "select only keys without an expiry")
	fs.BoolVar(&v.debug, "debug", false, "enable debug logging on stderr")
	fs.BoolVarP(&v.help, "help", "h", false, "show this help")

	return fs
}

// Parse turns command-line arguments (without the program name) into an
// Invocation. Every returned error is a validation error.
func Parse(args []string) (Invocation, error) {
	var v flagValues
	fs := newFlagSet(&v)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Invocation{Help: true}, nil
		}
		if strings.HasPrefix(err.Error(), "unknown") {
			return Invocation{}, domain.ErrUnsupportedOption(err)
		}
		return Invocation{}, domain.ErrInvalidArgument("flags", err.Error())
	}
	if v.help {
		return Invocation{Help: true}, nil
	}

	pos := fs.Args()
	switch {
	case len(pos) == 0:
		return Invocation{}, domain.ErrInvalidArgument("host", "missing <host>[:<port>]")
	case len(pos) > 2:
		return Invocation{}, domain.ErrInvalidArgument(pos[2], "unexpected argument")
	}

	var masterName string
	if len(pos) == 2 {
		masterName = strings.TrimSpace(pos[1])
		if masterName == "" {
			return Invocation{}, domain.ErrInvalidArgument("master_name", "must not be empty")
		}
	}

	defaultPort := scan.DefaultPort
	if masterName != "" {
		defaultPort = scan.DefaultSentinelPort
	}
	host, port, err := splitHostPort(pos[0], defaultPort)
	if err != nil {
		return Invocation{}, err
	}

	opts := scan.DefaultOptions(host)
	opts.Port = port
	opts.MasterName = masterName
	opts.DB = v.db
	opts.Pattern = v.pattern
	opts.ScanBatch = v.scanBatch
	opts.NoExpiry = v.noExpiry

	for _, lim := range []struct {
		name string
		val  int64
		dst  *int64
	}{
		{"scan-limit", v.scanLimit, &opts.ScanLimit},
		{"limit", v.limit, &opts.SelectLimit},
	} {
		if fs.Changed(lim.name) && lim.val < 1 {
			return Invocation{}, domain.ErrInvalidArgument("--"+lim.name, "must be >= 1")
		}
		*lim.dst = lim.val
	}

	for _, tf := range []struct {
		name string
		val  string
		dst  **int64
	}{
		{"max-idle", v.maxIdle, &opts.MaxIdle},
		{"min-idle", v.minIdle, &opts.MinIdle},
		{"max-ttl", v.maxTTL, &opts.MaxTTL},
		{"min-ttl", v.minTTL, &opts.MinTTL},
	} {
		if !fs.Changed(tf.name) {
			continue
		}
		secs, err := timeframe.Parse(tf.val)
		if err != nil {
			return Invocation{}, fmt.Errorf("--%s: %w", tf.name, err)
		}
		*tf.dst = &secs
	}

	if err := opts.Validate(); err != nil {
		return Invocation{}, err
	}

	return Invocation{Options: opts, Debug: v.debug}, nil
}

// splitHostPort accepts host, host:port, [v6] and [v6]:port.
func splitHostPort(s string, defaultPort int) (string, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", 0, domain.ErrInvalidArgument("host", "must not be empty")
	}

	host, portStr := s, ""
	switch {
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		host = s[1 : len(s)-1]
	case strings.HasPrefix(s, "[") || strings.Count(s, ":") == 1:
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			return "", 0, domain.ErrInvalidArgument("host", err.Error())
		}
		host, portStr = h, p
	}

	if host == "" {
		return "", 0, domain.ErrInvalidArgument("host", "must not be empty")
	}
	if portStr == "" {
		return host, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, domain.ErrInvalidArgument("port", fmt.Sprintf("invalid port %q", portStr))
	}
	return host, port, nil
}
