package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lostfound/lostfound/internal/api"
	"github.com/lostfound/lostfound/internal/auth"
	"github.com/lostfound/lostfound/internal/config"
	"github.com/lostfound/lostfound/internal/ratelimit"
	"github.com/lostfound/lostfound/internal/service"
	"github.com/lostfound/lostfound/internal/store"
	"github.com/lostfound/lostfound/internal/upload"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogHandler builds the stdout/stderr handler, teeing both streams into
// file when it is non-nil.
func newLogHandler(stdout, stderr, file io.Writer, level slog.Level) slog.Handler {
	if file != nil {
		stdout = io.MultiWriter(stdout, file)
		stderr = io.MultiWriter(stderr, file)
	}
	opts := &slog.HandlerOptions{Level: level}
	return &levelRouter{
		min:    level,
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. Returns a cleanup function that
// closes the log file (if opened).
func setupLogger(logPath, level string) (func(), error) {
	var file *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
	}

	var w io.Writer
	if file != nil {
		w = file
	}
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, os.Stderr, w, parseLevel(level))))

	if file == nil {
		return func() {}, nil
	}
	return func() { file.Close() }, nil
}

type flags struct {
	configPath string
	addr       string
	dbURL      string
	logPath    string
}

func parseFlags(args []string) (string, flags, *flag.FlagSet, error) {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("lostfound", flag.ContinueOnError)
	var f flags
	fs.StringVar(&f.configPath, "config", "", "")
	fs.StringVar(&f.configPath, "c", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.dbURL, "db", "", "")
	fs.StringVar(&f.dbURL, "d", "", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: lostfound [serve|migrate] [flags]

Commands:
  serve                   run the HTTP API (default)
  migrate                 create tables, collections and indexes, then exit

Flags:
  -c, -config <path>      YAML config file (default: $CONFIG_FILE)
  -a, -addr <host:port>   listen address (default: :$PORT or :8080)
  -d, -db <url>           database URL: sqlite://path, path, or mongodb://...
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return "", f, fs, err
	}
	if fs.NArg() > 0 {
		return "", f, fs, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cmd != "serve" && cmd != "migrate" {
		return "", f, fs, fmt.Errorf("unknown command: %s", cmd)
	}
	return cmd, f, fs, nil
}

// apply overrides cfg with the flags that were set.
func (f flags) apply(cfg *config.Config) {
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.dbURL != "" {
		cfg.DatabaseURL = f.dbURL
	}
	if f.logPath != "" {
		cfg.LogFile = f.logPath
	}
}

func main() {
	cmd, f, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)

	closeLog, err := setupLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	var runErr error
	switch cmd {
	case "migrate":
		runErr = migrate(cfg)
	default:
		runErr = serve(cfg)
	}
	if runErr != nil {
		slog.Error(cmd+" failed", "error", runErr)
		closeLog()
		os.Exit(1)
	}
}

// migrate opens the database, which creates any missing schema, and exits.
func migrate(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	slog.Info("schema ready", "database", redact(cfg.DatabaseURL))
	return nil
}

func serve(cfg *config.Config) error {
	if cfg.JWTSecret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		cfg.JWTSecret = secret
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	cancel()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()
	slog.Info("database ready", "database", redact(cfg.DatabaseURL))

	disk, err := upload.NewDisk(cfg.UploadDir)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Items: &service.Items{Store: st, Files: disk},
		Auth: &service.Auth{
			Store:      st,
			Files:      disk,
			Secret:     cfg.JWTSecret,
			TokenTTL:   cfg.TokenTTL,
			BcryptCost: cfg.BcryptCost,
		},
		Files:       disk.Handler(cfg.UploadURLPrefix),
		FilesPrefix: cfg.UploadURLPrefix,
		Ping:        st.Ping,
	}

	if cfg.RateLimitEnabled() {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.AuthRateLimitPerMinute, time.Minute)
		if err != nil {
			return fmt.Errorf("creating rate limiter: %w", err)
		}
		defer limiter.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = limiter.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		deps.Limiter = limiter
		slog.Info("auth rate limit enabled", "perMinute", cfg.AuthRateLimitPerMinute)
	}

	handler := api.LoggingMiddleware(
		api.CORSMiddleware(cfg.AllowedOrigins)(
			api.TimeoutMiddleware(cfg.RequestTimeout)(
				api.NewRouter(deps),
			),
		),
	)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.Addr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// redact hides credentials in a database URL before it is logged.
func redact(databaseURL string) string {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return databaseURL
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return databaseURL
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}
