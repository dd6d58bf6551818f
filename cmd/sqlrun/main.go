// Command sqlrun executes a multi-statement SQL script against a
// database through the fluent facade: the script runs inside one
// transaction, with optional per-statement error skipping, T-SQL aware
// splitting and a deadline.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/buckelieg/fluentsql/adapter"
	"github.com/buckelieg/fluentsql/fluent"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sqlrun", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		readStdin  = fs.Bool("s", false, "Read the script from stdin")
		readStdinL = fs.Bool("stdin", false, "Read the script from stdin")
		dialect    = fs.String("dialect", "postgres", "SQL dialect (postgres, mysql, sqlserver, sqlite)")
		host       = fs.String("host", "localhost", "Database host")
		port       = fs.Int("port", 0, "Database port (0 uses the dialect default)")
		database   = fs.String("db", "", "Database name")
		username   = fs.String("u", "", "Database user")
		usernameL  = fs.String("user", "", "Database user")
		password   = fs.String("pass", "", "Database password")
		sslMode    = fs.String("sslmode", "disable", "SSL mode (postgres)")
		filePath   = fs.String("path", "", "Database file path (sqlite)")
		delimiter  = fs.String("delimiter", ";", "Statement delimiter")
		skipErrs   = fs.Bool("k", false, "Report failed statements and keep going")
		skipErrsL  = fs.Bool("skip-errors", false, "Report failed statements and keep going")
		tsql       = fs.Bool("tsql", false, "Split the script with the T-SQL parser")
		timeout    = fs.Duration("timeout", 0, "Deadline for the whole script (0 disables)")
		verbose    = fs.Bool("v", false, "Trace every statement to stderr")
		verboseL   = fs.Bool("verbose", false, "Trace every statement to stderr")
		showHelp   = fs.Bool("h", false, "Show help")
		helpL      = fs.Bool("help", false, "Show help")
		showVer    = fs.Bool("version", false, "Show version")
	)

	fs.Usage = func() {
		printUsage(stderr)
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Coalesce short and long flags
	if *readStdinL {
		*readStdin = true
	}
	if *usernameL != "" {
		*username = *usernameL
	}
	if *skipErrsL {
		*skipErrs = true
	}
	if *verboseL {
		*verbose = true
	}
	if *helpL {
		*showHelp = true
	}

	if *showHelp {
		printUsage(stdout)
		return 0
	}
	if *showVer {
		fmt.Fprintf(stdout, "sqlrun version %s\n", version)
		return 0
	}

	remainingArgs := fs.Args()
	scriptFile := ""
	if len(remainingArgs) > 1 {
		fmt.Fprintln(stderr, "error: too many arguments")
		return 2
	}
	if len(remainingArgs) == 1 {
		scriptFile = remainingArgs[0]
	}

	if scriptFile == "" && !*readStdin {
		printUsage(stdout)
		return 0
	}
	if scriptFile != "" && *readStdin {
		fmt.Fprintln(stderr, "error: cannot combine a script file with --stdin")
		return 2
	}

	cfg := &config{
		scriptFile: scriptFile,
		readStdin:  *readStdin,
		dialect:    *dialect,
		host:       *host,
		port:       *port,
		database:   *database,
		username:   *username,
		password:   *password,
		sslMode:    *sslMode,
		filePath:   *filePath,
		delimiter:  *delimiter,
		skipErrs:   *skipErrs,
		tsql:       *tsql,
		timeout:    *timeout,
		verbose:    *verbose,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}

	if err := execute(cfg); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

type config struct {
	scriptFile string
	readStdin  bool
	dialect    string
	host       string
	port       int
	database   string
	username   string
	password   string
	sslMode    string
	filePath   string
	delimiter  string
	skipErrs   bool
	tsql       bool
	timeout    time.Duration
	verbose    bool
	// IO
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func provider(cfg *config) (adapter.Provider, error) {
	ac := adapter.DefaultConfig()
	ac.Host = cfg.host
	ac.Port = cfg.port // 0 lets the provider pick its dialect default
	ac.Database = cfg.database
	ac.Username = cfg.username
	ac.Password = cfg.password
	ac.SSLMode = cfg.sslMode

	switch cfg.dialect {
	case "postgres":
		return adapter.NewPostgres(ac), nil
	case "mysql":
		return adapter.NewMySQL(ac), nil
	case "sqlserver":
		return adapter.NewSQLServer(ac), nil
	case "sqlite":
		if cfg.filePath == "" {
			return nil, fmt.Errorf("sqlite dialect requires --path")
		}
		return adapter.NewSQLite(cfg.filePath), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", cfg.dialect)
	}
}

func execute(cfg *config) error {
	p, err := provider(cfg)
	if err != nil {
		return err
	}

	var opts []fluent.Option
	if cfg.verbose {
		logger := slog.New(slog.NewTextHandler(cfg.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, fluent.WithTracer(fluent.NewSlogTracer(logger)))
	}
	db := fluent.New(p, opts...)
	defer db.Close()

	var script *fluent.Script
	if cfg.readStdin {
		text, err := io.ReadAll(cfg.stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		script = db.Script(string(text))
	} else {
		script = db.ScriptFile(cfg.scriptFile)
	}

	script.Delimiter(cfg.delimiter)
	if cfg.tsql {
		script.TSQL()
	}
	if cfg.timeout > 0 {
		script.Timeout(cfg.timeout)
	}

	failed := 0
	if cfg.skipErrs {
		script.SkipErrors(func(i int, stmt string, err error) {
			failed++
			fmt.Fprintf(cfg.stderr, "statement %d failed: %v\n", i+1, err)
		})
	}

	if err := script.Execute(context.Background()); err != nil {
		return err
	}
	if failed > 0 {
		fmt.Fprintf(cfg.stdout, "done with %d failed statement(s)\n", failed)
	} else {
		fmt.Fprintln(cfg.stdout, "done")
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `sqlrun %s - run a SQL script through one transaction

Usage:
  sqlrun [options] script.sql
  sqlrun [options] -s < script.sql

Connection:
  -dialect name    SQL dialect: postgres, mysql, sqlserver, sqlite (default postgres)
  -host host       Database host (default localhost)
  -port n          Database port (0 uses the dialect default)
  -db name         Database name
  -u, -user name   Database user
  -pass secret     Database password
  -sslmode mode    SSL mode for postgres (default disable)
  -path file       Database file for sqlite

Script:
  -s, -stdin           Read the script from stdin
  -delimiter s         Statement delimiter (default ";")
  -tsql                Split with the T-SQL parser
  -k, -skip-errors     Report failed statements and keep going
  -timeout d           Deadline for the whole script, e.g. 30s

Other:
  -v, -verbose     Trace every statement to stderr
  -version         Show version
  -h, -help        Show help
`, version)
}
