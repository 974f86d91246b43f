// Command anagramist runs the letter-bank sentence search of spec.md:
// `solve` drives the search loop to completion or exhaustion; `candidates`,
// `check`, and `prune` inspect and maintain a persisted search tree.
//
// Grounded on the teacher's cmd/sqlite3def flag-struct style: a single
// go-flags parser, one subcommand per verb, os.Exit only at the
// outermost layer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/lonnen/anagramist/internal/admin"
	"github.com/lonnen/anagramist/internal/anaerr"
	"github.com/lonnen/anagramist/internal/config"
	"github.com/lonnen/anagramist/internal/logging"
	"github.com/lonnen/anagramist/internal/oracle"
	"github.com/lonnen/anagramist/internal/puzzle"
	"github.com/lonnen/anagramist/internal/search"
	"github.com/lonnen/anagramist/internal/store"
	"github.com/lonnen/anagramist/internal/validate"
	"github.com/lonnen/anagramist/internal/vocab"

	_ "github.com/lonnen/anagramist/internal/store/mssqlstore"
	_ "github.com/lonnen/anagramist/internal/store/mysqlstore"
	_ "github.com/lonnen/anagramist/internal/store/postgresstore"
	_ "github.com/lonnen/anagramist/internal/store/sqlitestore"
)

type solveCmd struct {
	Profile     string  `long:"profile" description:"Named puzzle profile (only c1663 ships built in)" default:"c1663"`
	ProfilePath string  `long:"profile-file" description:"YAML puzzle profile, overrides --profile"`
	Vocabulary  string  `long:"vocabulary" description:"Newline-delimited word list" required:"true"`
	Config      string  `long:"config" description:"YAML search config"`
	Seed        int64   `long:"seed" description:"PRNG seed" default:"1"`
	Temperature float64 `long:"temperature" description:"Selection softmax temperature" default:"1.0"`
}

type candidatesCmd struct {
	Trim   bool   `long:"trim" description:"Delete descendants of the given prefix"`
	Status *int   `long:"status" description:"Override the prefix's status"`
	K      int    `long:"k" default:"10" description:"Top-k rows to show"`
	Args   struct {
		Prefix string `positional-arg-name:"prefix"`
	} `positional-args:"yes" required:"yes"`
}

type checkCmd struct {
	CandidateOnly bool   `long:"candidate-only" description:"Only check the full sentence, not every prefix"`
	JSON          bool   `long:"json" description:"Emit a JSON array of tuples"`
	Profile       string `long:"profile" default:"c1663"`
	Vocabulary    string `long:"vocabulary" description:"Newline-delimited word list, needed to evaluate the longest-word-feasible constraint"`
	Args          struct {
		Sentence string `positional-arg-name:"sentence"`
	} `positional-args:"yes" required:"yes"`
}

type pruneCmd struct {
	Args struct {
		Words []string `positional-arg-name:"word"`
	} `positional-args:"yes" required:"yes"`
}

type options struct {
	Solve      solveCmd      `command:"solve"`
	Candidates candidatesCmd `command:"candidates"`
	Check      checkCmd      `command:"check"`
	Prune      pruneCmd      `command:"prune"`
}

func main() {
	logging.Init()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(exitCodeFor(err))
	}

	ctx := context.Background()
	var err error
	switch parser.Active.Name {
	case "solve":
		err = runSolve(ctx, opts.Solve)
	case "candidates":
		err = runCandidates(ctx, opts.Candidates)
	case "check":
		err = runCheck(opts.Check)
	case "prune":
		err = runPrune(ctx, opts.Prune)
	default:
		fmt.Fprintln(os.Stderr, "no subcommand given")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a top-level error to spec.md §6's exit codes.
// Search exhaustion (exit 2) is signaled separately in runSolve via
// os.Exit, since it isn't an error at all; everything reaching here is
// either a go-flags usage error (exit 0 for --help, 1 otherwise) or a
// genuine failure (1).
func exitCodeFor(err error) int {
	if err == flags.ErrHelp {
		return 0
	}
	var fe *flags.Error
	if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
		return 0
	}
	return 1
}

func openStore(dsn string) (store.Store, error) {
	return store.Open(context.Background(), dsn)
}

func loadProfile(name, path string) (puzzle.Profile, error) {
	if path != "" {
		return puzzle.Load(path)
	}
	if name == "c1663" || name == "" {
		return puzzle.C1663, nil
	}
	return puzzle.Profile{}, anaerr.New(anaerr.ConfigError, "loadProfile", fmt.Errorf("unknown profile %q", name))
}

func loadVocabulary(path string) (*vocab.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, anaerr.New(anaerr.ConfigError, "loadVocabulary", err)
	}
	var tokens []vocab.Token
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			tokens = append(tokens, vocab.Token(line))
		}
	}
	return vocab.New(tokens), nil
}

func runSolve(ctx context.Context, c solveCmd) error {
	profile, err := loadProfile(c.Profile, c.ProfilePath)
	if err != nil {
		return err
	}
	v, err := loadVocabulary(c.Vocabulary)
	if err != nil {
		return err
	}

	cfg := config.DefaultSearch()
	if c.Config != "" {
		cfg, err = config.LoadSearch(c.Config)
		if err != nil {
			return anaerr.New(anaerr.ConfigError, "runSolve", err)
		}
	}

	st, err := openStore(cfg.StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	validator := validate.New(profile, v)
	loop := search.New(st, v, validator, oracle.Stub{}, c.Seed, c.Temperature)
	loop.MaxOracleRetries = cfg.MaxOracleRetries
	if cfg.WallClockBudgetSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.WallClockBudgetSeconds)*time.Second)
		defer cancel()
	}

	result, err := loop.Run(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("search exhausted: no solution found")
		os.Exit(2)
	}
	fmt.Printf("solved: %q (score=%g)\n", result.Sentence, result.Score)
	return nil
}

func runCandidates(ctx context.Context, c candidatesCmd) error {
	st, err := openStore(config.DefaultSearch().StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Trim {
		var newStatus *validate.Status
		if c.Status != nil {
			s := validate.Status(*c.Status)
			newStatus = &s
		}
		return admin.Trim(ctx, st, c.Args.Prefix, newStatus)
	}

	report, err := admin.Candidates(ctx, st, c.Args.Prefix, c.K)
	if err != nil {
		return err
	}
	pp.ColoringEnabled = isTerminal(os.Stdout)
	pp.Println(report)
	return nil
}

func runCheck(c checkCmd) error {
	profile, err := loadProfile(c.Profile, "")
	if err != nil {
		return err
	}
	var v *vocab.Vocabulary
	if c.Vocabulary != "" {
		v, err = loadVocabulary(c.Vocabulary)
		if err != nil {
			return err
		}
	}
	validator := validate.New(profile, v)
	st, err := openStore(config.DefaultSearch().StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := admin.Check(context.Background(), st, validator, c.Args.Sentence, c.CandidateOnly)
	if err != nil {
		return err
	}

	if c.JSON {
		tuples := make([][]any, len(rows))
		for i, r := range rows {
			tuples[i] = r.JSONTuple()
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(tuples)
	}
	for _, r := range rows {
		fmt.Println(admin.FormatRow(r))
	}
	return nil
}

func runPrune(ctx context.Context, c pruneCmd) error {
	st, err := openStore(config.DefaultSearch().StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()
	return admin.Prune(ctx, st, c.Args.Words)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
