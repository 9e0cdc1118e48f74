package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"runtime"
	"runtime/pprof"
	"slices"

	"github.com/jacoelho/xmlpull"
	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

type config struct {
	entitiesPath   string
	encoding       string
	filter         string
	cpuProfilePath string
	memProfilePath string
	declared       bool
	skipDTD        bool
	strictNames    bool
	charset        bool
	count          bool
	verbose        bool
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xmltok", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfg config
	fs.StringVar(&cfg.entitiesPath, "entities", "", "YAML file mapping entity names to replacement text")
	fs.BoolVar(&cfg.declared, "declared", false, "expand entities declared in the internal DOCTYPE subset")
	fs.BoolVar(&cfg.skipDTD, "skip-dtd", false, "skip the internal DOCTYPE subset without parsing it")
	fs.BoolVar(&cfg.strictNames, "strict-names", false, "check names against the full XML 1.0 character tables")
	fs.BoolVar(&cfg.charset, "charset", false, "decode documents that declare a non-UTF-8 encoding")
	fs.StringVar(&cfg.encoding, "encoding", "", "decode the whole input from this encoding label")
	fs.StringVar(&cfg.filter, "filter", "", "only print tokens matching this expression (kind, name, text, line, depth, attrs)")
	fs.BoolVar(&cfg.count, "count", false, "print token counts per kind instead of tokens")
	fs.BoolVar(&cfg.verbose, "v", false, "log parser tracing to stderr")
	fs.StringVar(&cfg.cpuProfilePath, "cpuprofile", "", "write CPU profile to file")
	fs.StringVar(&cfg.memProfilePath, "memprofile", "", "write memory profile to file")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s [options] <document.xml>\n\n", fs.Name()),
			writeln(stderr, "Prints the token stream of an XML document."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	remaining := fs.Args()
	if len(remaining) != 1 {
		if err := writeln(stderr, "error: exactly one XML file argument is required"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}
	xmlPath := remaining[0]

	if cfg.cpuProfilePath != "" {
		stopCPUProfile, err := startCPUProfile(cfg.cpuProfilePath)
		if err != nil {
			_ = writef(stderr, "error starting CPU profile: %v\n", err)
			return 1
		}
		defer func() {
			if err := stopCPUProfile(); err != nil {
				_ = writef(stderr, "error stopping CPU profile: %v\n", err)
			}
		}()
	}

	if cfg.memProfilePath != "" {
		defer func() {
			if err := writeMemProfile(cfg.memProfilePath); err != nil {
				_ = writef(stderr, "error writing memory profile: %v\n", err)
			}
		}()
	}

	if err := tokenize(cfg, xmlPath, stdout, stderr); err != nil {
		if perr, ok := xmlerrors.AsError(err); ok {
			_ = writef(stderr, "%s:%d: %v\n", xmlPath, perr.Line, perr)
			return 1
		}
		_ = writef(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func tokenize(cfg config, xmlPath string, stdout, stderr io.Writer) error {
	opts, err := parserOptions(cfg, stderr)
	if err != nil {
		return err
	}

	var match *tokenFilter
	if cfg.filter != "" {
		match, err = compileFilter(cfg.filter)
		if err != nil {
			return err
		}
	}

	f, err := os.Open(xmlPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", xmlPath, err)
	}
	defer f.Close()

	input, err := decodeInput(f, cfg.encoding)
	if err != nil {
		return err
	}

	p := xmlpull.NewParser(input, opts...)
	counts := make(map[string]int)
	for tok, err := range p.All() {
		if err != nil {
			return err
		}
		if match != nil {
			ok, err := match.match(tok, p.Depth())
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		if cfg.count {
			counts[tok.Kind.String()]++
			continue
		}
		if err := writef(stdout, "%d\t%s\n", tok.Line, tok); err != nil {
			return err
		}
	}

	if cfg.count {
		for _, kind := range slices.Sorted(maps.Keys(counts)) {
			if err := writef(stdout, "%s\t%d\n", kind, counts[kind]); err != nil {
				return err
			}
		}
	}
	return nil
}

func parserOptions(cfg config, stderr io.Writer) ([]xmlpull.Options, error) {
	opts := []xmlpull.Options{
		xmlpull.DeclaredEntities(cfg.declared),
		xmlpull.SkipInternalSubset(cfg.skipDTD),
		xmlpull.StrictNames(cfg.strictNames),
	}
	if cfg.entitiesPath != "" {
		entities, err := loadEntities(cfg.entitiesPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, xmlpull.WithEntityMap(entities))
	}
	switch {
	case cfg.encoding != "":
		opts = append(opts, xmlpull.WithCharsetReader(alreadyDecoded))
	case cfg.charset:
		opts = append(opts, xmlpull.WithCharsetReader(charsetReader))
	}
	if cfg.verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, xmlpull.WithLogger(logger))
	}
	return opts, nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}
