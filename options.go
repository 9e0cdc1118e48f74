package xmlpull

import (
	"io"
	"log/slog"
)

// Options holds parser configuration values.
// The zero value means no overrides.
type Options struct {
	charsetReader       func(label string, r io.Reader) (io.Reader, error)
	entityMap           map[string]string
	logger              *slog.Logger
	declaredEntities    bool
	skipInternalSubset  bool
	strictNames         bool
	maxDepth            int
	maxTokenSize        int
	maxEntityExpansions int

	charsetReaderSet       bool
	entityMapSet           bool
	loggerSet              bool
	declaredEntitiesSet    bool
	skipInternalSubsetSet  bool
	strictNamesSet         bool
	maxDepthSet            bool
	maxTokenSizeSet        bool
	maxEntityExpansionsSet bool
}

// JoinOptions combines multiple option sets into one in declaration order.
// Later options override earlier ones when set.
func JoinOptions(srcs ...Options) Options {
	var merged Options
	for _, src := range srcs {
		merged.merge(src)
	}
	return merged
}

func (opts *Options) merge(src Options) {
	if src.charsetReaderSet {
		opts.charsetReader = src.charsetReader
		opts.charsetReaderSet = true
	}
	if src.entityMapSet {
		opts.entityMap = src.entityMap
		opts.entityMapSet = true
	}
	if src.loggerSet {
		opts.logger = src.logger
		opts.loggerSet = true
	}
	if src.declaredEntitiesSet {
		opts.declaredEntities = src.declaredEntities
		opts.declaredEntitiesSet = true
	}
	if src.skipInternalSubsetSet {
		opts.skipInternalSubset = src.skipInternalSubset
		opts.skipInternalSubsetSet = true
	}
	if src.strictNamesSet {
		opts.strictNames = src.strictNames
		opts.strictNamesSet = true
	}
	if src.maxDepthSet {
		opts.maxDepth = src.maxDepth
		opts.maxDepthSet = true
	}
	if src.maxTokenSizeSet {
		opts.maxTokenSize = src.maxTokenSize
		opts.maxTokenSizeSet = true
	}
	if src.maxEntityExpansionsSet {
		opts.maxEntityExpansions = src.maxEntityExpansions
		opts.maxEntityExpansionsSet = true
	}
}

// WithEntityMap configures custom named entity replacements.
// Replacement text is parsed again at the point of use, so it may contain
// markup and further references. A nil map leaves the table absent.
func WithEntityMap(values map[string]string) Options {
	if values == nil {
		return Options{entityMapSet: true}
	}
	copyMap := make(map[string]string, len(values))
	for key, value := range values {
		copyMap[key] = value
	}
	return Options{entityMap: copyMap, entityMapSet: true}
}

// DeclaredEntities controls whether general entities declared in the
// internal DOCTYPE subset are recorded and expanded.
func DeclaredEntities(value bool) Options {
	return Options{declaredEntities: value, declaredEntitiesSet: true}
}

// SkipInternalSubset skips the internal DOCTYPE subset without parsing its
// declarations. Processing instructions inside the subset are not emitted.
func SkipInternalSubset(value bool) Options {
	return Options{skipInternalSubset: value, skipInternalSubsetSet: true}
}

// StrictNames enables the full XML 1.0 NameStartChar and NameChar checks.
// By default any non-ASCII byte is accepted inside a name.
func StrictNames(value bool) Options {
	return Options{strictNames: value, strictNamesSet: true}
}

// WithCharsetReader registers a decoder for non-UTF-8 documents.
// It is called with "utf-16be" or "utf-16le" after a UTF-16 byte order mark,
// or with the lower-cased label of a non-UTF-8 encoding declaration.
func WithCharsetReader(fn func(label string, r io.Reader) (io.Reader, error)) Options {
	return Options{charsetReader: fn, charsetReaderSet: true}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Options {
	return Options{logger: logger, loggerSet: true}
}

// MaxDepth limits element nesting depth.
func MaxDepth(value int) Options {
	return Options{maxDepth: value, maxDepthSet: true}
}

// MaxTokenSize limits the size in bytes of a single text, attribute value or
// processing instruction.
func MaxTokenSize(value int) Options {
	return Options{maxTokenSize: value, maxTokenSizeSet: true}
}

// MaxEntityExpansions limits how many custom or declared entity references
// are expanded in one document. When unset the limit is 10000; zero or a
// negative value removes it.
func MaxEntityExpansions(value int) Options {
	return Options{maxEntityExpansions: value, maxEntityExpansionsSet: true}
}

const defaultMaxEntityExpansions = 10000

type parserOptions struct {
	charsetReader       func(label string, r io.Reader) (io.Reader, error)
	entityMap           map[string]string
	logger              *slog.Logger
	maxDepth            int
	maxTokenSize        int
	maxEntityExpansions int
	declaredEntities    bool
	skipInternalSubset  bool
	strictNames         bool
}

func resolveOptions(opts Options) parserOptions {
	resolved := parserOptions{
		charsetReader:       opts.charsetReader,
		entityMap:           opts.entityMap,
		logger:              opts.logger,
		declaredEntities:    opts.declaredEntities,
		skipInternalSubset:  opts.skipInternalSubset,
		strictNames:         opts.strictNames,
		maxDepth:            normalizeLimit(opts.maxDepth),
		maxTokenSize:        normalizeLimit(opts.maxTokenSize),
		maxEntityExpansions: normalizeLimit(opts.maxEntityExpansions),
	}
	if !opts.maxEntityExpansionsSet {
		resolved.maxEntityExpansions = defaultMaxEntityExpansions
	}
	if resolved.logger == nil {
		resolved.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return resolved
}

func normalizeLimit(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
