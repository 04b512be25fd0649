package lang

import (
	"context"
	"log/slog"
	"os"

	"github.com/hxl-lang/hxl/lang/lexer"
	"github.com/hxl-lang/hxl/log"
)

// session carries the state of one document conversion: the type
// registry, the shared expression evaluator, and the logger. A session
// is created per call and never reused; the registry it owns is mutable
// during parsing and must not be shared across concurrent conversions.
type session struct {
	logger   log.Logger
	reg      *Registry
	builtins bool
	maxDepth int
}

// Option configures a conversion session.
type Option func(*session)

// WithLogger attaches a logger to the conversion session.
func WithLogger(logger log.Logger) Option {
	return func(s *session) { s.logger = logger }
}

// WithRegistry seeds the session with a caller-provided registry, for
// example one preloaded with additional type definitions. The session
// still mutates it during parsing.
func WithRegistry(reg *Registry) Option {
	return func(s *session) { s.reg = reg }
}

// WithoutBuiltins skips loading the embedded builtin type catalog, so
// only types declared in the source document are known.
func WithoutBuiltins() Option {
	return func(s *session) { s.builtins = false }
}

// WithMaxDepth overrides the parser's block nesting limit.
func WithMaxDepth(n int) Option {
	return func(s *session) { s.maxDepth = n }
}

// Convert transpiles enhanced-syntax source text to standard-syntax
// output. A failing document produces no output, only an error; there is
// no partial result.
func Convert(ctx context.Context, source string, opts ...Option) (string, error) {
	s := &session{builtins: true}

	for _, opt := range opts {
		opt(s)
	}

	if s.reg == nil {
		s.reg = NewRegistry()
	}

	eval := NewEvaluator()

	if s.builtins {
		if err := LoadBuiltins(s.reg); err != nil {
			return "", err
		}
	}

	toks, err := lexer.Scan(source)
	if err != nil {
		return "", err
	}

	s.logger.TraceContext(ctx, "scan complete",
		slog.Int("tokens", len(toks)))

	parser := NewParser(toks, source, s.reg)
	parser.SetMaxDepth(s.maxDepth)

	root, err := parser.Parse()
	if err != nil {
		return "", err
	}

	s.logger.TraceContext(ctx, "parse complete",
		slog.Int("statements", len(root.Stmts)),
		slog.Int("types", len(s.reg.Names())))

	transformed, err := NewTransformer(s.reg, eval).Transform(root)
	if err != nil {
		return "", err
	}

	s.logger.TraceContext(ctx, "transform complete")

	out := NewEmitter(eval).Emit(transformed.(*Block))

	s.logger.DebugContext(ctx, "conversion complete",
		slog.Int("input_bytes", len(source)),
		slog.Int("output_bytes", len(out)))

	return out, nil
}

// ConvertFile reads enhanced-syntax source from a path and returns the
// converted output text. A missing file, an unreadable file, and a
// malformed document each fail with a distinct error kind.
func ConvertFile(ctx context.Context, path string, opts ...Option) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound.Wrap(err).
				With(slog.String("path", path))
		}

		return "", ErrReadInput.Wrap(err).
			With(slog.String("path", path))
	}

	return Convert(ctx, string(data), opts...)
}

// ParseDocument scans and parses source text without transforming it,
// returning the raw tree and the registry populated by its type
// declarations. It backs syntax checking and tree inspection.
func ParseDocument(source string, opts ...Option) (*Block, *Registry, error) {
	s := &session{builtins: true}

	for _, opt := range opts {
		opt(s)
	}

	if s.reg == nil {
		s.reg = NewRegistry()
	}

	if s.builtins {
		if err := LoadBuiltins(s.reg); err != nil {
			return nil, nil, err
		}
	}

	toks, err := lexer.Scan(source)
	if err != nil {
		return nil, nil, err
	}

	parser := NewParser(toks, source, s.reg)
	parser.SetMaxDepth(s.maxDepth)

	root, err := parser.Parse()
	if err != nil {
		return nil, nil, err
	}

	return root, s.reg, nil
}
