package xentity

import (
	"context"
	"reflect"

	"github.com/rs/zerolog"
)

// Session owns the single connection handle used by every operation issued
// through it, plus the statement builder and mapping registry.
//
// A Session is not synchronized. Configure, EnsureOpen and statement
// execution race when one Session is shared across goroutines; give each
// goroutine its own Session or guard it externally.
type Session struct {
	conn           Conn
	builder        Builder
	placeholderSet bool
	registry       *Registry
	log            zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger receiving debug events for every statement.
// The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithBindMode selects bound parameters (default) or legacy literal embedding.
func WithBindMode(m BindMode) Option {
	return func(s *Session) { s.builder.Mode = m }
}

// WithPlaceholder pins the placeholder style instead of inferring it from
// the driver name.
func WithPlaceholder(p Placeholder) Option {
	return func(s *Session) {
		s.builder.Placeholder = p
		s.placeholderSet = true
	}
}

// WithLiterals replaces the literal encoders used in literal mode.
func WithLiterals(l *Literals) Option {
	return func(s *Session) { s.builder.Literals = l }
}

// WithRegistry uses r instead of the default registry to resolve mappings.
func WithRegistry(r *Registry) Option {
	return func(s *Session) { s.registry = r }
}

// NewSession returns an unconfigured session.
func NewSession(opts ...Option) *Session {
	s := &Session{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	if s.builder.Literals == nil {
		s.builder.Literals = NewLiterals()
	}
	return s
}

// Configure installs conn as the session's handle, replacing any previous
// one without closing it. It fails with *ConfigurationError for a nil handle.
func (s *Session) Configure(conn Conn) (Conn, error) {
	if conn == nil || isNilPointer(conn) {
		return nil, &ConfigurationError{Reason: "nil connection"}
	}
	s.conn = conn
	if !s.placeholderSet {
		s.builder.Placeholder = PlaceholderQuestion
		if dn, ok := conn.(driverNamer); ok {
			s.builder.Placeholder = PlaceholderFor(dn.DriverName())
		}
	}
	s.log.Debug().Str("state", conn.State().String()).Msg("xentity: connection configured")
	return conn, nil
}

// ConfigureDSN installs a new SQLConn for driverName and dsn. The driver
// must be registered with database/sql (see the drivers package). Nothing is
// dialed until the first operation.
func (s *Session) ConfigureDSN(driverName, dsn string) (Conn, error) {
	switch {
	case driverName == "":
		return nil, &ConfigurationError{Reason: "empty driver name"}
	case dsn == "":
		return nil, &ConfigurationError{Reason: "empty connection string"}
	}
	return s.Configure(NewSQLConn(driverName, dsn))
}

// Conn returns the configured handle, or nil.
func (s *Session) Conn() Conn {
	if s == nil {
		return nil
	}
	return s.conn
}

// Builder returns the statement builder the session uses. A nil session
// yields the zero Builder.
func (s *Session) Builder() Builder {
	if s == nil {
		return Builder{}
	}
	return s.builder
}

// Open opens the handle unconditionally.
func (s *Session) Open(ctx context.Context) error {
	conn, err := s.requireConn()
	if err != nil {
		return err
	}
	if err := conn.Open(ctx); err != nil {
		return &ExecutionError{Op: "open", Err: err}
	}
	return nil
}

// Close closes the handle. The session stays configured and reopens it on
// the next operation.
func (s *Session) Close() error {
	conn, err := s.requireConn()
	if err != nil {
		return err
	}
	s.log.Debug().Msg("xentity: closing connection")
	return conn.Close()
}

// EnsureOpen opens the handle unless it already reports StateOpen. Every
// executor call runs it right before touching the driver.
func (s *Session) EnsureOpen(ctx context.Context) error {
	conn, err := s.requireConn()
	if err != nil {
		return err
	}
	if conn.State() == StateOpen {
		return nil
	}
	s.log.Debug().Str("state", conn.State().String()).Msg("xentity: opening connection")
	if err := conn.Open(ctx); err != nil {
		return &ExecutionError{Op: "open", Err: err}
	}
	return nil
}

func (s *Session) requireConn() (Conn, error) {
	if s == nil || s.conn == nil {
		return nil, ErrNotConfigured
	}
	return s.conn, nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
