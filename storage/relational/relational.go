package relational

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/giantswarm/oauth-core/instrumentation"
	"github.com/giantswarm/oauth-core/storage"
)

//go:embed schema.sql
var schemaSQL string

// Option configures a Backend
type Option func(*Backend)

// WithLogger sets the logger (default: slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithInstrumentation records a span and storage metrics for every statement
func WithInstrumentation(inst *instrumentation.Instrumentation) Option {
	return func(b *Backend) {
		b.instrumentation = inst
		if inst != nil {
			b.tracer = inst.Tracer("storage")
		}
	}
}

// Backend opens relational adapters over a shared *sql.DB
type Backend struct {
	db     *sql.DB
	tables storage.Tables
	logger *slog.Logger

	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer
}

var _ storage.Backend = (*Backend)(nil)

// New creates a relational backend. A nil tables uses storage.DefaultTables().
func New(db *sql.DB, tables storage.Tables, opts ...Option) *Backend {
	if tables == nil {
		tables = storage.DefaultTables()
	}
	b := &Backend{
		db:     db,
		tables: tables,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Migrate creates the tables if they do not exist
func (b *Backend) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(b.schema(), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	b.logger.Info("Applied storage schema", "tables", b.table(storage.TableTokens))
	return nil
}

// schema returns the embedded schema with physical table names substituted
func (b *Backend) schema() string {
	pairs := make([]string, 0, 14)
	for _, logical := range []string{
		storage.TableClients,
		storage.TableClientEndpoints,
		storage.TableTokens,
		storage.TableTokenScopes,
		storage.TableAuthorizationCodes,
		storage.TableAuthorizationCodeScopes,
		storage.TableScopes,
	} {
		pairs = append(pairs, "{"+logical+"}", b.table(logical))
	}
	return strings.NewReplacer(pairs...).Replace(schemaSQL)
}

func (b *Backend) table(logical string) string {
	return b.tables.Name(logical)
}

// Open returns a new adapter with an empty memo cache.
// The adapter is meant to live for a single request.
func (b *Backend) Open() storage.Adapter {
	return &Adapter{backend: b, cache: newCache()}
}

// Adapter implements storage.Adapter over a *sql.DB.
// It is not safe for concurrent use.
type Adapter struct {
	backend *Backend
	cache   *cache
}

var _ storage.Adapter = (*Adapter)(nil)

// Clients returns the client store
func (a *Adapter) Clients() storage.ClientStore { return (*clientStore)(a) }

// Tokens returns the token store
func (a *Adapter) Tokens() storage.TokenStore { return (*tokenStore)(a) }

// AuthorizationCodes returns the authorization code store
func (a *Adapter) AuthorizationCodes() storage.AuthorizationCodeStore { return (*codeStore)(a) }

// Scopes returns the scope store
func (a *Adapter) Scopes() storage.ScopeStore { return (*scopeStore)(a) }

// observe runs fn inside a storage span and records its outcome
func (a *Adapter) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	b := a.backend
	if b.instrumentation == nil {
		return fn(ctx)
	}

	var span trace.Span = noop.Span{}
	if b.tracer != nil {
		ctx, span = b.tracer.Start(ctx, "storage."+operation)
		instrumentation.AddStorageAttributes(span, operation, "relational")
	}
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	result := "success"
	if err != nil && !storage.IsNotFound(err) {
		result = "error"
		instrumentation.RecordError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	b.instrumentation.Metrics().RecordStorageOperation(ctx, operation, result,
		float64(time.Since(start).Microseconds())/1000)
	return err
}

// loadScopes runs a join query returning (scope, name, description) rows
func (a *Adapter) loadScopes(ctx context.Context, query string, arg string) (storage.ScopeSet, error) {
	rows, err := a.backend.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()

	set := storage.ScopeSet{}
	for rows.Next() {
		var s storage.Scope
		if err := rows.Scan(&s.Scope, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		set.Add(&s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scopes: %w", err)
	}
	return set, nil
}

// insertScopes links scopes to a parent row in a join table
func (a *Adapter) insertScopes(ctx context.Context, table, column, parent string, scopes storage.ScopeSet) error {
	if len(scopes) == 0 {
		return nil
	}

	tx, err := a.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scope association: %w", err)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s, scope) VALUES (?, ?)", table, column)
	for _, id := range scopes.IDs() {
		if _, err := tx.ExecContext(ctx, query, parent, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("associate scope %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scope association: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// cache is the request-lifetime memo of one adapter
type cache struct {
	clients     map[string]*storage.Client
	endpoints   map[string][]storage.ClientEndpoint
	tokens      map[string]*storage.Token
	tokenScopes map[string]storage.ScopeSet
	codes       map[string]*storage.AuthorizationCode
	scopes      map[string]*storage.Scope
}

func newCache() *cache {
	return &cache{
		clients:     make(map[string]*storage.Client),
		endpoints:   make(map[string][]storage.ClientEndpoint),
		tokens:      make(map[string]*storage.Token),
		tokenScopes: make(map[string]storage.ScopeSet),
		codes:       make(map[string]*storage.AuthorizationCode),
		scopes:      make(map[string]*storage.Scope),
	}
}

func copyScopes(scopes storage.ScopeSet) storage.ScopeSet {
	out := make(storage.ScopeSet, len(scopes))
	for _, s := range scopes {
		out.Add(s)
	}
	return out
}
