package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"propertyagent/internal/config"
	"propertyagent/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrListingNotFound is returned when no listing has the requested id
var ErrListingNotFound = errors.New("listing not found")

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const listingColumns = `id, session_id, title, location, price, price_value, area, area_sqft,
	amenities, images, created_at`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS property_listings (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	location    TEXT NOT NULL,
	price       TEXT NOT NULL,
	price_value DOUBLE PRECISION,
	area        TEXT NOT NULL,
	area_sqft   DOUBLE PRECISION,
	amenities   JSONB NOT NULL DEFAULT '[]',
	images      JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS property_listings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	location    TEXT NOT NULL,
	price       TEXT NOT NULL,
	price_value REAL,
	area        TEXT NOT NULL,
	area_sqft   REAL,
	amenities   TEXT NOT NULL DEFAULT '[]',
	images      TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL
)`

// CatalogRepository persists completed listings
type CatalogRepository struct {
	db        *sqlx.DB
	driver    string
	vectorDim int
}

// NewCatalogRepository opens the catalog selected by CATALOG_DRIVER and creates its schema
func NewCatalogRepository(ctx context.Context, cfg *config.Config) (*CatalogRepository, error) {
	switch cfg.Catalog.Driver {
	case "sqlite":
		return NewSQLiteCatalog(ctx, cfg.Catalog.SQLitePath)
	default:
		return NewPostgresCatalog(ctx, cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections, cfg.PostgreSQL.MaxIdleConnections, cfg.Catalog.VectorDim)
	}
}

// NewPostgresCatalog connects to PostgreSQL. vectorDim > 0 adds a pgvector embedding column.
func NewPostgresCatalog(ctx context.Context, dsn string, maxConn, maxIdleConn, vectorDim int) (*CatalogRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	r := &CatalogRepository{db: db, driver: "postgres", vectorDim: vectorDim}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewSQLiteCatalog opens (or creates) a file catalog. ":memory:" gives a throwaway one.
func NewSQLiteCatalog(ctx context.Context, path string) (*CatalogRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	// one writer; also keeps a ":memory:" database alive across calls
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	r := &CatalogRepository{db: db, driver: "sqlite"}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *CatalogRepository) migrate(ctx context.Context) error {
	stmts := []string{sqliteSchema}
	if r.driver == "postgres" {
		stmts = []string{postgresSchema}
		if r.vectorDim > 0 {
			stmts = append(stmts,
				`CREATE EXTENSION IF NOT EXISTS vector`,
				fmt.Sprintf(`ALTER TABLE property_listings ADD COLUMN IF NOT EXISTS embedding vector(%d)`, r.vectorDim),
			)
		}
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}
	log.Printf("✅ Catalog ready (%s)", r.driver)
	return nil
}

// Close closes the database connection
func (r *CatalogRepository) Close() error {
	return r.db.Close()
}

// SaveListing inserts the listing and returns its new id
func (r *CatalogRepository) SaveListing(ctx context.Context, l *model.Listing) (int64, error) {
	cols := []string{"session_id", "title", "location", "price", "price_value", "area", "area_sqft",
		"amenities", "images", "created_at"}
	args := []interface{}{l.SessionID, l.Title, l.Location, l.Price, l.PriceValue, l.Area, l.AreaSqft,
		l.Amenities, l.Images, l.CreatedAt}

	if r.storesEmbedding(l) {
		cols = append(cols, "embedding")
		args = append(args, l.Embedding)
	}

	query := r.db.Rebind(fmt.Sprintf(
		"INSERT INTO property_listings (%s) VALUES (%s) RETURNING id",
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	))

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to save listing: %w", err)
	}
	l.ID = id
	return id, nil
}

func (r *CatalogRepository) storesEmbedding(l *model.Listing) bool {
	if r.driver != "postgres" || r.vectorDim == 0 {
		return false
	}
	n := len(l.Embedding.Slice())
	if n > 0 && n != r.vectorDim {
		log.Printf("⚠️  Embedding has %d dimensions, catalog expects %d; saving without it", n, r.vectorDim)
		return false
	}
	return n > 0
}

// GetListing retrieves a single listing by its id
func (r *CatalogRepository) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	query := r.db.Rebind(`SELECT ` + listingColumns + ` FROM property_listings WHERE id = ?`)
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}
