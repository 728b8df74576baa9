// Package tenants routes storage calls to per-tenant databases. Each empresa
// may live on its own MySQL server; the session cookie carries the connection
// id picked at login and every request resolves it back to a connection here.
package tenants

import (
	"context"
	"errors"

	"github.com/jobers/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

var ErrUnknownConnection = errors.New("unknown tenant connection")

type Registry struct {
	db    *gorm.DB
	known map[string]bool
}

// NewRegistry registers every configured tenant database as a named resolver
// on the central connection. With no tenants configured everything runs on
// the central database (single-tenant install).
func NewRegistry(db *gorm.DB, tenants []config.TenantConfig) (*Registry, error) {
	known := make(map[string]bool, len(tenants))
	if len(tenants) > 0 {
		var resolver *dbresolver.DBResolver
		for _, tenant := range tenants {
			cfg := dbresolver.Config{
				Sources: []gorm.Dialector{mysql.Open(tenant.Dsn)},
			}
			if resolver == nil {
				resolver = dbresolver.Register(cfg, tenant.ConnectionID)
			} else {
				resolver = resolver.Register(cfg, tenant.ConnectionID)
			}
			known[tenant.ConnectionID] = true
		}
		if err := db.Use(resolver); err != nil {
			return nil, err
		}
	}
	return &Registry{db: db, known: known}, nil
}

// DB returns the connection for the given connection id. An empty id selects
// the central database.
func (r *Registry) DB(ctx context.Context, connectionID string) (*gorm.DB, error) {
	if connectionID == "" {
		return r.db.WithContext(ctx), nil
	}
	if !r.known[connectionID] {
		return nil, ErrUnknownConnection
	}
	return r.db.WithContext(ctx).Clauses(dbresolver.Use(connectionID)), nil
}

// Central returns the central database connection.
func (r *Registry) Central(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}
