// Package database owns the bun connection used by the query DSL: connection
// configuration, dialect selection, pool tuning, health checks, query logging
// hooks, model registration, table and foreign key migrations, and
// classification of storage errors such as constraint violations.
package database
