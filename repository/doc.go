// Package repository provides a generic repository built on bun: CRUD,
// raw conditions, transactions, dialect-aware upsert, and typed queries
// through the query package.
package repository
