// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and the polymorphic record reference columns
//   - bulk.go: process logs and change records
//   - identity.go: users and their permission codes
//   - trade.go: orders and customs entries
//   - comment.go, audit.go: comments and entity snapshots attached to any record
//   - search.go: materialized search runs and their ordered object keys
package models
