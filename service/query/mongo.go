// Package query is the thin layer every mongo backed repository talks through.
// It maps driver errors onto ErrNotFound and ErrDuplicateKey, times each call and
// logs the slow ones.
package query

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
)

var (
	ErrNotFound     = fmt.Errorf("document not found")
	ErrDuplicateKey = fmt.Errorf("duplicate key")
)

// Index describes a secondary index, keys prefixed with "-" are descending
type Index struct {
	Keys   []string
	Unique bool
}

// Mongo is the set of collection operations the repositories need
type Mongo interface {
	Insert(c ctx.Ctx, table domain.Table, doc interface{}) error

	// FindOne decodes the first match into result, ErrNotFound when nothing matches
	FindOne(c ctx.Ctx, table domain.Table, filter, result interface{}) error

	Count(c ctx.Ctx, table domain.Table, filter interface{}) (int, error)

	// Upsert replaces the document matching filter or inserts doc
	Upsert(c ctx.Ctx, table domain.Table, filter, doc interface{}) error

	// Search decodes matches into results. sort is a field name, "-" prefixed for descending,
	// empty for natural order. limit 0 means no limit.
	Search(c ctx.Ctx, table domain.Table, offset, limit int, sort string, filter, results interface{}) error

	// Remove deletes one document, ErrNotFound when nothing matches
	Remove(c ctx.Ctx, table domain.Table, filter interface{}) error

	// CustomPatch applies a raw update document to one match. Without upsert a
	// filter matching nothing returns ErrNotFound.
	CustomPatch(c ctx.Ctx, table domain.Table, filter, update bson.M, upsert bool) error

	// IncrementMany applies $inc to the match, creating it with setOnInsert when missing,
	// and decodes the updated document into result
	IncrementMany(c ctx.Ctx, table domain.Table, filter interface{}, inc bson.M, setOnInsert bson.M, result interface{}) error

	EnsureIndexes(c ctx.Ctx, table domain.Table, indexes ...Index) error

	// RunWithTransaction runs fn in a transaction, calls made with the ctx handed to fn join it
	RunWithTransaction(c ctx.Ctx, fn func(ctx.Ctx) error) error
}
