// Package store persists categories and their similarity links.
//
// The analysis engine only needs the two bulk readers, [NodeStore] and
// [EdgeStore]. Everything else on [Store] backs the management surfaces:
// the CLI, seeding and the HTTP API.
//
// Write-time rules enforced by every implementation:
//   - similarity links are stored once per unordered pair, as (low, high)
//   - linking a category to itself is rejected
//   - a move that would make a category its own ancestor is rejected
//   - deleting a category detaches its children and drops its links
//
// Read failures are returned as STORE_UNAVAILABLE errors. Transient
// conditions (a busy SQLite file, a dropped Mongo connection) are retried
// with [cache.RetryWithBackoff] before they surface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/observability"
)

// DefaultPageSize is used by List when pageSize is zero.
const DefaultPageSize = 50

// NodeStore reads every category, including ones without links.
type NodeStore interface {
	ListNodes(ctx context.Context) ([]category.Node, error)
}

// EdgeStore reads every stored similarity pair.
type EdgeStore interface {
	ListPairs(ctx context.Context) ([]category.Pair, error)
}

// Reader is what an analysis run needs.
type Reader interface {
	NodeStore
	EdgeStore
}

// NewCategory holds the fields of a category to create.
type NewCategory struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	ParentID    *category.ID `json:"parent_id"`
}

// Detail is a category together with its number of similar categories.
type Detail struct {
	category.Node
	SimilarCount int `json:"similar_count"`
}

// Page is one page of a List call.
type Page struct {
	Items    []category.Node `json:"results"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"count"`
}

// HasNext reports whether another page follows.
func (p Page) HasNext() bool { return p.Page*p.PageSize < p.Total }

// Store is the full read/write surface.
type Store interface {
	Reader

	// Create inserts a category and returns it with its assigned id.
	Create(ctx context.Context, c NewCategory) (category.Node, error)

	// CreateMany inserts categories in one transaction and returns their ids
	// in input order. A ParentID may refer to an earlier entry of the batch
	// through its negated one-based position (-1 is the first entry).
	CreateMany(ctx context.Context, cs []NewCategory) ([]category.ID, error)

	// InsertNodes inserts categories with explicit ids, as produced by an
	// export. Parents that are not part of the batch or the store are dropped.
	InsertNodes(ctx context.Context, nodes []category.Node) error

	// Get returns a single category.
	Get(ctx context.Context, id category.ID) (Detail, error)

	// List returns categories ordered by id. Page numbers start at 1.
	List(ctx context.Context, page, pageSize int) (Page, error)

	// Move changes a category's parent. A nil parent makes it a root.
	Move(ctx context.Context, id category.ID, parent *category.ID) (category.Node, error)

	// Delete removes a category.
	Delete(ctx context.Context, id category.ID) error

	// Link stores the similarity a~b. It reports whether a new link was created.
	Link(ctx context.Context, a, b category.ID) (bool, error)

	// Unlink removes the similarity a~b. It reports whether a link existed.
	Unlink(ctx context.Context, a, b category.ID) (bool, error)

	// AddSimilarities bulk-inserts pairs and returns how many were new.
	AddSimilarities(ctx context.Context, pairs []category.Pair) (int, error)

	// Similar returns the ids linked to id, ascending.
	Similar(ctx context.Context, id category.ID) ([]category.ID, error)

	// Clear removes all categories and links and resets id assignment.
	Clear(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Load reads a point-in-time snapshot from r.
func Load(ctx context.Context, r Reader) (*category.Snapshot, error) {
	nodes, err := r.ListNodes(ctx)
	if err != nil {
		return nil, unavailable(err, "list categories")
	}
	pairs, err := r.ListPairs(ctx)
	if err != nil {
		return nil, unavailable(err, "list similarities")
	}
	return &category.Snapshot{Nodes: nodes, Pairs: pairs}, nil
}

func unavailable(err error, op string) error {
	if cgerrors.GetCode(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return cgerrors.Wrap(cgerrors.ErrCodeStoreUnavailable, err, "%s", op)
}

func notFound(id category.ID) error {
	return cgerrors.New(cgerrors.ErrCodeCategoryNotFound, "category %d not found", id)
}

func validateNew(c NewCategory) error {
	if err := cgerrors.ValidateName(c.Name); err != nil {
		return err
	}
	return cgerrors.ValidateImage(c.Image)
}

// observe reports one store operation to the registered hooks.
func observe(ctx context.Context, driver, op string, start time.Time, err error) {
	observability.Store().OnQuery(ctx, driver, op, time.Since(start), err)
}
