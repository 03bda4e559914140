// Package mongo implements store.Store on MongoDB.
//
// Categories live in the "categories" collection keyed by an int64 _id drawn
// from a counter document, so ids stay small, ordered and compatible with
// exports from the SQLite store. Similarity links live in "similarities"
// with a "<low>-<high>" _id, which makes link insertion an idempotent
// upsert.
//
// Multi-document writes are not wrapped in transactions, so the store works
// against standalone servers as well as replica sets.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/catgraph/pkg/buildinfo"
	"github.com/matzehuels/catgraph/pkg/cache"
	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/hierarchy"
	"github.com/matzehuels/catgraph/pkg/observability"
	"github.com/matzehuels/catgraph/pkg/simgraph"
	"github.com/matzehuels/catgraph/pkg/store"
)

const (
	driverName   = "mongo"
	counterKey   = "categories"
	categoriesCo = "categories"
	similarCo    = "similarities"
	countersCo   = "counters"
)

// Store is a MongoDB-backed store.Store.
type Store struct {
	client   *mongodriver.Client
	owned    bool
	cats     *mongodriver.Collection
	sims     *mongodriver.Collection
	counters *mongodriver.Collection
}

type nodeDoc struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
	Image       string `bson:"image"`
	ParentID    *int64 `bson:"parent_id"`
}

func (d nodeDoc) node() category.Node {
	return category.Node{ID: d.ID, Name: d.Name, Description: d.Description, Image: d.Image, ParentID: d.ParentID}
}

type simDoc struct {
	ID   string `bson:"_id"`
	Low  int64  `bson:"low"`
	High int64  `bson:"high"`
}

func edgeID(e simgraph.Edge) string { return fmt.Sprintf("%d-%d", e.Low, e.High) }

// New connects to uri and uses database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(buildinfo.UserAgent()))
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrCodeStoreUnavailable, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, cgerrors.Wrap(cgerrors.ErrCodeStoreUnavailable, err, "ping mongo")
	}
	s, err := NewFromClient(ctx, client, database)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewFromClient uses an existing client. Close does not disconnect it.
func NewFromClient(ctx context.Context, client *mongodriver.Client, database string) (*Store, error) {
	db := client.Database(database)
	s := &Store{
		client:   client,
		cats:     db.Collection(categoriesCo),
		sims:     db.Collection(similarCo),
		counters: db.Collection(countersCo),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.cats.Indexes().CreateOne(ctx, mongodriver.IndexModel{Keys: bson.D{{Key: "parent_id", Value: 1}}}); err != nil {
		return err
	}
	_, err := s.sims.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{Keys: bson.D{{Key: "low", Value: 1}}},
		{Keys: bson.D{{Key: "high", Value: 1}}},
	})
	return err
}

// Close disconnects the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *Store) run(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := cache.RetryWithBackoff(ctx, func() error {
		err := fn()
		if err != nil && (mongodriver.IsNetworkError(err) || mongodriver.IsTimeout(err)) {
			return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrUnavailable, err))
		}
		return err
	})
	observability.Store().OnQuery(ctx, driverName, op, time.Since(start), err)
	return wrap(err, op)
}

func wrap(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case cgerrors.GetCode(err) != "":
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return cgerrors.Wrap(cgerrors.ErrCodeStoreUnavailable, err, "%s", op)
	}
}

func notFound(id category.ID) error {
	return cgerrors.New(cgerrors.ErrCodeCategoryNotFound, "category %d not found", id)
}

// nextIDs reserves n consecutive ids and returns the first.
func (s *Store) nextIDs(ctx context.Context, n int) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counterKey},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq - int64(n) + 1, nil
}

func (s *Store) exists(ctx context.Context, id category.ID) (bool, error) {
	n, err := s.cats.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) findNode(ctx context.Context, id category.ID) (category.Node, error) {
	var d nodeDoc
	err := s.cats.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return category.Node{}, notFound(id)
	}
	return d.node(), err
}

func (s *Store) findNodes(ctx context.Context, filter any, opts ...*options.FindOptions) ([]category.Node, error) {
	cur, err := s.cats.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []nodeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	nodes := make([]category.Node, len(docs))
	for i, d := range docs {
		nodes[i] = d.node()
	}
	return nodes, nil
}

// ListNodes returns every category ordered by id.
func (s *Store) ListNodes(ctx context.Context) ([]category.Node, error) {
	var nodes []category.Node
	err := s.run(ctx, "list_nodes", func() (err error) {
		nodes, err = s.findNodes(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		return err
	})
	return nodes, err
}

// ListPairs returns every stored link as (low, high).
func (s *Store) ListPairs(ctx context.Context) ([]category.Pair, error) {
	var pairs []category.Pair
	err := s.run(ctx, "list_pairs", func() error {
		cur, err := s.sims.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "low", Value: 1}, {Key: "high", Value: 1}}))
		if err != nil {
			return err
		}
		var docs []simDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		pairs = make([]category.Pair, len(docs))
		for i, d := range docs {
			pairs[i] = category.Pair{From: d.Low, To: d.High}
		}
		return nil
	})
	return pairs, err
}

// Create inserts a category.
func (s *Store) Create(ctx context.Context, c store.NewCategory) (category.Node, error) {
	ids, err := s.CreateMany(ctx, []store.NewCategory{c})
	if err != nil {
		return category.Node{}, err
	}
	return category.Node{ID: ids[0], Name: c.Name, Description: c.Description, Image: c.Image, ParentID: c.ParentID}, nil
}

// CreateMany inserts a batch of categories.
func (s *Store) CreateMany(ctx context.Context, cs []store.NewCategory) ([]category.ID, error) {
	for _, c := range cs {
		if err := cgerrors.ValidateName(c.Name); err != nil {
			return nil, err
		}
		if err := cgerrors.ValidateImage(c.Image); err != nil {
			return nil, err
		}
	}
	if len(cs) == 0 {
		return []category.ID{}, nil
	}

	ids := make([]category.ID, len(cs))
	err := s.run(ctx, "create_many", func() error {
		docs := make([]any, len(cs))
		external := map[category.ID]bool{}
		for i, c := range cs {
			if c.ParentID == nil || *c.ParentID > 0 {
				if c.ParentID != nil {
					external[*c.ParentID] = true
				}
				continue
			}
			if pos := int(-*c.ParentID) - 1; pos >= i {
				return cgerrors.New(cgerrors.ErrCodeInvalidInput, "entry %d refers to batch entry %d which is not before it", i, pos)
			}
		}
		for id := range external {
			ok, err := s.exists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(id)
			}
		}

		first, err := s.nextIDs(ctx, len(cs))
		if err != nil {
			return err
		}
		for i, c := range cs {
			ids[i] = first + int64(i)
			parent := c.ParentID
			if parent != nil && *parent < 0 {
				parent = category.Ptr(ids[-*parent-1])
			}
			docs[i] = nodeDoc{ID: ids[i], Name: c.Name, Description: c.Description, Image: c.Image, ParentID: parent}
		}
		_, err = s.cats.InsertMany(ctx, docs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertNodes inserts categories with explicit ids.
func (s *Store) InsertNodes(ctx context.Context, nodes []category.Node) error {
	for _, n := range nodes {
		if err := cgerrors.ValidateID(n.ID); err != nil {
			return err
		}
		if err := cgerrors.ValidateName(n.Name); err != nil {
			return err
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	return s.run(ctx, "insert_nodes", func() error {
		known := make(map[category.ID]bool, len(nodes))
		var maxID int64
		for _, n := range nodes {
			known[n.ID] = true
			maxID = max(maxID, n.ID)
		}
		docs := make([]any, len(nodes))
		for i, n := range nodes {
			parent := n.ParentID
			if parent != nil && !known[*parent] {
				ok, err := s.exists(ctx, *parent)
				if err != nil {
					return err
				}
				if !ok {
					parent = nil
				}
			}
			docs[i] = nodeDoc{ID: n.ID, Name: n.Name, Description: n.Description, Image: n.Image, ParentID: parent}
		}
		if _, err := s.cats.InsertMany(ctx, docs); err != nil {
			if mongodriver.IsDuplicateKeyError(err) {
				return cgerrors.Wrap(cgerrors.ErrCodeInvalidInput, err, "category id already exists")
			}
			return err
		}
		_, err := s.counters.UpdateOne(ctx,
			bson.M{"_id": counterKey},
			bson.M{"$max": bson.M{"seq": maxID}},
			options.Update().SetUpsert(true))
		return err
	})
}

// Get returns one category with its similar count.
func (s *Store) Get(ctx context.Context, id category.ID) (store.Detail, error) {
	var d store.Detail
	err := s.run(ctx, "get", func() error {
		n, err := s.findNode(ctx, id)
		if err != nil {
			return err
		}
		count, err := s.sims.CountDocuments(ctx, touching(id))
		d = store.Detail{Node: n, SimilarCount: int(count)}
		return err
	})
	return d, err
}

func touching(id category.ID) bson.M {
	return bson.M{"$or": bson.A{bson.M{"low": id}, bson.M{"high": id}}}
}

// List returns one page of categories ordered by id.
func (s *Store) List(ctx context.Context, page, pageSize int) (store.Page, error) {
	if pageSize == 0 {
		pageSize = store.DefaultPageSize
	}
	if err := cgerrors.ValidatePage(page, pageSize); err != nil {
		return store.Page{}, err
	}
	p := store.Page{Page: page, PageSize: pageSize}
	err := s.run(ctx, "list", func() error {
		total, err := s.cats.CountDocuments(ctx, bson.M{})
		if err != nil {
			return err
		}
		p.Total = int(total)
		p.Items, err = s.findNodes(ctx, bson.M{}, options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetSkip(int64((page-1)*pageSize)).
			SetLimit(int64(pageSize)))
		return err
	})
	return p, err
}

// Move reparents a category after checking the move keeps the forest acyclic.
func (s *Store) Move(ctx context.Context, id category.ID, parent *category.ID) (category.Node, error) {
	var n category.Node
	err := s.run(ctx, "move", func() error {
		cur, err := s.findNode(ctx, id)
		if err != nil {
			return err
		}
		if parent != nil {
			if _, err := s.findNode(ctx, *parent); err != nil {
				return err
			}
			var walkErr error
			parentOf := func(c category.ID) (category.ID, bool) {
				node, err := s.findNode(ctx, c)
				if err != nil {
					if cgerrors.GetCode(err) == "" {
						walkErr = err
					}
					return 0, false
				}
				if node.ParentID == nil {
					return 0, false
				}
				return *node.ParentID, true
			}
			cycle := hierarchy.WouldCycle(parentOf, id, *parent)
			if walkErr != nil {
				return walkErr
			}
			if cycle {
				return cgerrors.New(cgerrors.ErrCodeCycle, "category %d cannot move under its own descendant %d", id, *parent)
			}
		}
		if _, err := s.cats.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"parent_id": parent}}); err != nil {
			return err
		}
		cur.ParentID = parent
		n = cur
		return nil
	})
	return n, err
}

// Delete removes a category, detaches its children and drops its links.
func (s *Store) Delete(ctx context.Context, id category.ID) error {
	return s.run(ctx, "delete", func() error {
		res, err := s.cats.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return notFound(id)
		}
		if _, err := s.cats.UpdateMany(ctx, bson.M{"parent_id": id}, bson.M{"$set": bson.M{"parent_id": nil}}); err != nil {
			return err
		}
		_, err = s.sims.DeleteMany(ctx, touching(id))
		return err
	})
}

func upsertEdge(e simgraph.Edge) *mongodriver.UpdateOneModel {
	return mongodriver.NewUpdateOneModel().
		SetFilter(bson.M{"_id": edgeID(e)}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{"low": e.Low, "high": e.High}}).
		SetUpsert(true)
}

// Link stores the canonical pair for a~b.
func (s *Store) Link(ctx context.Context, a, b category.ID) (bool, error) {
	if err := cgerrors.ValidateLink(a, b); err != nil {
		return false, err
	}
	e, _ := simgraph.Canonical(a, b)
	var created bool
	err := s.run(ctx, "link", func() error {
		for _, id := range []category.ID{e.Low, e.High} {
			ok, err := s.exists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(id)
			}
		}
		m := upsertEdge(e)
		res, err := s.sims.UpdateOne(ctx, m.Filter, m.Update, options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
		created = res.UpsertedCount == 1
		return nil
	})
	return created, err
}

// Unlink removes the canonical pair for a~b.
func (s *Store) Unlink(ctx context.Context, a, b category.ID) (bool, error) {
	if err := cgerrors.ValidateLink(a, b); err != nil {
		return false, err
	}
	e, _ := simgraph.Canonical(a, b)
	var removed bool
	err := s.run(ctx, "unlink", func() error {
		res, err := s.sims.DeleteOne(ctx, bson.M{"_id": edgeID(e)})
		if err != nil {
			return err
		}
		removed = res.DeletedCount == 1
		return nil
	})
	return removed, err
}

// AddSimilarities upserts the canonical, deduplicated pairs in one
// unordered bulk write. Pairs naming an unknown category are skipped.
func (s *Store) AddSimilarities(ctx context.Context, pairs []category.Pair) (int, error) {
	edges := simgraph.Normalize(pairs)
	if len(edges) == 0 {
		return 0, nil
	}
	var inserted int
	err := s.run(ctx, "add_similarities", func() error {
		endpoints := make([]int64, 0, 2*len(edges))
		for _, e := range edges {
			endpoints = append(endpoints, e.Low, e.High)
		}
		slices.Sort(endpoints)
		endpoints = slices.Compact(endpoints)

		cur, err := s.cats.Find(ctx, bson.M{"_id": bson.M{"$in": endpoints}}, options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return err
		}
		var found []struct {
			ID int64 `bson:"_id"`
		}
		if err := cur.All(ctx, &found); err != nil {
			return err
		}
		known := make(map[int64]bool, len(found))
		for _, f := range found {
			known[f.ID] = true
		}

		var models []mongodriver.WriteModel
		for _, e := range edges {
			if known[e.Low] && known[e.High] {
				models = append(models, upsertEdge(e))
			}
		}
		if len(models) == 0 {
			inserted = 0
			return nil
		}
		res, err := s.sims.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
		inserted = int(res.UpsertedCount)
		return nil
	})
	return inserted, err
}

// Similar returns the ids linked to id.
func (s *Store) Similar(ctx context.Context, id category.ID) ([]category.ID, error) {
	var ids []category.ID
	err := s.run(ctx, "similar", func() error {
		ok, err := s.exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(id)
		}
		cur, err := s.sims.Find(ctx, touching(id))
		if err != nil {
			return err
		}
		var docs []simDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		ids = make([]category.ID, 0, len(docs))
		for _, d := range docs {
			if d.Low == id {
				ids = append(ids, d.High)
			} else {
				ids = append(ids, d.Low)
			}
		}
		slices.Sort(ids)
		return nil
	})
	return ids, err
}

// Clear deletes everything and restarts id assignment at 1.
func (s *Store) Clear(ctx context.Context) error {
	return s.run(ctx, "clear", func() error {
		for _, c := range []*mongodriver.Collection{s.sims, s.cats, s.counters} {
			if _, err := c.DeleteMany(ctx, bson.M{}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
