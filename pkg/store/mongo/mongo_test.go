package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/catgraph/pkg/simgraph"
	"github.com/matzehuels/catgraph/pkg/store"
	"github.com/matzehuels/catgraph/pkg/store/storetest"
)

// Set CATGRAPH_TEST_MONGO_URI (for example mongodb://localhost:27017) to run.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CATGRAPH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CATGRAPH_TEST_MONGO_URI not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db := fmt.Sprintf("catgraph_test_%s", uuid.NewString()[:8])
		s, err := New(ctx, uri, db)
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = s.client.Database(db).Drop(context.Background())
			_ = s.Close()
		})
		return s
	})
}

func TestEdgeID(t *testing.T) {
	if got := edgeID(canon(7, 3)); got != "3-7" {
		t.Errorf("edgeID = %q, want 3-7", got)
	}
}

func canon(a, b int64) simgraph.Edge {
	e, _ := simgraph.Canonical(a, b)
	return e
}
