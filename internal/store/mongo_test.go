package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"wattsup/internal/diagram"
)

func mockMongo(mt *mtest.T) *MongoStore {
	return &MongoStore{
		client: mt.Client,
		coll:   mt.Coll,
		now:    func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) },
	}
}

func snapshotDoc(t *testing.T, s *diagram.Snapshot) bson.D {
	t.Helper()
	raw, err := bson.Marshal(s)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("save stamps and inserts", func(mt *mtest.T) {
		st := mockMongo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		s := canvasSnapshot(mt.T, "alice", diagram.Switch, diagram.Light)
		require.NoError(mt, st.Save(ctx, s))
		assert.NotEmpty(mt, s.ID)
		assert.Equal(mt, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), s.CreatedAt)
	})

	mt.Run("save reports write errors", func(mt *mtest.T) {
		st := mockMongo(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := st.Save(ctx, canvasSnapshot(mt.T, "alice", diagram.Outlet))
		assert.ErrorContains(mt, err, "insert canvas")
	})

	mt.Run("save rejects invalid users before writing", func(mt *mtest.T) {
		st := mockMongo(mt)
		err := st.Save(ctx, canvasSnapshot(mt.T, "a/b", diagram.Outlet))
		assert.ErrorIs(mt, err, ErrInvalidUser)
	})

	mt.Run("latest decodes the newest document", func(mt *mtest.T) {
		st := mockMongo(mt)
		want := canvasSnapshot(mt.T, "alice", diagram.Switch, diagram.Light)
		want.ID = "0b6f3c1e-canvas"
		want.CreatedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, snapshotDoc(mt.T, want)))

		got, err := st.Latest(ctx, "alice")
		require.NoError(mt, err)
		assert.Equal(mt, want.ID, got.ID)
		assert.Equal(mt, want.Elements, got.Elements)
		assert.Equal(mt, want.Wires, got.Wires)
		assert.True(mt, want.CreatedAt.Equal(got.CreatedAt))

		c, err := diagram.FromSnapshot(got, 20)
		require.NoError(mt, err)
		assert.Equal(mt, []diagram.TakeoffEntry{
			{Item: "Switch", Quantity: 1},
			{Item: "Light", Quantity: 1},
			{Item: "Wire", Quantity: 1},
		}, c.Takeoff())
	})

	mt.Run("latest without documents", func(mt *mtest.T) {
		st := mockMongo(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := st.Latest(ctx, "bob")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("latest reports command errors", func(mt *mtest.T) {
		st := mockMongo(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))

		_, err := st.Latest(ctx, "alice")
		assert.ErrorContains(mt, err, "find canvas")
		assert.NotErrorIs(mt, err, ErrNotFound)
	})
}
