package repository

import (
	"context"
	"testing"

	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create user assigns id and empty friend set", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user, err := repo.CreateUser(context.Background(), &models.User{Email: "alice@example.com", FullName: "alice"})

		require.NoError(mt, err)
		assert.False(mt, user.ID.IsZero())
		assert.NotNil(mt, user.Friends)
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("create user duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := repo.CreateUser(context.Background(), &models.User{Email: "alice@example.com"})

		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "bob@example.com"},
			{Key: "fullName", Value: "bob"},
		}))

		user, err := repo.GetUserByID(context.Background(), id)

		require.NoError(mt, err)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "bob", user.FullName)
	})

	mt.Run("get by email not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")

		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update profile returns updated document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "fullName", Value: "alice"},
				{Key: "bio", Value: "hola"},
				{Key: "isOnboarded", Value: true},
			}},
		})

		user, err := repo.UpdateProfile(context.Background(), id, models.ProfileUpdate{FullName: "alice", Bio: "hola"})

		require.NoError(mt, err)
		assert.True(mt, user.IsOnboarded)
		assert.Equal(mt, "hola", user.Bio)
	})

	mt.Run("add friend", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.AddFriend(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())

		assert.NoError(mt, err)
	})

	mt.Run("get users by ids", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: a}, {Key: "fullName", Value: "alice"}},
			bson.D{{Key: "_id", Value: b}, {Key: "fullName", Value: "bob"}},
		))

		users, err := repo.GetUsersByIDs(context.Background(), []primitive.ObjectID{a, b})

		require.NoError(mt, err)
		assert.Len(mt, users, 2)
	})

	mt.Run("get users by ids with no ids skips the query", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)

		users, err := repo.GetUsersByIDs(context.Background(), nil)

		require.NoError(mt, err)
		assert.Empty(mt, users)
	})

	mt.Run("recommended users", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "isOnboarded", Value: true}},
		))

		users, err := repo.GetRecommendedUsers(context.Background(), primitive.NewObjectID(), nil)

		require.NoError(mt, err)
		assert.Len(mt, users, 1)
	})
}
