package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/testutil"
	"github.com/smallbiznis/marketplace/internal/user/domain"
	"github.com/smallbiznis/marketplace/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetByID(t *testing.T) {
	db := testutil.OpenDB(t)
	f := testutil.NewFixtures(t, db, testutil.Node(t))
	buyer := f.User(domain.UserTypeBuyer, 2500, "grade_green")

	svc := New(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})

	got, err := svc.GetByID(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, got.ID)
	assert.Equal(t, domain.UserTypeBuyer, got.Type)
	assert.Equal(t, int64(2500), got.Points)
	assert.Equal(t, "grade_green", got.TierID)

	_, err = svc.GetByID(context.Background(), snowflake.ID(42))
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrInvalidID)
}
