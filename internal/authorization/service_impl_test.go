package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/marketplace/internal/testutil"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (Service, *testutil.Fixtures) {
	t.Helper()
	db := testutil.OpenDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
	return svc, testutil.NewFixtures(t, db, testutil.Node(t))
}

func TestAuthorizeBuyerManagesOrders(t *testing.T) {
	svc, f := newTestService(t)
	buyer := f.User(userdomain.UserTypeBuyer, 0, "")
	actor := "user:" + buyer.ID.String()

	for _, action := range []string{ActionOrderCreate, ActionOrderView, ActionOrderUpdate, ActionOrderDelete, ActionOrderPay, ActionOrderReceipt} {
		require.NoError(t, svc.Authorize(context.Background(), actor, ObjectOrder, action), action)
	}
	require.NoError(t, svc.Authorize(context.Background(), actor, ObjectTier, ActionTierView))
}

func TestAuthorizeSellerCannotOrder(t *testing.T) {
	svc, f := newTestService(t)
	seller := f.User(userdomain.UserTypeSeller, 0, "")
	actor := "user:" + seller.ID.String()

	err := svc.Authorize(context.Background(), actor, ObjectOrder, ActionOrderCreate)
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, svc.Authorize(context.Background(), actor, ObjectTier, ActionTierView))
}

func TestAuthorizeFollowsUserTypeChange(t *testing.T) {
	db := testutil.OpenDB(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
	f := testutil.NewFixtures(t, db, testutil.Node(t))

	user := f.User(userdomain.UserTypeSeller, 0, "")
	actor := "user:" + user.ID.String()
	require.ErrorIs(t, svc.Authorize(context.Background(), actor, ObjectOrder, ActionOrderCreate), ErrForbidden)

	require.NoError(t, db.Exec(`UPDATE users SET type = ? WHERE id = ?`, userdomain.UserTypeBuyer, user.ID).Error)
	require.NoError(t, svc.Authorize(context.Background(), actor, ObjectOrder, ActionOrderCreate))

	roles, err := enforcer.GetFilteredGroupingPolicy(0, actor)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{actor, RoleBuyer}}, roles)
}

func TestAuthorizeFailsWhenStaleRoleCannotBeRemoved(t *testing.T) {
	db := testutil.OpenDB(t)
	policyDB := testutil.OpenDB(t)
	enforcer, err := NewEnforcer(policyDB)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
	f := testutil.NewFixtures(t, db, testutil.Node(t))

	user := f.User(userdomain.UserTypeSeller, 0, "")
	actor := "user:" + user.ID.String()
	require.NoError(t, svc.Authorize(context.Background(), actor, ObjectTier, ActionTierView))

	sqlDB, err := policyDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	require.NoError(t, db.Exec(`UPDATE users SET type = ? WHERE id = ?`, userdomain.UserTypeBuyer, user.ID).Error)

	err = svc.Authorize(context.Background(), actor, ObjectOrder, ActionOrderCreate)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)

	roles, err := enforcer.GetFilteredGroupingPolicy(0, actor)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{actor, RoleSeller}}, roles)
}

func TestAuthorizeUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Authorize(context.Background(), "user:1234567", ObjectOrder, ActionOrderView)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeRejectsMalformedInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Authorize(ctx, "", ObjectOrder, ActionOrderView), ErrInvalidActor)
	require.ErrorIs(t, svc.Authorize(ctx, "api_key:1", ObjectOrder, ActionOrderView), ErrInvalidActor)
	require.ErrorIs(t, svc.Authorize(ctx, "user:abc", ObjectOrder, ActionOrderView), ErrInvalidActor)
	require.ErrorIs(t, svc.Authorize(ctx, "user:1", "", ActionOrderView), ErrInvalidObject)
	require.ErrorIs(t, svc.Authorize(ctx, "user:1", ObjectOrder, " "), ErrInvalidAction)
}

func TestNewEnforcerSeedsOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	require.Len(t, policies, 8)
}
