package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrder = "order"
	ObjectTier  = "tier"
)

const (
	ActionOrderCreate  = "order.create"
	ActionOrderView    = "order.view"
	ActionOrderUpdate  = "order.update"
	ActionOrderDelete  = "order.delete"
	ActionOrderPay     = "order.pay"
	ActionOrderReceipt = "order.receipt"

	ActionTierView = "tier.view"
)

const (
	RoleBuyer  = "role:buyer"
	RoleSeller = "role:seller"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	userID, err := parseUserActor(actor)
	if err != nil {
		return err
	}

	roleName, err := s.roleForUser(ctx, userID)
	if err != nil {
		s.logDenied(actor, object, action, err)
		return err
	}
	if err := s.ensureGrouping(actor, roleName); err != nil {
		s.log.Error("role sync failed", zap.String("actor", actor), zap.String("role", roleName), zap.Error(err))
		return err
	}

	allowed, err := s.enforcer.Enforce(actor, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.logDenied(actor, object, action, ErrForbidden)
		return ErrForbidden
	}
	return nil
}

func parseUserActor(actor string) (snowflake.ID, error) {
	if !strings.HasPrefix(actor, "user:") {
		return 0, ErrInvalidActor
	}
	userID, err := snowflake.ParseString(strings.TrimPrefix(actor, "user:"))
	if err != nil || userID == 0 {
		return 0, ErrInvalidActor
	}
	return userID, nil
}

// roleForUser maps the account type to its casbin role. Unknown users are forbidden.
func (s *ServiceImpl) roleForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	var rows []struct {
		Type string `gorm:"column:type"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT type FROM users WHERE id = ? LIMIT 1`,
		userID,
	).Scan(&rows).Error; err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrForbidden
	}

	userType := strings.TrimSpace(rows[0].Type)
	if userType == "" {
		return "", ErrForbidden
	}
	return fmt.Sprintf("role:%s", strings.ToLower(userType)), nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
				return fmt.Errorf("remove role %s from %s: %w", rule[1], subject, err)
			}
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) logDenied(actor, object, action string, reason error) {
	s.log.Info("authorization denied",
		zap.String("actor", actor),
		zap.String("object", object),
		zap.String("action", action),
		zap.Error(reason),
	)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Only buyers place and manage orders.
		{RoleBuyer, ObjectOrder, ActionOrderCreate},
		{RoleBuyer, ObjectOrder, ActionOrderView},
		{RoleBuyer, ObjectOrder, ActionOrderUpdate},
		{RoleBuyer, ObjectOrder, ActionOrderDelete},
		{RoleBuyer, ObjectOrder, ActionOrderPay},
		{RoleBuyer, ObjectOrder, ActionOrderReceipt},

		{RoleBuyer, ObjectTier, ActionTierView},
		{RoleSeller, ObjectTier, ActionTierView},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
