package registry

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-notifier-go/exchange"
)

// 确保实现了接口
var _ Store = (*MySQLStore)(nil)

// MySQLStore GORM/MySQL 实现
type MySQLStore struct {
	db *gorm.DB
}

// OpenMySQL connects, migrates the three tables and seeds the exchange
// metadata rows.
func OpenMySQL(dsn string) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.AutoMigrate(&Exchange{}, &Subscription{}, &UserOrder{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s := &MySQLStore{db: db}
	if err := s.seedExchanges(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) seedExchanges() error {
	rows := make([]Exchange, 0, len(exchange.Supported()))
	for _, info := range exchange.Supported() {
		rows = append(rows, Exchange{ID: info.ID, Name: info.Name, URL: info.URL})
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *MySQLStore) SubscribedUserIDs(ctx context.Context) ([]int64, error) {
	var uids []int64
	err := s.db.WithContext(ctx).
		Model(&Subscription{}).
		Distinct("uid").
		Pluck("uid", &uids).Error
	return uids, err
}

func (s *MySQLStore) Credentials(ctx context.Context, uid int64, exchangeID int) (string, string, bool, error) {
	var sub Subscription
	err := s.db.WithContext(ctx).
		Where("uid = ? AND exchange_id = ?", uid, exchangeID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return sub.APIKey, sub.SecretKey, true, nil
}

func (s *MySQLStore) TrackedOrderIDs(ctx context.Context, uid int64, exchangeID int) (map[string]struct{}, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&UserOrder{}).
		Where("uid = ? AND exchange_id = ?", uid, exchangeID).
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *MySQLStore) AddTrackedOrderIDs(ctx context.Context, refs []OrderRef) error {
	if len(refs) == 0 {
		return nil
	}
	rows := make([]UserOrder, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, UserOrder{UID: r.UID, ExchangeID: r.ExchangeID, OrderID: r.OrderID})
	}
	// ON DUPLICATE KEY 无操作，重复插入不会膨胀记录
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (s *MySQLStore) IsSubscribed(ctx context.Context, uid int64, exchangeID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("uid = ? AND exchange_id = ?", uid, exchangeID).
		Count(&count).Error
	return count > 0, err
}

func (s *MySQLStore) Subscribe(ctx context.Context, uid int64, exchangeID int, apiKey, secret string) error {
	subscribed, err := s.IsSubscribed(ctx, uid, exchangeID)
	if err != nil {
		return err
	}
	if subscribed {
		return ErrAlreadySubscribed
	}
	return s.db.WithContext(ctx).Create(&Subscription{
		UID:        uid,
		ExchangeID: exchangeID,
		APIKey:     apiKey,
		SecretKey:  secret,
	}).Error
}

func (s *MySQLStore) Unsubscribe(ctx context.Context, uid int64, exchangeID int) error {
	res := s.db.WithContext(ctx).
		Where("uid = ? AND exchange_id = ?", uid, exchangeID).
		Delete(&Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotSubscribed
	}
	return nil
}

func (s *MySQLStore) UserSubscriptions(ctx context.Context, uid int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&Subscription{}).
		Select("exchanges.name").
		Joins("JOIN exchanges ON exchanges.id = subscriptions.exchange_id").
		Where("subscriptions.uid = ?", uid).
		Scan(&names).Error
	return names, err
}
