// Package mongostore 基于 MongoDB 的持久化存储
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tourbook/internal/shared/model"
	"tourbook/pkg/logging"
)

// Collection 名称常量
const (
	ColTours    = "tours"
	ColUsers    = "users"
	ColReviews  = "reviews"
	ColBookings = "bookings"
)

// Store MongoDB 存储实例
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logging.Logger
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "tourbook"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db, logger: logging.Default("mongostore")}

	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建所有必要的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// tours
		{ColTours, bson.D{{Key: "name", Value: 1}}, true},
		{ColTours, bson.D{{Key: "slug", Value: 1}}, false},
		{ColTours, bson.D{{Key: "price", Value: 1}, {Key: "ratings_average", Value: -1}}, false},
		{ColTours, bson.D{{Key: "start_location", Value: "2dsphere"}}, false},

		// users
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "password_reset_token", Value: 1}}, false},

		// reviews：每个 (tour, user) 组合最多一条评价
		{ColReviews, bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, true},
		{ColReviews, bson.D{{Key: "created_at", Value: -1}}, false},

		// bookings
		{ColBookings, bson.D{{Key: "user", Value: 1}}, false},
		{ColBookings, bson.D{{Key: "tour", Value: 1}}, false},
	}

	for _, i := range indexes {
		m := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			m.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, m); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}

// Tours 行程集合句柄
// 默认约束：secret 行程不出现在任何常规读取中
func (s *Store) Tours() *Collection[model.Tour] {
	return &Collection[model.Tour]{
		col:      s.col(ColTours),
		idPrefix: "tour",
		defaults: bson.D{{Key: "secret", Value: bson.D{{Key: "$ne", Value: true}}}},
	}
}

// Users 用户集合句柄
// 默认约束：active=false 的用户不出现在任何常规读取中
func (s *Store) Users() *Collection[model.User] {
	return &Collection[model.User]{
		col:      s.col(ColUsers),
		idPrefix: "user",
		defaults: bson.D{{Key: "active", Value: bson.D{{Key: "$ne", Value: false}}}},
	}
}

// Reviews 评价集合句柄
func (s *Store) Reviews() *Collection[model.Review] {
	return &Collection[model.Review]{col: s.col(ColReviews), idPrefix: "rev"}
}

// Bookings 预订集合句柄
func (s *Store) Bookings() *Collection[model.Booking] {
	return &Collection[model.Booking]{col: s.col(ColBookings), idPrefix: "bkg"}
}
