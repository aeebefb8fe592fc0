package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tourbook/internal/shared/model"
)

// GetTourBySlug 通过 slug 查找行程
func (s *Store) GetTourBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	return s.Tours().FindOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

// TourStats 按难度聚合行程统计，只统计评分不低于 floor 的行程
func (s *Store) TourStats(ctx context.Context, ratingFloor float64) ([]*model.TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "secret", Value: bson.D{{Key: "$ne", Value: true}}},
			{Key: "ratings_average", Value: bson.D{{Key: "$gte", Value: ratingFloor}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$difficulty"},
			{Key: "num_tours", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "num_ratings", Value: bson.D{{Key: "$sum", Value: "$ratings_quantity"}}},
			{Key: "avg_rating", Value: bson.D{{Key: "$avg", Value: "$ratings_average"}}},
			{Key: "avg_price", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "min_price", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "max_price", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avg_price", Value: 1}}}},
	}

	start := time.Now()
	cursor, err := s.col(ColTours).Aggregate(ctx, pipeline)
	s.logger.DBQueryLog("aggregate", ColTours, time.Since(start), err)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	stats := []*model.TourStats{}
	for cursor.Next(ctx) {
		var st model.TourStats
		if err := cursor.Decode(&st); err != nil {
			return nil, err
		}
		stats = append(stats, &st)
	}
	return stats, cursor.Err()
}

// ToursWithin 查找起点在给定球面半径内的行程
// radiusRadians = 距离 / 地球半径（由调用方按单位换算）
func (s *Store) ToursWithin(ctx context.Context, lng, lat, radiusRadians float64) ([]*model.Tour, error) {
	filter := bson.D{{Key: "start_location", Value: bson.D{
		{Key: "$geoWithin", Value: bson.D{
			{Key: "$centerSphere", Value: bson.A{bson.A{lng, lat}, radiusRadians}},
		}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return s.Tours().FindAll(ctx, filter, opts)
}
