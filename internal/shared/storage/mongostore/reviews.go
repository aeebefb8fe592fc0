package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"tourbook/internal/shared/model"
)

// RecalcTourRatings 从现存评价重算行程的评分汇总并写回行程
//
// 这是显式的应用层服务，由评价的写入/删除路径调用，不走隐式钩子。
// 重算对相同评价集幂等；没有任何评价时回到默认值 (4.5, 0)。
// 与触发它的评价写入不在同一事务内，汇总值是可重算的派生数据。
func (s *Store) RecalcTourRatings(ctx context.Context, tourID string) (model.RatingRollup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "tour", Value: tourID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "num_ratings", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}

	start := time.Now()
	cursor, err := s.col(ColReviews).Aggregate(ctx, pipeline)
	s.logger.DBQueryLog("aggregate", ColReviews, time.Since(start), err)
	if err != nil {
		return model.RatingRollup{}, wrapError(err)
	}
	defer cursor.Close(ctx)

	rollup := model.DefaultRollup()
	if cursor.Next(ctx) {
		var agg struct {
			NumRatings int     `bson:"num_ratings"`
			AvgRating  float64 `bson:"avg_rating"`
		}
		if err := cursor.Decode(&agg); err != nil {
			return model.RatingRollup{}, err
		}
		rollup = model.RatingRollup{
			Average:  model.RoundRating(agg.AvgRating),
			Quantity: agg.NumRatings,
		}
	}
	if err := cursor.Err(); err != nil {
		return model.RatingRollup{}, err
	}

	err = s.Tours().Patch(ctx, tourID, bson.D{
		{Key: "ratings_average", Value: rollup.Average},
		{Key: "ratings_quantity", Value: rollup.Quantity},
	})
	return rollup, err
}
