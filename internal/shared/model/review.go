package model

import "time"

// Review 行程评价
//
// (tour, user) 组合有唯一索引：每个用户对每个行程最多一条评价。
// 评价的每次写入和删除都会触发所属行程评分汇总的重算。
type Review struct {
	ID        string    `json:"id" bson:"_id" validate:"required"`
	Review    string    `json:"review" bson:"review" validate:"required"`
	Rating    float64   `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	TourID    string    `json:"tour" bson:"tour" validate:"required"`
	UserID    string    `json:"user" bson:"user" validate:"required"`
	Author    *User     `json:"author,omitempty" bson:"-"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

func (r *Review) GetID() string   { return r.ID }
func (r *Review) SetID(id string) { r.ID = id }

func (r *Review) BeforeSave() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// RatingRollup 行程的派生评分汇总
// 没有任何评价时回到默认值 (4.5, 0)
type RatingRollup struct {
	Average  float64
	Quantity int
}

// DefaultRollup 空评价集的评分汇总
func DefaultRollup() RatingRollup {
	return RatingRollup{Average: 4.5, Quantity: 0}
}
