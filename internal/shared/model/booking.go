package model

import "time"

// Booking 预订记录
//
// 由管理端直接创建，或由支付网关的 checkout.session.completed
// 事件间接创建（此时 Paid 为 true）。
type Booking struct {
	ID        string    `json:"id" bson:"_id" validate:"required"`
	TourID    string    `json:"tour" bson:"tour" validate:"required"`
	UserID    string    `json:"user" bson:"user" validate:"required"`
	Price     float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Paid      bool      `json:"paid" bson:"paid"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

func (b *Booking) GetID() string   { return b.ID }
func (b *Booking) SetID(id string) { b.ID = id }

func (b *Booking) BeforeSave() {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
}
