// Package model 领域实体定义
//
// 所有实体通过 bson tag 持久化到 MongoDB，通过 json tag 序列化给客户端。
// 字段约束统一用 validator tag 声明，由通用 CRUD 工厂在写入前校验。
package model

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"tourbook/internal/shared/apperr"
)

// Entity CRUD 工厂依赖的实体能力接口
type Entity interface {
	GetID() string
	SetID(id string)
	// BeforeSave 在每次持久化（创建和更新）前调用，
	// 负责派生字段（slug、时间戳默认值）的维护
	BeforeSave()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验实体字段约束，失败时返回 400 级错误
func Validate(doc any) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.BadRequest("invalid input data")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldErrorMessage(fe))
	}
	return apperr.BadRequest("invalid input data: " + strings.Join(msgs, "; "))
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// NewID 生成带前缀的唯一标识符，格式 prefix-xxxxxxxxxxxx
func NewID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// RoundRating 将评分平均值四舍五入到一位小数
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// Slugify 从名称派生 URL slug：小写，非字母数字折叠为连字符
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
