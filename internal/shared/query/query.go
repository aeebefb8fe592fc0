// Package query 将请求参数翻译为 MongoDB 查询配置
//
// 翻译是纯函数：不做任何 I/O，执行推迟到调用方物化结果。
// 保留控制参数 {page, sort, limit, fields} 之外的参数按实体的
// FieldSpec 白名单解释为过滤条件，白名单之外的键被拒绝。
// 实体级默认约束（如 secret tour 排除）由存储层单独叠加，
// 不在本包职责内。
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/shared/apperr"
)

// 保留控制参数
const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

// DefaultLimit 未指定 limit 时的每页条数
const DefaultLimit = 100

// 分页参数上限，page*limit 不会溢出 int64
const (
	MaxPage  = 1_000_000
	MaxLimit = 1000
)

// Kind 过滤值类型
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

// 比较操作符，对应 field[op]=value 形式
var comparisonOps = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Field 实体允许过滤/排序的一个字段
type Field struct {
	Column string // bson 字段名
	Kind   Kind
}

// FieldSpec 实体的字段白名单，键为 API 参数名
type FieldSpec map[string]Field

// Options 构建完成的查询配置
type Options struct {
	Filter     bson.D
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64
	Page       int64
	PageSet    bool // page 参数被显式提供，越界时需报错
}

// Parse 按固定顺序（过滤→排序→字段选择→分页）构建查询配置
// 结果只取决于参数值，与参数出现顺序无关
func Parse(values url.Values, spec FieldSpec) (*Options, error) {
	opts := &Options{
		Filter: bson.D{},
		Sort:   bson.D{},
		Page:   1,
		Limit:  DefaultLimit,
	}

	if err := parseFilter(values, spec, opts); err != nil {
		return nil, err
	}
	if err := parseSort(values.Get(ParamSort), spec, opts); err != nil {
		return nil, err
	}
	if err := parseProjection(values.Get(ParamFields), spec, opts); err != nil {
		return nil, err
	}
	if err := parsePagination(values, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func parseFilter(values url.Values, spec FieldSpec, opts *Options) error {
	// map 遍历无序，按键排序保证输出确定
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// 同一字段的多个比较操作合并为一个子文档
	ops := map[string]bson.D{}
	var fields []string

	for _, key := range keys {
		name, op := splitOperator(key)
		switch name {
		case ParamPage, ParamSort, ParamLimit, ParamFields:
			continue
		}
		f, ok := spec[name]
		if !ok {
			return apperr.BadRequest(fmt.Sprintf("cannot filter by %q", name))
		}
		value, err := coerce(values.Get(key), f.Kind, name)
		if err != nil {
			return err
		}
		if op == "" {
			opts.Filter = append(opts.Filter, bson.E{Key: f.Column, Value: value})
			continue
		}
		mongoOp, ok := comparisonOps[op]
		if !ok {
			return apperr.BadRequest(fmt.Sprintf("unsupported operator %q on %q", op, name))
		}
		if _, seen := ops[f.Column]; !seen {
			fields = append(fields, f.Column)
		}
		ops[f.Column] = append(ops[f.Column], bson.E{Key: mongoOp, Value: value})
	}

	for _, column := range fields {
		opts.Filter = append(opts.Filter, bson.E{Key: column, Value: ops[column]})
	}
	return nil
}

// splitOperator 拆解 field[op] 形式的参数名
func splitOperator(key string) (name, op string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}

func coerce(raw string, kind Kind, name string) (any, error) {
	switch kind {
	case KindNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperr.BadRequest(fmt.Sprintf("%s must be a number", name))
		}
		return v, nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.BadRequest(fmt.Sprintf("%s must be a boolean", name))
		}
		return v, nil
	default:
		return raw, nil
	}
}

func parseSort(raw string, spec FieldSpec, opts *Options) error {
	if raw == "" {
		opts.Sort = bson.D{{Key: "created_at", Value: -1}}
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		f, ok := spec[part]
		if !ok {
			return apperr.BadRequest(fmt.Sprintf("cannot sort by %q", part))
		}
		opts.Sort = append(opts.Sort, bson.E{Key: f.Column, Value: dir})
	}
	return nil
}

func parseProjection(raw string, spec FieldSpec, opts *Options) error {
	if raw == "" {
		return nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, ok := spec[part]
		if !ok {
			return apperr.BadRequest(fmt.Sprintf("unknown field %q", part))
		}
		opts.Projection = append(opts.Projection, bson.E{Key: f.Column, Value: 1})
	}
	return nil
}

func parsePagination(values url.Values, opts *Options) error {
	if raw := values.Get(ParamPage); raw != "" {
		page, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || page < 1 || page > MaxPage {
			return apperr.BadRequest("page must be a positive integer")
		}
		opts.Page = page
		opts.PageSet = true
	}
	if raw := values.Get(ParamLimit); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 || limit > MaxLimit {
			return apperr.BadRequest("limit must be a positive integer")
		}
		opts.Limit = limit
	}
	opts.Skip = (opts.Page - 1) * opts.Limit
	return nil
}
