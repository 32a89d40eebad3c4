// Package mirror implements the lazy read-through layer: every request is
// answered from local storage when possible, and populated exactly once from
// the upstream provider on the first miss. There is no expiry and no
// invalidation; rows, once written, are authoritative forever.
package mirror

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/incuhub/incuhub/internal/logging"
	"github.com/incuhub/incuhub/internal/mapper"
	"github.com/incuhub/incuhub/internal/storage"
	"github.com/incuhub/incuhub/internal/upstream"
)

// Outcome 是一次镜像访问的最终结果，由路由层直接序列化。
// Raw 非空表示上游的非 2xx 响应，必须原样透传（状态码与响应体都不改写）。
type Outcome struct {
	Status      int
	Payload     any
	Raw         json.RawMessage
	Body        []byte
	ContentType string
}

// Deps 聚合所有集合共享的依赖；singleflight 组按解析后的路由去重，
// 保证同一资源的首次回源只发生一次。
type Deps struct {
	Client *upstream.Client
	Store  *storage.Store
	Logger *logrus.Logger
	Group  *singleflight.Group
}

// Collection 描述一个可镜像的资源端点：本地查询闭包 + 回源填充闭包。
// 列表与单条语义差异全部封装在闭包里，Handle 本身只有一条路径。
type Collection struct {
	name  string
	route string
	deps  Deps

	// load 返回本地已有数据；(nil, nil) 表示未命中需要回源。
	load func(ctx context.Context, params upstream.Params) (any, error)
	// populate 解码上游载荷并写库，返回对外响应的数据。
	populate func(ctx context.Context, raw json.RawMessage) (any, error)
}

// NewList 构造列表集合。本地表非空即视为完整镜像，空表才回源。
func NewList[T mapper.Validator](
	name, route string,
	deps Deps,
	list func(ctx context.Context) ([]T, error),
	insert func(ctx context.Context, items []T) error,
) *Collection {
	return &Collection{
		name:  name,
		route: route,
		deps:  deps,
		load: func(ctx context.Context, _ upstream.Params) (any, error) {
			items, err := list(ctx)
			if err != nil {
				return nil, err
			}
			if len(items) == 0 {
				return nil, nil
			}
			return items, nil
		},
		populate: func(ctx context.Context, raw json.RawMessage) (any, error) {
			items, err := mapper.DecodeList[T](raw)
			if err != nil {
				return nil, err
			}
			if err := insert(ctx, items); err != nil {
				return nil, err
			}
			if items == nil {
				items = []T{}
			}
			return items, nil
		},
	}
}

// NewSingle 构造单条集合。get 未找到返回 storage.ErrNotFound 即触发回源。
func NewSingle[T mapper.Validator](
	name, route string,
	deps Deps,
	get func(ctx context.Context, params upstream.Params) (*T, error),
	insert func(ctx context.Context, item T) error,
) *Collection {
	return &Collection{
		name:  name,
		route: route,
		deps:  deps,
		load: func(ctx context.Context, params upstream.Params) (any, error) {
			item, err := get(ctx, params)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return item, nil
		},
		populate: func(ctx context.Context, raw json.RawMessage) (any, error) {
			item, err := mapper.DecodeOne[T](raw)
			if err != nil {
				return nil, err
			}
			if err := insert(ctx, item); err != nil {
				return nil, err
			}
			return item, nil
		},
	}
}

// Handle 执行一次读穿访问：本地命中直接返回，未命中经 singleflight
// 回源一次；上游非 2xx 原样透传且不写库。
func (c *Collection) Handle(ctx context.Context, params upstream.Params) (*Outcome, error) {
	route, err := upstream.ResolveRoute(c.route, params)
	if err != nil {
		return nil, err
	}

	local, err := c.load(ctx, params)
	if err != nil {
		return nil, err
	}
	if local != nil {
		c.log(route, true)
		return &Outcome{Status: 200, Payload: local}, nil
	}

	value, err, _ := c.deps.Group.Do(route, func() (any, error) {
		result, err := c.deps.Client.Fetch(ctx, c.route, params)
		if err != nil {
			return nil, err
		}
		if !result.OK() {
			return &Outcome{Status: result.Status, Raw: result.JSON}, nil
		}
		payload, err := c.populate(ctx, result.JSON)
		if err != nil {
			return nil, err
		}
		return &Outcome{Status: 200, Payload: payload}, nil
	})
	if err != nil {
		return nil, err
	}

	c.log(route, false)
	return value.(*Outcome), nil
}

func (c *Collection) log(route string, hit bool) {
	if c.deps.Logger == nil {
		return
	}
	c.deps.Logger.WithFields(logging.ResourceFields(c.name, "collection", hit)).
		WithField("route", route).
		Info("镜像读取完成")
}
