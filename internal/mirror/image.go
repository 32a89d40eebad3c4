package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/incuhub/incuhub/internal/blob"
	"github.com/incuhub/incuhub/internal/logging"
	"github.com/incuhub/incuhub/internal/upstream"
)

// imageContentType 对外统一以 PNG 返回，与落盘扩展名一致。
const imageContentType = "image/png"

// Image 镜像一个二进制图像端点：磁盘文件即缓存，存在即命中。
type Image struct {
	name  string
	route string
	blobs *blob.Store
	deps  Deps
}

// NewImage 构造图像镜像端点。
func NewImage(name, route string, blobs *blob.Store, deps Deps) *Image {
	return &Image{name: name, route: route, blobs: blobs, deps: deps}
}

// Handle 先查磁盘缓存，未命中则回源。上游返回二进制才落盘；
// 返回 2xx JSON 属于上游异常，按 500 处理且不写任何文件。
func (i *Image) Handle(ctx context.Context, params upstream.Params) (*Outcome, error) {
	route, err := upstream.ResolveRoute(i.route, params)
	if err != nil {
		return nil, err
	}

	data, err := i.blobs.Get(ctx, route)
	if err == nil {
		i.log(route, true)
		return &Outcome{Status: http.StatusOK, Body: data, ContentType: imageContentType}, nil
	}
	if !errors.Is(err, blob.ErrNotFound) {
		return nil, err
	}

	value, err, _ := i.deps.Group.Do(route, func() (any, error) {
		// singleflight 合并并发首访后可能已有人落盘，先复查。
		if data, err := i.blobs.Get(ctx, route); err == nil {
			return &Outcome{Status: http.StatusOK, Body: data, ContentType: imageContentType}, nil
		}

		result, err := i.deps.Client.Fetch(ctx, i.route, params)
		if err != nil {
			return nil, err
		}
		if !result.OK() {
			if result.Kind == upstream.KindJSON {
				return &Outcome{Status: result.Status, Raw: result.JSON}, nil
			}
			return &Outcome{Status: result.Status, Body: result.Body, ContentType: imageContentType}, nil
		}
		if result.Kind != upstream.KindBinary {
			return nil, &upstream.Error{
				Kind:   upstream.ErrorInvalidResponse,
				Status: http.StatusInternalServerError,
				Err:    fmt.Errorf("route %s: expected binary payload", route),
			}
		}

		if _, err := i.blobs.Put(ctx, route, result.Body); err != nil {
			return nil, err
		}
		return &Outcome{Status: http.StatusOK, Body: result.Body, ContentType: imageContentType}, nil
	})
	if err != nil {
		return nil, err
	}

	i.log(route, false)
	return value.(*Outcome), nil
}

func (i *Image) log(route string, hit bool) {
	if i.deps.Logger == nil {
		return
	}
	i.deps.Logger.WithFields(logging.ResourceFields(i.name, "image", hit)).
		WithField("route", route).
		Info("镜像读取完成")
}
