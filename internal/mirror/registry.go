package mirror

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/incuhub/incuhub/internal/blob"
	"github.com/incuhub/incuhub/internal/schema"
	"github.com/incuhub/incuhub/internal/upstream"
)

// Registry 汇集全部镜像端点，路由层按字段直接绑定。
type Registry struct {
	EventList    *Collection
	Event        *Collection
	EventImage   *Image
	InvestorList *Collection
	Investor     *Collection
	NewsList     *Collection
	News         *Collection
	NewsImage    *Image
	PartnerList  *Collection
	Partner      *Collection
	StartupList  *Collection
	Startup      *Collection
	FounderImage *Image
	UserList     *Collection
	User         *Collection
	UserByEmail  *Collection
	UserImage    *Image
}

// paramID 把路径参数还原成整数主键；路由层已做格式校验，
// 这里的失败只可能来自模板与注册表不一致。
func paramID(params upstream.Params, name string) (int, error) {
	id, err := strconv.Atoi(params[name])
	if err != nil {
		return 0, &upstream.Error{
			Kind:   upstream.ErrorMissingParam,
			Status: http.StatusInternalServerError,
			Err:    fmt.Errorf("parameter %q: %w", name, err),
		}
	}
	return id, nil
}

// NewRegistry 按固定的上游路由表构建所有集合与图像端点。
func NewRegistry(deps Deps, blobs *blob.Store) *Registry {
	st := deps.Store

	return &Registry{
		EventList: NewList("events", "/events", deps,
			st.ListEvents, st.InsertEvents),
		Event: NewSingle("events", "/events/{event_id}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.Event, error) {
				id, err := paramID(params, "event_id")
				if err != nil {
					return nil, err
				}
				return st.GetEvent(ctx, id)
			},
			st.InsertEvent),
		EventImage: NewImage("events", "/events/{event_id}/image", blobs, deps),

		InvestorList: NewList("investors", "/investors", deps,
			st.ListInvestors, st.InsertInvestors),
		Investor: NewSingle("investors", "/investors/{investor_id}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.Investor, error) {
				id, err := paramID(params, "investor_id")
				if err != nil {
					return nil, err
				}
				return st.GetInvestor(ctx, id)
			},
			st.InsertInvestor),

		NewsList: NewList("news", "/news", deps,
			st.ListNews, st.InsertNewsList),
		News: NewSingle("news", "/news/{news_id}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.NewsDetail, error) {
				id, err := paramID(params, "news_id")
				if err != nil {
					return nil, err
				}
				return st.GetNews(ctx, id)
			},
			st.InsertNewsDetail),
		NewsImage: NewImage("news", "/news/{news_id}/image", blobs, deps),

		PartnerList: NewList("partners", "/partners", deps,
			st.ListPartners, st.InsertPartners),
		Partner: NewSingle("partners", "/partners/{partner_id}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.Partner, error) {
				id, err := paramID(params, "partner_id")
				if err != nil {
					return nil, err
				}
				return st.GetPartner(ctx, id)
			},
			st.InsertPartner),

		StartupList: NewList("startups", "/startups", deps,
			st.ListStartups, st.InsertStartups),
		Startup: NewSingle("startups", "/startups/{startup_id}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.StartupDetail, error) {
				id, err := paramID(params, "startup_id")
				if err != nil {
					return nil, err
				}
				return st.GetStartup(ctx, id)
			},
			st.InsertStartupDetail),
		FounderImage: NewImage("founders",
			"/startups/{startup_id}/founders/{founder_id}/image", blobs, deps),

		UserList: NewList("users", "/users", deps,
			st.ListUsers, st.InsertUsers),
		User: NewSingle("users", "/users/{user_id}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.User, error) {
				id, err := paramID(params, "user_id")
				if err != nil {
					return nil, err
				}
				return st.GetUser(ctx, id)
			},
			st.InsertUser),
		UserByEmail: NewSingle("users", "/users/email/{email}", deps,
			func(ctx context.Context, params upstream.Params) (*schema.User, error) {
				return st.GetUserByEmail(ctx, params["email"])
			},
			st.InsertUser),
		UserImage: NewImage("users", "/users/{user_id}/image", blobs, deps),
	}
}
