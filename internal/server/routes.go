package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/incuhub/incuhub/internal/auth"
	"github.com/incuhub/incuhub/internal/mapper"
	"github.com/incuhub/incuhub/internal/mirror"
	"github.com/incuhub/incuhub/internal/upstream"
)

func registerRoutes(app *fiber.App, opts AppOptions) {
	api := app.Group("/api")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Hello, World!"})
	})

	reg := opts.Registry
	logger := opts.Logger

	api.Get("/events", collectionHandler(reg.EventList, logger))
	api.Get("/events/:event_id", collectionHandler(reg.Event, logger, "event_id"))
	api.Get("/events/:event_id/image", imageHandler(reg.EventImage, logger, "event_id"))

	api.Get("/investors", collectionHandler(reg.InvestorList, logger))
	api.Get("/investors/:investor_id", collectionHandler(reg.Investor, logger, "investor_id"))

	api.Get("/news", collectionHandler(reg.NewsList, logger))
	api.Get("/news/:news_id", collectionHandler(reg.News, logger, "news_id"))
	api.Get("/news/:news_id/image", imageHandler(reg.NewsImage, logger, "news_id"))

	api.Get("/partners", collectionHandler(reg.PartnerList, logger))
	api.Get("/partners/:partner_id", collectionHandler(reg.Partner, logger, "partner_id"))

	api.Get("/startups", collectionHandler(reg.StartupList, logger))
	api.Get("/startups/:startup_id", collectionHandler(reg.Startup, logger, "startup_id"))
	api.Get("/startups/:startup_id/founders/:founder_id/image",
		imageHandler(reg.FounderImage, logger, "startup_id", "founder_id"))

	api.Get("/users", collectionHandler(reg.UserList, logger))
	api.Get("/users/email/:email", emailHandler(reg.UserByEmail, logger))
	api.Get("/users/:user_id", collectionHandler(reg.User, logger, "user_id"))
	api.Get("/users/:user_id/image", imageHandler(reg.UserImage, logger, "user_id"))

	registerAuthRoutes(api, opts)
	registerProjectRoutes(api, opts)
}

// pathParams 收集路径参数；以 _id 结尾的参数必须是正整数。
func pathParams(c fiber.Ctx, names ...string) (upstream.Params, error) {
	params := make(upstream.Params, len(names))
	for _, name := range names {
		value := c.Params(name)
		if strings.HasSuffix(name, "_id") {
			if _, err := strconv.Atoi(value); err != nil {
				return nil, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"detail": "Invalid path parameter: " + name,
				})
			}
		}
		params[name] = value
	}
	return params, nil
}

func collectionHandler(col *mirror.Collection, logger *logrus.Logger, names ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		params, err := pathParams(c, names...)
		if params == nil {
			return err
		}
		out, err := col.Handle(c.Context(), params)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondOutcome(c, out)
	}
}

func imageHandler(img *mirror.Image, logger *logrus.Logger, names ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		params, err := pathParams(c, names...)
		if params == nil {
			return err
		}
		out, err := img.Handle(c.Context(), params)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondOutcome(c, out)
	}
}

// emailHandler 与 collectionHandler 相同，但 email 参数不做整数校验。
func emailHandler(col *mirror.Collection, logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		params := upstream.Params{"email": c.Params("email")}
		out, err := col.Handle(c.Context(), params)
		if err != nil {
			return respondError(c, logger, err)
		}
		return respondOutcome(c, out)
	}
}

// respondOutcome 把镜像结果写回客户端；Raw 分支原样透传上游响应。
func respondOutcome(c fiber.Ctx, out *mirror.Outcome) error {
	if out.Raw != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(out.Status).Send(out.Raw)
	}
	if out.Body != nil {
		c.Set(fiber.HeaderContentType, out.ContentType)
		return c.Status(out.Status).Send(out.Body)
	}
	return c.Status(out.Status).JSON(out.Payload)
}

// respondError 是错误分类的唯一出口：上游网络故障按 404 呈现，
// 载荷校验与存储故障一律 500，认证错误携带自身的状态与详情。
func respondError(c fiber.Ctx, logger *logrus.Logger, err error) error {
	var aerr *auth.Error
	if errors.As(err, &aerr) {
		return c.Status(aerr.Status).JSON(fiber.Map{"detail": aerr.Detail})
	}

	var uerr *upstream.Error
	if errors.As(err, &uerr) {
		if uerr.Kind == upstream.ErrorUnreachable {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not Found"})
		}
		logError(c, logger, err)
		return c.Status(uerr.Status).JSON(fiber.Map{"detail": "Internal Server Error"})
	}

	var verr *mapper.ValidationError
	if errors.As(err, &verr) {
		logError(c, logger, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Internal Server Error",
		})
	}

	logError(c, logger, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"detail": "Internal Server Error",
	})
}

func logError(c fiber.Ctx, logger *logrus.Logger, err error) {
	if logger == nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"action":     "request_failed",
		"path":       c.Path(),
		"request_id": RequestID(c),
	}).WithError(err).Error("请求处理失败")
}
