package server

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/incuhub/incuhub/internal/storage"
)

// 项目 Logo 允许的上传类型与落盘扩展名。
var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func registerAuthRoutes(api fiber.Router, opts AppOptions) {
	api.Get("/auth/me", func(c fiber.Ctx) error {
		user, err := opts.Auth.CurrentUser(c.Context(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return respondError(c, opts.Logger, err)
		}
		return c.JSON(user)
	})
}

func registerProjectRoutes(api fiber.Router, opts AppOptions) {
	api.Get("/projects", func(c fiber.Ctx) error {
		projects, err := opts.Store.ListProjects(c.Context())
		if err != nil {
			return respondError(c, opts.Logger, err)
		}
		return c.JSON(projects)
	})

	api.Get("/projects/:project_id", func(c fiber.Ctx) error {
		id, ok := intParam(c, "project_id")
		if !ok {
			return nil
		}
		project, err := opts.Store.GetProject(c.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not Found"})
		}
		if err != nil {
			return respondError(c, opts.Logger, err)
		}
		return c.JSON(project)
	})

	api.Post("/projects/:startup_id", createProjectHandler(opts))

	api.Delete("/projects/:project_id", func(c fiber.Ctx) error {
		id, ok := intParam(c, "project_id")
		if !ok {
			return nil
		}
		err := opts.Store.DeleteProject(c.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Project not found"})
		}
		if err != nil {
			return respondError(c, opts.Logger, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Post("/projects/:project_id/like", likeProjectHandler(opts))
}

// createProjectHandler 处理 multipart 表单创建项目。Logo 资产以
// sha256(name+description) 命名落盘，同名资产存在即视为重复项目。
func createProjectHandler(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		startupID, ok := intParam(c, "startup_id")
		if !ok {
			return nil
		}

		name := c.FormValue("name")
		description := c.FormValue("description")
		if name == "" || description == "" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"detail": "name and description are required",
			})
		}

		var logoData []byte
		var logoExt string
		if header, err := c.FormFile("logo"); err == nil && header != nil {
			contentType := header.Header.Get("Content-Type")
			ext, allowed := logoExtensions[contentType]
			if !allowed {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"detail": "Unsupported file type: " + contentType +
						". Allowed: " + strings.Join(allowedLogoTypes(), ", "),
				})
			}
			file, err := header.Open()
			if err != nil {
				return respondError(c, opts.Logger, err)
			}
			logoData, err = io.ReadAll(file)
			file.Close()
			if err != nil {
				return respondError(c, opts.Logger, err)
			}
			logoExt = ext
		}

		if _, err := opts.Store.GetStartup(c.Context(), startupID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Startup not found"})
			}
			return respondError(c, opts.Logger, err)
		}

		sum := sha256.Sum256([]byte(name + description))
		logoPath := filepath.Join(opts.AssetPath, hex.EncodeToString(sum[:])+logoExt)
		if _, err := os.Stat(logoPath); err == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "A project with the same name and description already exist",
			})
		}
		if logoData != nil {
			if err := os.WriteFile(logoPath, logoData, 0o644); err != nil {
				return respondError(c, opts.Logger, err)
			}
		}

		project := storage.Project{
			Logo:        &logoPath,
			Name:        name,
			Description: description,
			Worth:       0,
			StartupID:   startupID,
		}
		if _, err := opts.Store.CreateProject(c.Context(), project); err != nil {
			return respondError(c, opts.Logger, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Project successfully created",
		})
	}
}

// likeProjectHandler 需要有效的 Bearer 令牌；同一用户重复点赞返回 400。
func likeProjectHandler(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		projectID, ok := intParam(c, "project_id")
		if !ok {
			return nil
		}

		user, err := opts.Auth.CurrentUser(c.Context(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return respondError(c, opts.Logger, err)
		}

		if _, err := opts.Store.GetProject(c.Context(), projectID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Project not found"})
			}
			return respondError(c, opts.Logger, err)
		}

		err = opts.Store.LikeProject(c.Context(), user.ID, projectID)
		if errors.Is(err, storage.ErrDuplicate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Already liked"})
		}
		if err != nil {
			return respondError(c, opts.Logger, err)
		}
		return c.JSON(fiber.Map{"message": "Project liked"})
	}
}

// intParam 解析必须为正整数的路径参数，失败时直接写回 422。
func intParam(c fiber.Ctx, name string) (int, bool) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil {
		_ = c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "Invalid path parameter: " + name,
		})
		return 0, false
	}
	return id, true
}

func allowedLogoTypes() []string {
	types := make([]string, 0, len(logoExtensions))
	for contentType := range logoExtensions {
		types = append(types, contentType)
	}
	sort.Strings(types)
	return types
}
