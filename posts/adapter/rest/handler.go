package rest

import (
	"errors"
	"net/url"
	"strings"

	pkgError "github.com/AzielCF/az-posts/pkg/error"
	"github.com/AzielCF/az-posts/pkg/utils"
	"github.com/AzielCF/az-posts/posts/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// PostHandler serves the post endpoints.
type PostHandler struct {
	service domain.PostUsecase
}

func NewPostHandler(service domain.PostUsecase) *PostHandler {
	return &PostHandler{service: service}
}

// RegisterRoutes mounts the post routes under /posts.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	posts := router.Group("/posts")

	posts.Get("/", h.ListPosts)
	posts.Post("/", h.CreatePost)
	posts.Get("/:id", h.GetPost)
	posts.Delete("/:id", h.DeletePost)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: "Posts retrieved",
		Results: posts,
	})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.service.GetByID(c.UserContext(), pathID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: "Post retrieved",
		Results: post,
	})
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req domain.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, pkgError.ValidationError("invalid request body: "+err.Error()))
	}

	post, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	c.Location(strings.TrimSuffix(c.Path(), "/") + "/" + url.PathEscape(post.ID))
	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: "Post created",
		Results: post,
	})
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	if err := h.service.DeleteByID(c.UserContext(), pathID(c)); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func pathID(c *fiber.Ctx) string {
	id := c.Params("id")
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

// toHTTPError maps service errors onto the HTTP error types.
func toHTTPError(err error) pkgError.GenericError {
	var generic pkgError.GenericError
	switch {
	case errors.As(err, &generic):
		return generic
	case errors.Is(err, domain.ErrPostNotFound):
		return pkgError.NotFoundError(err.Error())
	case errors.Is(err, domain.ErrDuplicatePost):
		return pkgError.ConflictError(err.Error())
	default:
		return pkgError.InternalServerError(err.Error())
	}
}

func respondError(c *fiber.Ctx, err error) error {
	httpErr := toHTTPError(err)
	if httpErr.StatusCode() >= fiber.StatusInternalServerError {
		logrus.WithError(err).Errorf("[REST] %s %s failed", c.Method(), c.Path())
	}

	return c.Status(httpErr.StatusCode()).JSON(utils.ResponseData{
		Status:  httpErr.StatusCode(),
		Code:    httpErr.ErrCode(),
		Message: httpErr.Error(),
	})
}
