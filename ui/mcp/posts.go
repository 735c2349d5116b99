package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgError "github.com/AzielCF/az-posts/pkg/error"
	"github.com/AzielCF/az-posts/posts/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type PostHandler struct {
	service domain.PostUsecase
}

func InitMcpPosts(service domain.PostUsecase) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) AddPostTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolListPosts(), h.handleListPosts)
	mcpServer.AddTool(h.toolGetPost(), h.handleGetPost)
	mcpServer.AddTool(h.toolCreatePost(), h.handleCreatePost)
	mcpServer.AddTool(h.toolDeletePost(), h.handleDeletePost)
}

func (h *PostHandler) toolListPosts() mcp.Tool {
	return mcp.NewTool(
		"posts_list",
		mcp.WithDescription("List every post in the store, seeding it from the remote feed when empty."),
		mcp.WithTitleAnnotation("List Posts"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *PostHandler) handleListPosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, err := h.service.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Found %d posts", len(posts))
	return mcp.NewToolResultStructured(map[string]any{"posts": posts}, fallback), nil
}

func (h *PostHandler) toolGetPost() mcp.Tool {
	return mcp.NewTool(
		"posts_get",
		mcp.WithDescription("Fetch a single post by its id."),
		mcp.WithTitleAnnotation("Get Post"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("id",
			mcp.Description("The post id."),
			mcp.Required(),
		),
	)
}

func (h *PostHandler) handleGetPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return nil, err
	}

	post, err := h.service.GetByID(ctx, id)
	if err != nil {
		return toolError(err)
	}

	return mcp.NewToolResultStructured(post, fmt.Sprintf("Post %s: %s", post.ID, post.Title)), nil
}

func (h *PostHandler) toolCreatePost() mcp.Tool {
	return mcp.NewTool(
		"posts_create",
		mcp.WithDescription("Create a post. The id is generated when omitted."),
		mcp.WithTitleAnnotation("Create Post"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("title",
			mcp.Description("Post title, at least 3 characters."),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("Post body, at least 10 characters."),
			mcp.Required(),
		),
		mcp.WithString("id", mcp.Description("Optional post id.")),
		mcp.WithString("article_link", mcp.Description("Absolute URL of the original article.")),
		mcp.WithString("creator", mcp.Description("Author name.")),
		mcp.WithString("media_url", mcp.Description("Absolute URL of an image.")),
		mcp.WithString("pub_date", mcp.Description("Publication date in RFC3339; defaults to now.")),
	)
}

func (h *PostHandler) handleCreatePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return nil, err
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, err
	}

	req := domain.CreatePostRequest{
		ID:          request.GetString("id", ""),
		Title:       title,
		ArticleLink: request.GetString("article_link", ""),
		Creator:     request.GetString("creator", ""),
		Content:     content,
		MediaURL:    request.GetString("media_url", ""),
	}

	if raw := request.GetString("pub_date", ""); raw != "" {
		pub, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("pub_date: %v", err)), nil
		}
		req.PublicationDate = &pub
	}

	post, err := h.service.Create(ctx, req)
	if err != nil {
		return toolError(err)
	}

	return mcp.NewToolResultStructured(post, fmt.Sprintf("Created post %s", post.ID)), nil
}

func (h *PostHandler) toolDeletePost() mcp.Tool {
	return mcp.NewTool(
		"posts_delete",
		mcp.WithDescription("Delete a post by its id."),
		mcp.WithTitleAnnotation("Delete Post"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("id",
			mcp.Description("The post id."),
			mcp.Required(),
		),
	)
}

func (h *PostHandler) handleDeletePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return nil, err
	}

	if err := h.service.DeleteByID(ctx, id); err != nil {
		return toolError(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted post %s", id)), nil
}

// toolError reports caller mistakes as tool errors and everything else as a
// protocol error.
func toolError(err error) (*mcp.CallToolResult, error) {
	var generic pkgError.GenericError
	if errors.Is(err, domain.ErrPostNotFound) || errors.Is(err, domain.ErrDuplicatePost) || errors.As(err, &generic) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}
