package validations

import (
	"context"
	"strings"
	"testing"

	domainPost "github.com/AzielCF/az-posts/posts/domain"
	pkgError "github.com/AzielCF/az-posts/pkg/error"
	"github.com/stretchr/testify/assert"
)

func validRequest() domainPost.CreatePostRequest {
	return domainPost.CreatePostRequest{
		Title:       "Hello world",
		Content:     "Long enough body text",
		ArticleLink: "https://example.com/article",
	}
}

func TestValidateCreatePost(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(r *domainPost.CreatePostRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *domainPost.CreatePostRequest) {}},
		{name: "optional links empty", mutate: func(r *domainPost.CreatePostRequest) { r.ArticleLink = "" }},
		{name: "missing title", mutate: func(r *domainPost.CreatePostRequest) { r.Title = "" }, wantErr: true},
		{name: "short title", mutate: func(r *domainPost.CreatePostRequest) { r.Title = "Hi" }, wantErr: true},
		{name: "short content", mutate: func(r *domainPost.CreatePostRequest) { r.Content = "too short" }, wantErr: true},
		{name: "relative article link", mutate: func(r *domainPost.CreatePostRequest) { r.ArticleLink = "not a url" }, wantErr: true},
		{name: "bad media url", mutate: func(r *domainPost.CreatePostRequest) { r.MediaURL = "/images/a.png" }, wantErr: true},
		{name: "long caller id", mutate: func(r *domainPost.CreatePostRequest) { r.ID = strings.Repeat("a", 120) }},
		{name: "good media url", mutate: func(r *domainPost.CreatePostRequest) { r.MediaURL = "https://cdn.example.com/a.png" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := ValidateCreatePost(ctx, req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr pkgError.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestValidatePostID(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidatePostID(ctx, "abc"))
	assert.NoError(t, ValidatePostID(ctx, strings.Repeat("x", 200)))
	assert.Error(t, ValidatePostID(ctx, ""))
}
