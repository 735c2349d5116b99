package validations

import (
	"context"

	domainPost "github.com/AzielCF/az-posts/posts/domain"
	pkgError "github.com/AzielCF/az-posts/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateCreatePost(ctx context.Context, request domainPost.CreatePostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Title, validation.Required, validation.Length(3, 0)),
		validation.Field(&request.Content, validation.Required, validation.Length(10, 0)),
		validation.Field(&request.ArticleLink, is.RequestURL),
		validation.Field(&request.MediaURL, is.RequestURL),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidatePostID only requires a non-blank id; callers trim it first.
func ValidatePostID(ctx context.Context, id string) error {
	err := validation.ValidateWithContext(ctx, id, validation.Required)

	if err != nil {
		return pkgError.ValidationError("id: " + err.Error())
	}

	return nil
}
