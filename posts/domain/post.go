package domain

import "time"

// Post is a single content item. ID is assigned on creation and never changes.
type Post struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	ArticleLink     *string    `json:"article_link,omitempty"`
	PublicationDate *time.Time `json:"pub_date,omitempty"`
	Creator         *string    `json:"creator,omitempty"`
	Content         string     `json:"content"`
	MediaURL        *string    `json:"media_url,omitempty"`
}

// CreatePostRequest is the payload accepted when creating a post.
// Empty ID and PublicationDate are filled in by the service.
type CreatePostRequest struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	ArticleLink     string     `json:"article_link"`
	PublicationDate *time.Time `json:"pub_date"`
	Creator         string     `json:"creator"`
	Content         string     `json:"content"`
	MediaURL        string     `json:"media_url"`
}

// Event names broadcast when the post set changes.
const (
	EventPostCreated       = "POST_CREATED"
	EventPostDeleted       = "POST_DELETED"
	EventPostsBootstrapped = "POSTS_BOOTSTRAPPED"
)
