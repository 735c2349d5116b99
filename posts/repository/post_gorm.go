package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-posts/posts/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const bulkInsertBatchSize = 100

// --- Persistence Model ---

type postModel struct {
	ID              string `gorm:"primaryKey"`
	Title           string `gorm:"not null"`
	ArticleLink     *string
	PublicationDate *time.Time `gorm:"index:idx_posts_publication_date"`
	Creator         *string
	Content         string    `gorm:"type:text;not null"`
	MediaURL        *string   `gorm:"column:media_url"`
	CreatedAt       time.Time `gorm:"index:idx_posts_created_at;not null"`
}

func (postModel) TableName() string {
	return "posts"
}

// --- Repository Implementation ---

type PostGormRepository struct {
	db *gorm.DB
}

func NewPostGormRepository(db *gorm.DB) *PostGormRepository {
	return &PostGormRepository{db: db}
}

func (r *PostGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&postModel{})
}

// List returns every post in insertion order.
func (r *PostGormRepository) List(ctx context.Context) ([]domain.Post, error) {
	var models []postModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(models))
	for _, m := range models {
		posts = append(posts, fromPostModel(m))
	}
	return posts, nil
}

func (r *PostGormRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var m postModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
		}
		return nil, err
	}
	post := fromPostModel(m)
	return &post, nil
}

func (r *PostGormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&postModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostGormRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	model := toPostModel(post)
	model.CreatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePost, post.ID)
		}
		return err
	}
	return nil
}

func (r *PostGormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&postModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	return nil
}

// BulkInsert seeds the table inside one transaction. The emptiness check and
// the inserts share the transaction, and conflicting ids are ignored, so two
// racing bootstraps cannot double insert.
func (r *PostGormRepository) BulkInsert(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&postModel{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrStoreNotEmpty
		}

		// Spread creation times so List keeps the seed order.
		base := time.Now().UTC()
		models := make([]postModel, 0, len(posts))
		for i := range posts {
			m := toPostModel(&posts[i])
			if m.ID == "" {
				m.ID = uuid.New().String()
				posts[i].ID = m.ID
			}
			m.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
			models = append(models, m)
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&models, bulkInsertBatchSize).Error
	})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// --- Mappers ---

func toPostModel(p *domain.Post) postModel {
	return postModel{
		ID:              p.ID,
		Title:           p.Title,
		ArticleLink:     p.ArticleLink,
		PublicationDate: p.PublicationDate,
		Creator:         p.Creator,
		Content:         p.Content,
		MediaURL:        p.MediaURL,
	}
}

func fromPostModel(m postModel) domain.Post {
	return domain.Post{
		ID:              m.ID,
		Title:           m.Title,
		ArticleLink:     m.ArticleLink,
		PublicationDate: m.PublicationDate,
		Creator:         m.Creator,
		Content:         m.Content,
		MediaURL:        m.MediaURL,
	}
}
