package repository

import (
	"context"
	"errors"
	"fmt"

	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create сериализует создание отзывов на один товар блокировкой строки товара:
// пока транзакция держит FOR UPDATE, параллельный запрос ждет и затем видит
// уже вставленный отзыв. Уникальный индекс (creator_id, product_id) страхует
// случаи, когда блокировка не помогла.
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review, check ReviewCheck) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "reviews")
	defer func() { timer.ObserveDuration(err) }()

	var checkErr error
	_, err = withTx(ctx, r.db, func(tx *gorm.DB) (struct{}, error) {
		var product entity.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&product, "id = ?", review.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return struct{}{}, ErrProductNotFound
		}
		if err != nil {
			return struct{}{}, err
		}

		var existing int64
		err = tx.Model(&entity.Review{}).
			Where("creator_id = ? AND product_id = ?", review.CreatorID, review.ProductID).
			Count(&existing).Error
		if err != nil {
			return struct{}{}, err
		}
		if check != nil {
			if checkErr = check(existing); checkErr != nil {
				return struct{}{}, checkErr
			}
		}

		return struct{}{}, tx.Omit(clause.Associations).Create(review).Error
	})

	switch {
	case err == nil:
		return nil
	case checkErr != nil:
		return checkErr
	case isUniqueViolation(err):
		return ErrDuplicateReview
	case errors.Is(err, ErrProductNotFound), isForeignKeyViolation(err):
		return ErrProductNotFound
	default:
		return fmt.Errorf("failed to create review: %w", err)
	}
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	var review entity.Review
	err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		timer.ObserveDuration(nil)
		return nil, ErrReviewNotFound
	}
	timer.ObserveDuration(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) List(ctx context.Context, filter entity.ReviewFilter) (reviews []entity.Review, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer func() { timer.ObserveDuration(err) }()

	q := r.db.WithContext(ctx).Model(&entity.Review{})
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if len(filter.ProductIDs) > 0 {
		q = q.Where("product_id IN ?", filter.ProductIDs)
	}
	if len(filter.CreatorIDs) > 0 {
		q = q.Where("creator_id IN ?", filter.CreatorIDs)
	}
	q = applyTimeRange(q, "created_at", filter.CreatedAt)

	if err = q.Order("created_at DESC").Order("id").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Update меняет только текст и оценку, товар и автор отзыва неизменны
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "reviews")
	defer func() { timer.ObserveDuration(err) }()

	result := r.db.WithContext(ctx).Model(review).
		Select("text", "rating", "updated_at").
		Updates(review)
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "reviews")
	defer func() { timer.ObserveDuration(err) }()

	result := r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}
