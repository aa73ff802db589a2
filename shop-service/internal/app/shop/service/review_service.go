package service

import (
	"context"
	"errors"
	"time"

	"netshop/pkg/metrics"
	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/infrastructure"
	"netshop/shop-service/internal/app/shop/policy"
	"netshop/shop-service/internal/app/shop/repository"

	"github.com/google/uuid"
)

// ValidateReviewCreate - правило "один отзыв на товар от пользователя".
// existingCount - число отзывов этого пользователя на этот товар.
// При обновлении правило не проверяется.
func ValidateReviewCreate(existingCount int64, isCreate bool) error {
	if isCreate && existingCount >= 1 {
		return ErrDuplicateReview
	}
	return nil
}

type ReviewService struct {
	reviewRepo repository.ReviewRepository
	publisher  infrastructure.MessagePublisher
	policy     *policy.Policy
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	publisher infrastructure.MessagePublisher,
	p *policy.Policy,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		publisher:  publisher,
		policy:     p,
	}
}

func (s *ReviewService) ListReviews(ctx context.Context, actor policy.Actor, filter entity.ReviewFilter) ([]entity.Review, error) {
	if _, err := s.policy.Check(policy.EntityReview, policy.ActionList, actor); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "list reviews")
	}
	return reviews, nil
}

func (s *ReviewService) GetReview(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Review, error) {
	return s.loadForAction(ctx, actor, id, policy.ActionRetrieve)
}

// CreateReview создает отзыв от имени актора. Проверка на повторный отзыв
// выполняется внутри транзакции вставки.
func (s *ReviewService) CreateReview(ctx context.Context, actor policy.Actor, req *entity.CreateReviewRequest) (*entity.Review, error) {
	if _, err := s.policy.Check(policy.EntityReview, policy.ActionCreate, actor); err != nil {
		return nil, err
	}
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	now := time.Now()
	review := &entity.Review{
		ID:        uuid.New(),
		ProductID: req.ProductID,
		CreatorID: actor.ID,
		Text:      req.Text,
		Rating:    req.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.reviewRepo.Create(ctx, review, func(existing int64) error {
		return ValidateReviewCreate(existing, true)
	})
	if err != nil {
		err = mapRepoError(err, "create review")
		if errors.Is(err, ErrDuplicateReview) {
			metrics.ReviewsRejected.Inc()
		}
		return nil, err
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsRating.Observe(float64(review.Rating))
	s.publishReviewEvent(ctx, entity.EventReviewCreated, review)
	return review, nil
}

// UpdateReview меняет текст и оценку; товар отзыва не меняется
func (s *ReviewService) UpdateReview(ctx context.Context, actor policy.Actor, id uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.loadForAction(ctx, actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}
	review.UpdatedAt = time.Now()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, mapRepoError(err, "update review")
	}

	s.publishReviewEvent(ctx, entity.EventReviewUpdated, review)
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	review, err := s.loadForAction(ctx, actor, id, policy.ActionDestroy)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete review")
	}

	s.publishReviewEvent(ctx, entity.EventReviewDeleted, review)
	return nil
}

func (s *ReviewService) loadForAction(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action) (*entity.Review, error) {
	needsOwner, err := s.policy.Check(policy.EntityReview, action, actor)
	if err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "get review")
	}

	if needsOwner {
		if err := s.policy.CheckOwner(actor, review.CreatorID); err != nil {
			return nil, err
		}
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}

func (s *ReviewService) publishReviewEvent(ctx context.Context, eventType string, r *entity.Review) {
	publishEvent(ctx, s.publisher, r.ProductID.String(), eventType, entity.ReviewEvent{
		EventType: eventType,
		ReviewID:  r.ID,
		ProductID: r.ProductID,
		CreatorID: r.CreatorID,
		Rating:    r.Rating,
		Timestamp: time.Now(),
	})
}
