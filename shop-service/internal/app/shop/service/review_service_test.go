package service

import (
	"context"
	"testing"

	"netshop/shop-service/internal/app/shop/entity"
	inframocks "netshop/shop-service/internal/app/shop/infrastructure/mocks"
	"netshop/shop-service/internal/app/shop/policy"
	"netshop/shop-service/internal/app/shop/repository"
	"netshop/shop-service/internal/app/shop/repository/mocks"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReviewService() (*ReviewService, *mocks.MockReviewRepository, *inframocks.MockMessagePublisher) {
	repo := new(mocks.MockReviewRepository)
	publisher := new(inframocks.MockMessagePublisher)
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewReviewService(repo, publisher, policy.Default()), repo, publisher
}

func fakeReviewRequest() *entity.CreateReviewRequest {
	return &entity.CreateReviewRequest{
		ProductID: uuid.New(),
		Text:      gofakeit.Sentence(8),
		Rating:    gofakeit.Number(1, 5),
	}
}

func TestValidateReviewCreate(t *testing.T) {
	tests := []struct {
		name     string
		existing int64
		isCreate bool
		wantErr  bool
	}{
		{"first review", 0, true, false},
		{"second review", 1, true, true},
		{"update ignores count", 1, false, false},
		{"update with no reviews", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReviewCreate(tt.existing, tt.isCreate)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDuplicateReview)
				assert.Equal(t, "We have already received your review. Thank you!", err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateReview_Success(t *testing.T) {
	// Arrange
	svc, repo, publisher := newReviewService()
	req := fakeReviewRequest()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.Review) bool {
		return r.CreatorID == userActor.ID && r.ProductID == req.ProductID
	})).Return(nil, int64(0))

	// Act
	review, err := svc.CreateReview(context.Background(), userActor, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, req.Rating, review.Rating)
	publisher.AssertNumberOfCalls(t, "PublishMessage", 1)
}

func TestCreateReview_SecondReviewRejected(t *testing.T) {
	svc, repo, publisher := newReviewService()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, int64(1))

	_, err := svc.CreateReview(context.Background(), userActor, fakeReviewRequest())

	assert.ErrorIs(t, err, ErrDuplicateReview)
	publisher.AssertNotCalled(t, "PublishMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReview_UniqueIndexSurfacesAsDuplicate(t *testing.T) {
	svc, repo, _ := newReviewService()
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateReview)

	_, err := svc.CreateReview(context.Background(), userActor, fakeReviewRequest())

	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestCreateReview_ProductNotFound(t *testing.T) {
	svc, repo, _ := newReviewService()
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrProductNotFound)

	_, err := svc.CreateReview(context.Background(), userActor, fakeReviewRequest())

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateReview_Anonymous(t *testing.T) {
	svc, repo, _ := newReviewService()

	_, err := svc.CreateReview(context.Background(), policy.Anonymous, fakeReviewRequest())

	assert.ErrorIs(t, err, policy.ErrUnauthenticated)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_RatingOutOfRange(t *testing.T) {
	svc, _, _ := newReviewService()
	req := fakeReviewRequest()
	req.Rating = 6

	_, err := svc.CreateReview(context.Background(), userActor, req)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateReview_OwnerKeepsProduct(t *testing.T) {
	// Arrange
	svc, repo, _ := newReviewService()
	productID := uuid.New()
	existing := &entity.Review{ID: uuid.New(), ProductID: productID, CreatorID: userActor.ID, Text: "old", Rating: 2}
	text, rating := "new", 4

	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(r *entity.Review) bool {
		return r.ProductID == productID && r.Text == "new" && r.Rating == 4
	})).Return(nil)

	// Act
	updated, err := svc.UpdateReview(context.Background(), userActor, existing.ID, &entity.UpdateReviewRequest{Text: &text, Rating: &rating})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, productID, updated.ProductID)
	repo.AssertExpectations(t)
}

func TestUpdateReview_StrangerForbidden(t *testing.T) {
	svc, repo, _ := newReviewService()
	existing := &entity.Review{ID: uuid.New(), CreatorID: userActor.ID}
	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	text := "hijack"

	_, err := svc.UpdateReview(context.Background(), policy.Actor{ID: uuid.New()}, existing.ID, &entity.UpdateReviewRequest{Text: &text})

	assert.ErrorIs(t, err, policy.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteReview_AdminAllowed(t *testing.T) {
	svc, repo, _ := newReviewService()
	existing := &entity.Review{ID: uuid.New(), CreatorID: userActor.ID}
	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("Delete", mock.Anything, existing.ID).Return(nil)

	assert.NoError(t, svc.DeleteReview(context.Background(), adminActor, existing.ID))
	repo.AssertExpectations(t)
}

func TestGetReview_AnonymousAllowed(t *testing.T) {
	svc, repo, _ := newReviewService()
	existing := &entity.Review{ID: uuid.New(), CreatorID: userActor.ID}
	repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	got, err := svc.GetReview(context.Background(), policy.Anonymous, existing.ID)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
}

func TestListReviews_AnonymousRejected(t *testing.T) {
	svc, _, _ := newReviewService()

	_, err := svc.ListReviews(context.Background(), policy.Anonymous, entity.ReviewFilter{})

	assert.ErrorIs(t, err, policy.ErrUnauthenticated)
}
