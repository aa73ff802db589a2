package handler

import (
	"net/url"
	"testing"
	"time"

	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decimal.Decimal хранит big.Int, сравниваем по значению
var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func ptr[T any](v T) *T { return &v }

func TestParseProductFilter(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		query string
		want  entity.ProductFilter
	}{
		{
			name:  "empty",
			query: "",
			want:  entity.ProductFilter{},
		},
		{
			name:  "text and price bounds",
			query: "name=+Phone+&desc=black&price_from=100&price_to=500.50",
			want: entity.ProductFilter{
				Name:        "Phone",
				Description: "black",
				PriceFrom:   ptr(decimal.NewFromInt(100)),
				PriceTo:     ptr(decimal.RequireFromString("500.50")),
			},
		},
		{
			name:  "ids comma separated and repeated",
			query: "id=" + a.String() + "," + b.String() + "&id=" + a.String(),
			want:  entity.ProductFilter{IDs: []uuid.UUID{a, b}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := parseProductFilter(q)

			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, decimalEqual); diff != "" {
				t.Errorf("parseProductFilter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseProductFilter_Invalid(t *testing.T) {
	q := url.Values{"price_from": {"cheap"}, "id": {"nope"}}

	_, err := parseProductFilter(q)

	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "price_from")
	assert.Contains(t, vErr.Fields, "id")
}

func TestParseOrderFilter(t *testing.T) {
	product := uuid.New()
	q := url.Values{
		"status":            {"NEW,DONE", "NEW"},
		"products":          {product.String()},
		"created_at_after":  {"2024-03-01"},
		"created_at_before": {"2024-03-31"},
		"updated_at_after":  {"2024-03-05T10:00:00Z"},
	}

	got, err := parseOrderFilter(q)

	require.NoError(t, err)
	want := entity.OrderFilter{
		Statuses:   []entity.OrderStatus{entity.OrderStatusNew, entity.OrderStatusDone},
		ProductIDs: []uuid.UUID{product},
		CreatedAt: entity.TimeRange{
			After:  ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			Before: ptr(time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)),
		},
		UpdatedAt: entity.TimeRange{
			After: ptr(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseOrderFilter() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOrderFilter_InvalidStatusAndDate(t *testing.T) {
	q := url.Values{"status": {"Done"}, "updated_at_before": {"31.03.2024"}}

	_, err := parseOrderFilter(q)

	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "status")
	assert.Contains(t, vErr.Fields, "updated_at_before")
}

func TestParseReviewFilter(t *testing.T) {
	product, creator := uuid.New(), uuid.New()
	q := url.Values{"product": {product.String()}, "creator": {creator.String()}}

	got, err := parseReviewFilter(q)

	require.NoError(t, err)
	want := entity.ReviewFilter{ProductIDs: []uuid.UUID{product}, CreatorIDs: []uuid.UUID{creator}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseReviewFilter() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCollectionFilter(t *testing.T) {
	got, err := parseCollectionFilter(url.Values{"title": {"summer"}})

	require.NoError(t, err)
	assert.Equal(t, "summer", got.Title)
}
