package repository

import (
	"context"
	"errors"
	"strings"

	"netshop/shop-service/internal/app/shop/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const serviceName = "shop-service"

// Ошибки репозитория, которые service layer сопоставляет со своими
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDuplicateReview    = errors.New("review for this product already exists")
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MissingIDs возвращает те id из списка, для которых товара нет
	MissingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection, productIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Collection, error)
	List(ctx context.Context, filter entity.CollectionFilter) ([]entity.Collection, error)
	// Update сохраняет поля подборки; productIDs == nil оставляет связи как есть
	Update(ctx context.Context, collection *entity.Collection, productIDs *[]uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error)
	// Update блокирует строку заказа, меняет статус и, если replacePositions,
	// заменяет позиции на order.Positions
	Update(ctx context.Context, order *entity.Order, replacePositions bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[entity.OrderStatus]int64, error)
}

// ReviewCheck получает число уже существующих отзывов пользователя на товар
type ReviewCheck func(existing int64) error

type ReviewRepository interface {
	// Create вставляет отзыв в транзакции, заблокировав строку товара,
	// и перед вставкой вызывает check
	Create(ctx context.Context, review *entity.Review, check ReviewCheck) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	List(ctx context.Context, filter entity.ReviewFilter) ([]entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// withTx выполняет fn в транзакции и возвращает ее результат.
// Внутри уже открытой транзакции GORM создаст savepoint.
func withTx[T any](ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var result T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = fn(tx)
		return err
	})
	return result, err
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || pgErrorCode(err) == pgForeignKeyViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern строит шаблон ILIKE для поиска подстроки
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// applyTimeRange добавляет включительные границы по колонке
func applyTimeRange(q *gorm.DB, column string, r entity.TimeRange) *gorm.DB {
	if r.After != nil {
		q = q.Where(column+" >= ?", *r.After)
	}
	if r.Before != nil {
		q = q.Where(column+" <= ?", *r.Before)
	}
	return q
}
