package handler

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"netshop/shop-service/internal/app/shop/entity"
	"netshop/shop-service/internal/app/shop/service"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Разбор query-параметров в фильтры. Многозначные параметры принимаются
// и повтором (?id=a&id=b), и через запятую (?id=a,b).

const dateLayout = "2006-01-02"

type queryParser struct {
	query url.Values
	errs  *service.ValidationError
}

func newQueryParser(q url.Values) *queryParser {
	return &queryParser{query: q, errs: &service.ValidationError{}}
}

func (p *queryParser) err() error {
	return p.errs.OrNil()
}

func (p *queryParser) str(name string) string {
	return strings.TrimSpace(p.query.Get(name))
}

// list собирает значения параметра, разрезая по запятым и отбрасывая пустые
func (p *queryParser) list(name string) []string {
	var out []string
	for _, raw := range p.query[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (p *queryParser) uuids(name string) []uuid.UUID {
	values := p.list(name)
	if len(values) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			p.errs.Add(name, fmt.Sprintf("%q is not a valid UUID", v))
			return nil
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids)
}

func (p *queryParser) number(name string) *decimal.Decimal {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs.Add(name, "enter a number")
		return nil
	}
	return &d
}

// timestamp принимает RFC3339 или дату YYYY-MM-DD. Дата в верхней границе
// означает конец этого дня, чтобы диапазон оставался включительным.
func (p *queryParser) timestamp(name string, upper bool) *time.Time {
	raw := p.str(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		p.errs.Add(name, "enter a date as YYYY-MM-DD or RFC3339")
		return nil
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t
}

func (p *queryParser) timeRange(prefix string) entity.TimeRange {
	return entity.TimeRange{
		After:  p.timestamp(prefix+"_after", false),
		Before: p.timestamp(prefix+"_before", true),
	}
}

func parseProductFilter(q url.Values) (entity.ProductFilter, error) {
	p := newQueryParser(q)
	f := entity.ProductFilter{
		IDs:         p.uuids("id"),
		Name:        p.str("name"),
		Description: p.str("desc"),
		PriceFrom:   p.number("price_from"),
		PriceTo:     p.number("price_to"),
	}
	return f, p.err()
}

func parseCollectionFilter(q url.Values) (entity.CollectionFilter, error) {
	p := newQueryParser(q)
	return entity.CollectionFilter{Title: p.str("title")}, p.err()
}

func parseOrderFilter(q url.Values) (entity.OrderFilter, error) {
	p := newQueryParser(q)
	f := entity.OrderFilter{
		IDs:        p.uuids("id"),
		ProductIDs: p.uuids("products"),
		CreatedAt:  p.timeRange("created_at"),
		UpdatedAt:  p.timeRange("updated_at"),
	}

	for _, s := range p.list("status") {
		status := entity.OrderStatus(s)
		if !status.IsValid() {
			p.errs.Add("status", fmt.Sprintf("%q is not a valid choice", s))
			break
		}
		f.Statuses = append(f.Statuses, status)
	}
	if len(f.Statuses) > 1 {
		f.Statuses = lo.Uniq(f.Statuses)
	}

	return f, p.err()
}

func parseReviewFilter(q url.Values) (entity.ReviewFilter, error) {
	p := newQueryParser(q)
	f := entity.ReviewFilter{
		IDs:        p.uuids("id"),
		ProductIDs: p.uuids("product"),
		CreatorIDs: p.uuids("creator"),
		CreatedAt:  p.timeRange("created_at"),
	}
	return f, p.err()
}
