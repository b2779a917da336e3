package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/querycache"
	"github.com/Skotchmaster/food_order/internal/repo"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

const ProductEventsTopic = "product_events"

// ProductIndex is the optional full text index for products.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type EventProducer interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type ProductEvent struct {
	Type      string           `json:"type"`
	ProductID uuid.UUID        `json:"productID"`
	Name      string           `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	At        time.Time        `json:"at"`
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Cache    *querycache.Cache
	Index    ProductIndex
	Producer EventProducer
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return querycache.Fetch(ctx, s.Cache, querycache.ProductsKey(), s.Repo.ListProducts)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := querycache.Fetch(ctx, s.Cache, querycache.ProductKey(id), func(ctx context.Context) (*models.Product, error) {
		return s.Repo.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price == nil {
		return nil, fmt.Errorf("%w: price required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	prod, err := s.Repo.CreateProduct(ctx, &models.Product{Name: name, Price: *req.Price, Image: req.Image})
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}

	s.invalidate(ctx, querycache.ProductsKey())
	s.sync(ctx, "product_created", *prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		req.Name = &name
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, id, req)
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}

	s.invalidate(ctx, querycache.ProductsKey(), querycache.ProductKey(id))
	s.sync(ctx, "product_updated", *prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return mapRepoErr(err, "product")
	}

	s.invalidate(ctx, querycache.ProductsKey(), querycache.ProductKey(id))
	s.sync(ctx, "product_deleted", models.Product{ID: id})
	return nil
}

// SearchProducts queries the index and falls back to a LIKE scan when there is none or it fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, page, size int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	from, limit := searchWindow(page, size)

	if s.Index != nil {
		total, prods, err := s.Index.Search(ctx, q, from, limit)
		if err == nil {
			return total, prods, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, from, limit)
}

const (
	defaultSearchSize = 10
	maxSearchSize     = 100
)

// searchWindow turns a 1-based page into an offset and limit.
func searchWindow(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	return (page - 1) * size, size
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...querycache.Key) {
	if err := s.Cache.Invalidate(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "error", err)
	}
}

// sync pushes a catalog change to the search index and the product_events topic.
func (s *CatalogService) sync(ctx context.Context, eventType string, p models.Product) {
	l := logging.FromContext(ctx).With("product_id", p.ID)

	if s.Index != nil {
		var err error
		if eventType == "product_deleted" {
			err = s.Index.DeleteProduct(ctx, p.ID)
		} else {
			err = s.Index.IndexProduct(ctx, p)
		}
		if err != nil {
			l.Warn("search_index_sync_failed", "event", eventType, "error", err)
		}
	}

	if s.Producer != nil {
		ev := ProductEvent{Type: eventType, ProductID: p.ID, Name: p.Name, At: time.Now().UTC()}
		if eventType != "product_deleted" {
			price := p.Price
			ev.Price = &price
		}
		if err := s.Producer.PublishEvent(ctx, ProductEventsTopic, p.ID.String(), ev); err != nil {
			l.Warn("publish_event_failed", "topic", ProductEventsTopic, "event", eventType, "error", err)
		}
	}
}
