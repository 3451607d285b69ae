package service

import (
	"context"
	"sort"

	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	goaway "github.com/TwiN/go-away"
	"github.com/gofrs/uuid/v5"
)

var (
	suppliers = record.NewFamily("supplier", record.KindAccount)
	sellers   = record.NewFamily("seller", record.KindAccountTypeInfo)
)

type service struct {
	tx       persistence.Transactor
	registry *record.Registry
	cr       catalog.Repository
}

func NewCatalogService(tx persistence.Transactor, registry *record.Registry, cr catalog.Repository) catalog.Service {
	return &service{
		tx:       tx,
		registry: registry,
		cr:       cr,
	}
}

func (s *service) CreateCategory(ctx context.Context, payload catalog.CreateCategory) (*catalog.Category, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	if err := clean(payload.Title, payload.Description); err != nil {
		return nil, err
	}
	if payload.ParentID != nil {
		if _, err := s.cr.GetCategory(ctx, *payload.ParentID); err != nil {
			if persistence.IsNotFound(err) {
				return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "%v: %s", catalog.ErrCategoryDoesNotExist, payload.ParentID)
			}
			return nil, persistence.Translate(err, "Failed to retrieve category %s", payload.ParentID)
		}
	}

	newCategory := catalog.Category{
		Title:       payload.Title,
		Description: payload.Description,
		ParentID:    payload.ParentID,
		IsActive:    true,
		SortOrder:   payload.SortOrder,
	}
	if err := newCategory.EnsureID(); err != nil {
		return nil, err
	}
	newCategory.Slug = internal.Slug(payload.Title, newCategory.ID)
	if err := s.cr.CreateCategory(ctx, &newCategory); err != nil {
		return nil, persistence.Translate(err, "Failed to create category %s", payload.Title)
	}
	return &newCategory, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	found, err := s.cr.GetCategory(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", catalog.ErrCategoryDoesNotExist)
	}
	return found, nil
}

func (s *service) ListCategoryTree(ctx context.Context) ([]catalog.Category, error) {
	categories, err := s.cr.ListCategories(ctx)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list categories")
	}
	return buildTree(categories), nil
}

// buildTree nests categories under their parents. Categories whose parent is
// inactive or missing become roots
func buildTree(categories []catalog.Category) []catalog.Category {
	children := map[uuid.UUID][]catalog.Category{}
	known := map[uuid.UUID]struct{}{}
	for _, c := range categories {
		known[c.ID] = struct{}{}
	}
	var roots []catalog.Category
	for _, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if _, ok := known[*c.ParentID]; !ok {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var attach func(nodes []catalog.Category, depth int) []catalog.Category
	attach = func(nodes []catalog.Category, depth int) []catalog.Category {
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].SortOrder < nodes[j].SortOrder })
		// A cycle would otherwise recurse forever
		if depth > len(categories) {
			return nodes
		}
		for i := range nodes {
			nodes[i].Children = attach(children[nodes[i].ID], depth+1)
		}
		return nodes
	}
	return attach(roots, 0)
}

func (s *service) CreateProduct(ctx context.Context, payload catalog.CreateProduct) (*catalog.Product, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	if err := clean(payload.Name, payload.Description); err != nil {
		return nil, err
	}
	if err := s.registry.Exists(ctx, suppliers, record.Ref{Type: record.KindAccount, ID: payload.SupplierAccountID}); err != nil {
		return nil, err
	}
	status := payload.Status
	if status == "" {
		status = catalog.ProductDraft
	}

	newProduct := catalog.Product{
		Name:              payload.Name,
		Description:       payload.Description,
		Price:             payload.Price.Round(2),
		SupplierAccountID: payload.SupplierAccountID,
		CurrencyID:        payload.CurrencyID,
		CategoryID:        payload.CategoryID,
		Status:            status,
		IsDigital:         payload.IsDigital,
		Attributes:        payload.Attributes,
	}
	if err := newProduct.EnsureID(); err != nil {
		return nil, err
	}
	newProduct.Slug = internal.Slug(payload.Name, newProduct.ID)
	if err := s.cr.CreateProduct(ctx, &newProduct); err != nil {
		return nil, persistence.Translate(err, "Failed to create product %s", payload.Name)
	}
	return &newProduct, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	found, err := s.cr.GetProduct(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", catalog.ErrProductDoesNotExist)
	}
	return found, nil
}

func (s *service) FindProduct(ctx context.Context, id string) (*catalog.Product, error) {
	if uid, err := uuid.FromString(id); err == nil {
		return s.GetProduct(ctx, uid)
	}
	if !internal.IsFriendlyID(id) {
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "%v", catalog.ErrProductDoesNotExist)
	}
	found, err := s.cr.GetProductByFriendlyID(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", catalog.ErrProductDoesNotExist)
	}
	return found, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, payload catalog.UpdateProduct) (*catalog.Product, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	name := ""
	if payload.Name != nil {
		name = *payload.Name
	}
	if err := clean(name, payload.Description); err != nil {
		return nil, err
	}
	if payload.Price != nil {
		rounded := payload.Price.Round(2)
		payload.Price = &rounded
	}

	var updated *catalog.Product
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.cr.UpdateProduct(ctx, id, payload)
		if err != nil {
			return err
		}
		if payload.Price != nil {
			if err := s.cr.RepriceProductItems(ctx, id, product.Price); err != nil {
				return err
			}
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to update product %s", id)
	}
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.cr.DeleteProduct(ctx, id); err != nil {
		return persistence.Translate(err, "Failed to delete product %s", id)
	}
	return nil
}

func (s *service) SearchProducts(ctx context.Context, filter catalog.ProductFilter, page internal.Page) ([]catalog.Product, error) {
	products, err := s.cr.SearchProducts(ctx, filter, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to search products")
	}
	return products, nil
}

func (s *service) CreateProductItem(ctx context.Context, payload catalog.CreateProductItem) (*catalog.ProductItem, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	name := ""
	if payload.Name != nil {
		name = *payload.Name
	}
	if err := clean(name, payload.Description); err != nil {
		return nil, err
	}

	var item *catalog.ProductItem
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, sellers, record.Ref{Type: record.KindAccountTypeInfo, ID: payload.SellerAccountTypeInfoID}); err != nil {
			return err
		}
		product, err := s.cr.GetProduct(ctx, payload.ProductID)
		if err != nil {
			return persistence.Translate(err, "%v", catalog.ErrProductDoesNotExist)
		}
		if product.Status != catalog.ProductActive {
			return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", catalog.ErrProductNotForSale)
		}
		found, _, err := s.cr.FindOrCreateProductItem(ctx, catalog.ProductItem{
			ProductID:               product.ID,
			SellerAccountTypeInfoID: payload.SellerAccountTypeInfoID,
			MarkupPercentage:        payload.MarkupPercentage.Round(2),
			Price:                   catalog.ResalePrice(product.Price, payload.MarkupPercentage.Round(2)),
			Name:                    payload.Name,
			Description:             payload.Description,
			IsActive:                true,
		})
		if err != nil {
			return err
		}
		item = found
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to create product item for %s", payload.ProductID)
	}
	return item, nil
}

func (s *service) GetProductItem(ctx context.Context, id uuid.UUID) (*catalog.ProductItem, error) {
	found, err := s.cr.GetProductItem(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", catalog.ErrProductItemDoesNotExist)
	}
	return found, nil
}

func (s *service) FindProductItem(ctx context.Context, id string) (*catalog.ProductItem, error) {
	if uid, err := uuid.FromString(id); err == nil {
		return s.GetProductItem(ctx, uid)
	}
	if !internal.IsFriendlyID(id) {
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "%v", catalog.ErrProductItemDoesNotExist)
	}
	found, err := s.cr.GetProductItemByFriendlyID(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", catalog.ErrProductItemDoesNotExist)
	}
	return found, nil
}

// clean rejects profane names and descriptions
func clean(name string, description *string) error {
	if name != "" && goaway.IsProfane(name) {
		return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", catalog.ErrProfaneContent)
	}
	if description != nil && goaway.IsProfane(*description) {
		return internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", catalog.ErrProfaneContent)
	}
	return nil
}
