package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Errors
var (
	ErrCategoryDoesNotExist    = errors.New("Category does not exist")
	ErrProductDoesNotExist     = errors.New("Product does not exist")
	ErrProductItemDoesNotExist = errors.New("Product item does not exist")
	ErrProfaneContent          = errors.New("Content contains inappropriate language")
	ErrProductNotForSale       = errors.New("Product is not available for resale")
	ErrCategoryCycle           = errors.New("Category cannot be its own ancestor")
)

// ProductStatus is the lifecycle state of a product
type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductInactive     ProductStatus = "inactive"
	ProductDraft        ProductStatus = "draft"
	ProductDiscontinued ProductStatus = "discontinued"
)

// Category groups products in a tree
type Category struct {
	internal.RandomID
	internal.Timestamps
	internal.SoftDelete
	internal.Friendly
	internal.Search

	Title       string     `json:"title" gorm:"size:255;not null;index"`
	Description *string    `json:"description,omitempty"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;size:100;not null;<-:create"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	SortOrder   int        `json:"sort_order" gorm:"not null;default:0"`

	Children []Category `json:"children,omitempty" gorm:"-"`
}

func (Category) Kind() string {
	return string(record.KindCategory)
}

func (c Category) SearchDocument() string {
	doc := c.Title
	if c.Description != nil {
		doc += " " + *c.Description
	}
	return doc
}

// Product is an item a supplier sells
type Product struct {
	internal.SortableID
	internal.Timestamps
	internal.SoftDelete
	internal.Friendly
	internal.Search

	Name              string            `json:"name" gorm:"size:255;not null;index"`
	Slug              string            `json:"slug" gorm:"uniqueIndex;size:100;not null;<-:create"`
	Description       *string           `json:"description,omitempty"`
	Price             decimal.Decimal   `json:"price" gorm:"type:numeric(12,2);not null;check:chk_product_price,price >= 0"`
	SupplierAccountID uuid.UUID         `json:"supplier_account_id" gorm:"type:uuid;not null;index"`
	CurrencyID        uuid.UUID         `json:"currency_id" gorm:"type:uuid;not null"`
	CategoryID        *uuid.UUID        `json:"category_id,omitempty" gorm:"type:uuid;index"`
	Status            ProductStatus     `json:"status" gorm:"size:16;not null;index;default:draft"`
	IsDigital         bool              `json:"is_digital" gorm:"not null;default:false"`
	Attributes        datatypes.JSONMap `json:"attributes,omitempty"`
}

func (Product) Kind() string {
	return string(record.KindProduct)
}

func (p Product) SearchDocument() string {
	parts := []string{p.Name}
	if p.Description != nil {
		parts = append(parts, *p.Description)
	}
	return strings.Join(parts, " ")
}

// ProductItem is a product resold by another seller with a markup
type ProductItem struct {
	internal.SortableID
	internal.Timestamps
	internal.SoftDelete
	internal.Friendly

	ProductID               uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_item_seller"`
	SellerAccountTypeInfoID uuid.UUID       `json:"seller_account_type_info_id" gorm:"type:uuid;not null;uniqueIndex:idx_product_item_seller"`
	MarkupPercentage        decimal.Decimal `json:"markup_percentage" gorm:"type:numeric(6,2);not null;default:0;check:chk_product_item_markup,markup_percentage >= 0"`
	Price                   decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Name                    *string         `json:"name,omitempty"`
	Description             *string         `json:"description,omitempty"`
	IsActive                bool            `json:"is_active" gorm:"not null;default:true"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (ProductItem) Kind() string {
	return string(record.KindProductItem)
}

// ResalePrice is price increased by markup percent, rounded to cents
func ResalePrice(price decimal.Decimal, markup decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(markup.Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2)
}

type CreateCategory struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order" validate:"gte=0"`
}

type CreateProduct struct {
	Name              string            `json:"name" validate:"required,max=255"`
	Description       *string           `json:"description"`
	Price             decimal.Decimal   `json:"price" validate:"gte=0"`
	SupplierAccountID uuid.UUID         `json:"supplier_account_id" validate:"required"`
	CurrencyID        uuid.UUID         `json:"currency_id" validate:"required"`
	CategoryID        *uuid.UUID        `json:"category_id"`
	Status            ProductStatus     `json:"status" validate:"omitempty,oneof=active inactive draft discontinued"`
	IsDigital         bool              `json:"is_digital"`
	Attributes        datatypes.JSONMap `json:"attributes"`
}

// UpdateProduct only touches the fields that are set. Name changes do not
// alter the slug
type UpdateProduct struct {
	Name        *string           `json:"name" validate:"omitempty,max=255"`
	Description *string           `json:"description"`
	Price       *decimal.Decimal  `json:"price" validate:"omitempty,gte=0"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	Status      *ProductStatus    `json:"status" validate:"omitempty,oneof=active inactive draft discontinued"`
	IsDigital   *bool             `json:"is_digital"`
	Attributes  datatypes.JSONMap `json:"attributes"`
}

type CreateProductItem struct {
	ProductID               uuid.UUID       `json:"product_id" validate:"required"`
	SellerAccountTypeInfoID uuid.UUID       `json:"seller_account_type_info_id" validate:"required"`
	MarkupPercentage        decimal.Decimal `json:"markup_percentage" validate:"gte=0,lte=1000"`
	Name                    *string         `json:"name" validate:"omitempty,max=255"`
	Description             *string         `json:"description"`
}

// ProductFilter narrows SearchProducts
type ProductFilter struct {
	Query      string
	CategoryID *uuid.UUID
	Status     *ProductStatus
}

type Repository interface {
	CreateCategory(ctx context.Context, newCategory *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateProduct(ctx context.Context, newProduct *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductByFriendlyID(ctx context.Context, friendlyID string) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, changes UpdateProduct) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProducts(ctx context.Context, filter ProductFilter, page internal.Page) ([]Product, error)

	// FindOrCreateProductItem is safe to call concurrently for the same
	// product and seller
	FindOrCreateProductItem(ctx context.Context, item ProductItem) (*ProductItem, bool, error)
	GetProductItem(ctx context.Context, id uuid.UUID) (*ProductItem, error)
	GetProductItemByFriendlyID(ctx context.Context, friendlyID string) (*ProductItem, error)
	// RepriceProductItems recomputes the price of every resale item of product
	RepriceProductItems(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error
}

type Service interface {
	CreateCategory(ctx context.Context, payload CreateCategory) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	// ListCategoryTree returns the active root categories with their
	// descendants nested in Children
	ListCategoryTree(ctx context.Context) ([]Category, error)

	CreateProduct(ctx context.Context, payload CreateProduct) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindProduct finds a product by id or friendly id
	FindProduct(ctx context.Context, id string) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, payload UpdateProduct) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProducts(ctx context.Context, filter ProductFilter, page internal.Page) ([]Product, error)

	// CreateProductItem lists a product for resale. Listing the same product
	// twice for one seller returns the existing item
	CreateProductItem(ctx context.Context, payload CreateProductItem) (*ProductItem, error)
	GetProductItem(ctx context.Context, id uuid.UUID) (*ProductItem, error)
	FindProductItem(ctx context.Context, id string) (*ProductItem, error)
}
