package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/kyc"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormKYCRepository struct {
	documents persistence.Repository[kyc.Document]
	types     persistence.Repository[kyc.DocumentType]
	attempts  persistence.Repository[kyc.Attempt]
}

func NewGormKYCRepository(d *gorm.DB) kyc.Repository {
	return &gormKYCRepository{
		documents: persistence.NewRepository[kyc.Document](d),
		types:     persistence.NewRepository[kyc.DocumentType](d),
		attempts:  persistence.NewRepository[kyc.Attempt](d),
	}
}

func (g *gormKYCRepository) CreateDocumentType(ctx context.Context, newType *kyc.DocumentType) error {
	return g.types.Create(ctx, newType)
}

func (g *gormKYCRepository) GetDocumentTypeByKey(ctx context.Context, key string) (*kyc.DocumentType, error) {
	return g.types.FindOneBy(ctx, map[string]interface{}{"key": key})
}

func (g *gormKYCRepository) ListDocumentTypes(ctx context.Context) ([]kyc.DocumentType, error) {
	return g.types.Find(ctx, nil, persistence.OrderBy("title"))
}

func (g *gormKYCRepository) FindOrCreateDocument(ctx context.Context, accountTypeInfoID uuid.UUID, documentTypeID uuid.UUID) (*kyc.Document, bool, error) {
	conds := map[string]interface{}{
		"account_type_info_id": accountTypeInfoID,
		"document_type_id":     documentTypeID,
	}
	return g.documents.FindOrCreate(ctx, conds, func() kyc.Document {
		return kyc.Document{
			AccountTypeInfoID: accountTypeInfoID,
			DocumentTypeID:    documentTypeID,
			Status:            kyc.Pending,
		}
	})
}

func (g *gormKYCRepository) GetDocument(ctx context.Context, id uuid.UUID) (*kyc.Document, error) {
	return g.documents.Get(ctx, id, persistence.Preload("DocumentType"))
}

func (g *gormKYCRepository) UpdateDocument(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*kyc.Document, error) {
	return g.documents.Update(ctx, id, changes)
}

func (g *gormKYCRepository) ListDocuments(ctx context.Context, accountTypeInfoID uuid.UUID) ([]kyc.Document, error) {
	return g.documents.Find(ctx, map[string]interface{}{"account_type_info_id": accountTypeInfoID}, persistence.Preload("DocumentType"), persistence.OrderBy("created_at"))
}

func (g *gormKYCRepository) AppendAttempt(ctx context.Context, attempt *kyc.Attempt) error {
	return g.attempts.Create(ctx, attempt)
}

func (g *gormKYCRepository) ListAttempts(ctx context.Context, documentID uuid.UUID) ([]kyc.Attempt, error) {
	return g.attempts.Find(ctx, map[string]interface{}{"document_id": documentID}, persistence.OrderBy("id"))
}
