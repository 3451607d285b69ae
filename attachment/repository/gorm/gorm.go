package gorm

import (
	"context"

	"github.com/RagOfJoes/bloom/attachment"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

type gormAttachmentRepository struct {
	persistence.Repository[attachment.Attachment]

	blobs    persistence.Repository[attachment.Blob]
	variants persistence.Repository[attachment.Variant]
}

func NewGormAttachmentRepository(d *gorm.DB) attachment.Repository {
	return &gormAttachmentRepository{
		Repository: persistence.NewRepository[attachment.Attachment](d),

		blobs:    persistence.NewRepository[attachment.Blob](d),
		variants: persistence.NewRepository[attachment.Variant](d),
	}
}

func (g *gormAttachmentRepository) CreateBlob(ctx context.Context, blob *attachment.Blob) error {
	return g.blobs.Create(ctx, blob)
}

func (g *gormAttachmentRepository) Get(ctx context.Context, id uuid.UUID) (*attachment.Attachment, error) {
	return g.Repository.Get(ctx, id, persistence.Preload("Blob"))
}

func (g *gormAttachmentRepository) GetByFriendlyID(ctx context.Context, friendlyID string) (*attachment.Attachment, error) {
	return g.Repository.GetByFriendlyID(ctx, friendlyID, persistence.Preload("Blob"))
}

func (g *gormAttachmentRepository) ListFor(ctx context.Context, attachable record.Ref) ([]attachment.Attachment, error) {
	conds := map[string]interface{}{
		"attachable_type": attachable.Type,
		"attachable_id":   attachable.ID,
	}
	return g.Find(ctx, conds, persistence.Preload("Blob"), persistence.OrderBy("created_at"))
}

func (g *gormAttachmentRepository) MarkForDeletion(ctx context.Context, id uuid.UUID) error {
	return g.Delete(ctx, id)
}

func (g *gormAttachmentRepository) ListMarked(ctx context.Context, limit int) ([]attachment.Attachment, error) {
	var out []attachment.Attachment
	err := g.Conn(ctx).
		Unscoped().
		Preload("Blob").
		Where("deleted_at IS NOT NULL").
		Order("deleted_at").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list marked attachments")
	}
	return out, nil
}

func (g *gormAttachmentRepository) CountBlobReferences(ctx context.Context, blobID uuid.UUID) (int64, error) {
	var count int64
	err := g.Conn(ctx).Unscoped().Model(&attachment.Attachment{}).Where("blob_id = ?", blobID).Count(&count).Error
	if err != nil {
		return 0, persistence.Translate(err, "Failed to count references of blob %s", blobID)
	}
	return count, nil
}

func (g *gormAttachmentRepository) PurgeBlob(ctx context.Context, blobID uuid.UUID) error {
	if err := g.Conn(ctx).Where("blob_id = ?", blobID).Delete(&attachment.Variant{}).Error; err != nil {
		return persistence.Translate(err, "Failed to purge variants of blob %s", blobID)
	}
	return g.blobs.Purge(ctx, blobID)
}

func (g *gormAttachmentRepository) RecordVariant(ctx context.Context, blobID uuid.UUID, digest string) (*attachment.Variant, error) {
	conds := map[string]interface{}{
		"blob_id":          blobID,
		"variation_digest": digest,
	}
	found, _, err := g.variants.FindOrCreate(ctx, conds, func() attachment.Variant {
		return attachment.Variant{BlobID: blobID, VariationDigest: digest}
	})
	return found, err
}
