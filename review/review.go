package review

import (
	"context"
	"errors"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Errors
var (
	ErrReviewDoesNotExist = errors.New("Review does not exist")
	ErrAlreadyReviewed    = errors.New("Profile already reviewed this record")
	ErrProfaneContent     = errors.New("Review contains inappropriate language")
)

// Review is a rating a profile gives a reviewable. A profile reviews a
// record at most once
type Review struct {
	internal.RandomID
	internal.Timestamps
	internal.SoftDelete

	AccountTypeInfoID uuid.UUID   `json:"account_type_info_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_author_target"`
	ReviewableType    record.Kind `json:"reviewable_type" gorm:"size:32;not null;uniqueIndex:idx_review_author_target;index:idx_review_target"`
	ReviewableID      uuid.UUID   `json:"reviewable_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_author_target;index:idx_review_target"`
	Rating            int         `json:"rating" gorm:"not null;check:chk_review_rating,rating BETWEEN 1 AND 5"`
	Comment           *string     `json:"comment,omitempty"`
}

// Target returns the reviewable
func (r Review) Target() record.Ref {
	return record.Ref{Type: r.ReviewableType, ID: r.ReviewableID}
}

type Create struct {
	AccountTypeInfoID uuid.UUID `json:"account_type_info_id" validate:"required"`
	ReviewableType    string    `json:"reviewable_type" validate:"required"`
	ReviewableID      uuid.UUID `json:"reviewable_id" validate:"required"`
	Rating            int       `json:"rating" validate:"min=1,max=5"`
	Comment           *string   `json:"comment" validate:"omitempty,max=5000"`
}

// Summary aggregates the ratings of one reviewable
type Summary struct {
	Count   int64           `json:"count"`
	Average decimal.Decimal `json:"average"`
}

type Repository interface {
	Create(ctx context.Context, newReview *Review) error
	Get(ctx context.Context, id uuid.UUID) (*Review, error)
	// Exists reports whether author reviewed target, including deleted reviews
	Exists(ctx context.Context, accountTypeInfoID uuid.UUID, target record.Ref) (bool, error)
	ListFor(ctx context.Context, target record.Ref, page internal.Page) ([]Review, error)
	Summarize(ctx context.Context, target record.Ref) (*Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	Create(ctx context.Context, payload Create) (*Review, error)
	ListFor(ctx context.Context, target record.Ref, page internal.Page) ([]Review, error)
	Summarize(ctx context.Context, target record.Ref) (*Summary, error)
	// Delete is idempotent
	Delete(ctx context.Context, id uuid.UUID) error
}
