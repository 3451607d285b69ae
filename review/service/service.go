package service

import (
	"context"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/review"
	goaway "github.com/TwiN/go-away"
	"github.com/gofrs/uuid/v5"
)

var authors = record.NewFamily("author", record.KindAccountTypeInfo)

type service struct {
	tx       persistence.Transactor
	registry *record.Registry
	rr       review.Repository
}

func NewReviewService(tx persistence.Transactor, registry *record.Registry, rr review.Repository) review.Service {
	return &service{
		tx:       tx,
		registry: registry,
		rr:       rr,
	}
}

func (s *service) Create(ctx context.Context, payload review.Create) (*review.Review, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	if payload.Comment != nil && goaway.IsProfane(*payload.Comment) {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", review.ErrProfaneContent)
	}
	target, err := record.Reviewable.Ref(payload.ReviewableType, payload.ReviewableID)
	if err != nil {
		return nil, err
	}

	newReview := review.Review{
		AccountTypeInfoID: payload.AccountTypeInfoID,
		ReviewableType:    target.Type,
		ReviewableID:      target.ID,
		Rating:            payload.Rating,
		Comment:           payload.Comment,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, authors, record.Ref{Type: record.KindAccountTypeInfo, ID: payload.AccountTypeInfoID}); err != nil {
			return err
		}
		if err := s.registry.Exists(ctx, record.Reviewable, target); err != nil {
			return err
		}
		exists, err := s.rr.Exists(ctx, payload.AccountTypeInfoID, target)
		if err != nil {
			return err
		}
		if exists {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", review.ErrAlreadyReviewed)
		}
		return s.rr.Create(ctx, &newReview)
	})
	if err != nil {
		if internal.IsCode(err, internal.ErrorCodeConflict) {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeConflict, "%v", review.ErrAlreadyReviewed)
		}
		return nil, persistence.Translate(err, "Failed to review %s", target)
	}
	return &newReview, nil
}

func (s *service) ListFor(ctx context.Context, target record.Ref, page internal.Page) ([]review.Review, error) {
	reviews, err := s.rr.ListFor(ctx, target, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list reviews of %s", target)
	}
	return reviews, nil
}

func (s *service) Summarize(ctx context.Context, target record.Ref) (*review.Summary, error) {
	summary, err := s.rr.Summarize(ctx, target)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to summarize reviews of %s", target)
	}
	return summary, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rr.Delete(ctx, id); err != nil {
		return persistence.Translate(err, "Failed to delete review %s", id)
	}
	return nil
}
