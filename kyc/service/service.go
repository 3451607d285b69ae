package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/kyc"
	"github.com/RagOfJoes/bloom/notification"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/gofrs/uuid/v5"
)

var (
	profiles    = record.NewFamily("profile", record.KindAccountTypeInfo)
	attachments = record.NewFamily("attachment", record.KindAttachment)
)

type service struct {
	tx       persistence.Transactor
	registry *record.Registry
	ns       notification.Service
	kr       kyc.Repository
	now      func() time.Time
}

func NewKYCService(tx persistence.Transactor, registry *record.Registry, ns notification.Service, kr kyc.Repository) kyc.Service {
	return &service{
		tx:       tx,
		registry: registry,
		ns:       ns,
		kr:       kr,
		now:      time.Now,
	}
}

func (s *service) CreateDocumentType(ctx context.Context, payload kyc.CreateDocumentType) (*kyc.DocumentType, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	newType := kyc.DocumentType{
		Key:         payload.Key,
		Title:       payload.Title,
		Description: payload.Description,
		IsRequired:  payload.IsRequired,
	}
	if err := s.kr.CreateDocumentType(ctx, &newType); err != nil {
		return nil, persistence.Translate(err, "Failed to create document type %s", payload.Key)
	}
	return &newType, nil
}

func (s *service) ListDocumentTypes(ctx context.Context) ([]kyc.DocumentType, error) {
	types, err := s.kr.ListDocumentTypes(ctx)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list document types")
	}
	return types, nil
}

func (s *service) Submit(ctx context.Context, payload kyc.Submit) (*kyc.Document, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}

	var document *kyc.Document
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.registry.Exists(ctx, profiles, record.Ref{Type: record.KindAccountTypeInfo, ID: payload.AccountTypeInfoID}); err != nil {
			return err
		}
		if payload.AttachmentID != nil {
			if err := s.registry.Exists(ctx, attachments, record.Ref{Type: record.KindAttachment, ID: *payload.AttachmentID}); err != nil {
				return err
			}
		}
		documentType, err := s.kr.GetDocumentTypeByKey(ctx, payload.DocumentType)
		if err != nil {
			if persistence.IsNotFound(err) {
				return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "%v: %s", kyc.ErrDocumentTypeDoesNotExist, payload.DocumentType)
			}
			return err
		}

		found, created, err := s.kr.FindOrCreateDocument(ctx, payload.AccountTypeInfoID, documentType.ID)
		if err != nil {
			return err
		}
		if found.Status == kyc.Approved {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", kyc.ErrAlreadyApproved)
		}
		if !created || payload.AttachmentID != nil {
			found, err = s.kr.UpdateDocument(ctx, found.ID, map[string]interface{}{
				"status":           kyc.Pending,
				"attachment_id":    payload.AttachmentID,
				"reviewed_by":      nil,
				"reviewed_at":      nil,
				"rejection_reason": nil,
			})
			if err != nil {
				return err
			}
		}
		if err := s.kr.AppendAttempt(ctx, &kyc.Attempt{
			DocumentID: found.ID,
			Status:     kyc.Pending,
			Notes:      payload.Notes,
		}); err != nil {
			return err
		}
		found.DocumentType = documentType
		document = found
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to submit %s document", payload.DocumentType)
	}
	return document, nil
}

func (s *service) Review(ctx context.Context, documentID uuid.UUID, payload kyc.Review) (*kyc.Document, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	if payload.Status == kyc.Rejected && (payload.Reason == nil || *payload.Reason == "") {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", kyc.ErrMissingReason)
	}

	var document *kyc.Document
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.kr.GetDocument(ctx, documentID)
		if err != nil {
			return internal.WrapErrorf(err, internal.CodeOf(err), "%v", kyc.ErrDocumentDoesNotExist)
		}
		if found.Status != kyc.Pending {
			return internal.NewErrorf(internal.ErrorCodeConflict, "%v", kyc.ErrNotPending)
		}
		updated, err := s.kr.UpdateDocument(ctx, documentID, map[string]interface{}{
			"status":           payload.Status,
			"reviewed_by":      payload.ReviewedBy,
			"reviewed_at":      s.now().UTC(),
			"rejection_reason": payload.Reason,
		})
		if err != nil {
			return err
		}
		if err := s.kr.AppendAttempt(ctx, &kyc.Attempt{
			DocumentID: documentID,
			Status:     payload.Status,
			Notes:      payload.Reason,
		}); err != nil {
			return err
		}

		title := "Document"
		if found.DocumentType != nil {
			title = found.DocumentType.Title
		}
		message := fmt.Sprintf("Your %s has been %s.", title, payload.Status)
		if payload.Reason != nil {
			message += " " + *payload.Reason
		}
		if _, err := s.ns.Notify(ctx, notification.Notify{
			AccountTypeInfoID: found.AccountTypeInfoID,
			Title:             fmt.Sprintf("%s %s", title, payload.Status),
			Message:           message,
			Email:             true,
			Template:          email.TemplateKYCReviewed,
		}); err != nil {
			return err
		}
		updated.DocumentType = found.DocumentType
		document = updated
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to review document %s", documentID)
	}
	return document, nil
}

func (s *service) List(ctx context.Context, accountTypeInfoID uuid.UUID) ([]kyc.Document, error) {
	documents, err := s.kr.ListDocuments(ctx, accountTypeInfoID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list documents of %s", accountTypeInfoID)
	}
	return documents, nil
}

func (s *service) Attempts(ctx context.Context, documentID uuid.UUID) ([]kyc.Attempt, error) {
	attempts, err := s.kr.ListAttempts(ctx, documentID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list attempts of document %s", documentID)
	}
	return attempts, nil
}
