package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/attachment"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/storage"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// sniffLength is how many bytes content detection looks at
const sniffLength = 512

type service struct {
	cfg      config.Storage
	tx       persistence.Transactor
	log      zerolog.Logger
	store    storage.Provider
	registry *record.Registry
	ar       attachment.Repository
	now      func() time.Time
}

func NewAttachmentService(cfg config.Storage, tx persistence.Transactor, log zerolog.Logger, store storage.Provider, registry *record.Registry, ar attachment.Repository) attachment.Service {
	return &service{
		cfg:      cfg,
		tx:       tx,
		log:      log,
		store:    store,
		registry: registry,
		ar:       ar,
		now:      time.Now,
	}
}

func (s *service) allowed(contentType string) bool {
	if len(s.cfg.AllowedContentTypes) == 0 {
		return true
	}
	for _, t := range s.cfg.AllowedContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// read buffers the upload, refusing empty and oversized content
func (s *service) read(r io.Reader) ([]byte, error) {
	limit := s.cfg.MaxUploadSize
	content, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "Failed to read upload")
	}
	if len(content) == 0 {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v", attachment.ErrEmptyFile)
	}
	if int64(len(content)) > limit {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: maximum size is %d bytes", attachment.ErrFileTooLarge, limit)
	}
	return content, nil
}

// fileKey groups objects by owner: <type>/<id>/<slug><ext>
func fileKey(target record.Ref, blobID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return path.Join(string(target.Type), target.ID.String(), internal.Slug(base, blobID)+ext)
}

func (s *service) Upload(ctx context.Context, payload attachment.Upload) (*attachment.Attachment, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}
	target, err := record.Attachable.Ref(payload.AttachableType, payload.AttachableID)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Exists(ctx, record.Attachable, target); err != nil {
		return nil, err
	}

	content, err := s.read(payload.Content)
	if err != nil {
		return nil, err
	}
	contentType, _, _ := mime.ParseMediaType(http.DetectContentType(content[:min(len(content), sniffLength)]))
	if !s.allowed(contentType) {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%v: %s", attachment.ErrUnsupportedType, contentType)
	}
	sum := sha256.Sum256(content)

	blobID, err := internal.NewID()
	if err != nil {
		return nil, err
	}
	key := fileKey(target, blobID, payload.Filename)
	url, err := s.store.Upload(ctx, key, bytes.NewReader(content), contentType)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to store %s", payload.Filename)
	}

	meta := datatypes.JSONMap{"original_filename": payload.Filename}
	if payload.UploadedBy != nil {
		meta["uploaded_by"] = payload.UploadedBy.String()
	}
	if len(payload.Tags) > 0 {
		meta["tags"] = payload.Tags
	}
	blob := attachment.Blob{
		Key:         key,
		Filename:    payload.Filename,
		ContentType: contentType,
		MetaData:    meta,
		ServiceName: "local",
		ByteSize:    int64(len(content)),
		Checksum:    hex.EncodeToString(sum[:]),
	}
	blob.ID = blobID
	newAttachment := attachment.Attachment{
		Name:           payload.Name,
		AttachableType: target.Type,
		AttachableID:   target.ID,
		BlobID:         blobID,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ar.CreateBlob(ctx, &blob); err != nil {
			return err
		}
		return s.ar.Create(ctx, &newAttachment)
	})
	if err != nil {
		// The rows never made it, so nothing will sweep the object later
		if _, derr := s.store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Warn().Err(derr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return nil, persistence.Translate(err, "Failed to record upload of %s", payload.Filename)
	}
	newAttachment.Blob = &blob
	newAttachment.URL = url
	return &newAttachment, nil
}

func (s *service) find(ctx context.Context, id string) (*attachment.Attachment, error) {
	var (
		found *attachment.Attachment
		err   error
	)
	if internal.IsFriendlyID(id) {
		found, err = s.ar.GetByFriendlyID(ctx, id)
	} else if parsed, perr := uuid.FromString(id); perr == nil {
		found, err = s.ar.Get(ctx, parsed)
	} else {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "id must be a UUID or a friendly id")
	}
	if err != nil {
		return nil, persistence.Translate(err, "%v: %s", attachment.ErrAttachmentDoesNotExist, id)
	}
	return found, nil
}

func (s *service) Get(ctx context.Context, id string) (*attachment.Attachment, error) {
	found, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if found.Blob != nil {
		found.URL = s.store.URL(found.Blob.Key)
	}
	return found, nil
}

func (s *service) ListFor(ctx context.Context, attachable record.Ref) ([]attachment.Attachment, error) {
	found, err := s.ar.ListFor(ctx, attachable)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list attachments of %s", attachable)
	}
	for i := range found {
		if found[i].Blob != nil {
			found[i].URL = s.store.URL(found[i].Blob.Key)
		}
	}
	return found, nil
}

func (s *service) URL(ctx context.Context, id string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.cfg.PresignTTL
	}
	found, err := s.find(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if found.Blob == nil {
		return "", time.Time{}, internal.NewErrorf(internal.ErrorCodeNotFound, "%v: %s has no blob", attachment.ErrAttachmentDoesNotExist, id)
	}
	expiresAt := s.now().Add(ttl)
	url, err := s.store.PresignedURL(ctx, found.Blob.Key, ttl)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", time.Time{}, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "%v: %s", attachment.ErrAttachmentDoesNotExist, id)
		}
		return "", time.Time{}, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to sign URL for %s", id)
	}
	return url, expiresAt, nil
}

func (s *service) MarkForDeletion(ctx context.Context, id string) error {
	found, err := s.find(ctx, id)
	if err != nil {
		if internal.IsCode(err, internal.ErrorCodeNotFound) {
			return nil
		}
		return err
	}
	if err := s.ar.MarkForDeletion(ctx, found.ID); err != nil {
		return persistence.Translate(err, "Failed to delete attachment %s", id)
	}
	return nil
}

func (s *service) DeleteMarked(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = internal.MaxPageSize
	}
	marked, err := s.ar.ListMarked(ctx, limit)
	if err != nil {
		return 0, persistence.Translate(err, "Failed to list marked attachments")
	}

	removed := 0
	var failed []error
	for _, a := range marked {
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			shared := false
			if a.Blob != nil {
				refs, err := s.ar.CountBlobReferences(ctx, a.BlobID)
				if err != nil {
					return err
				}
				shared = refs > 1
				if !shared {
					if _, err := s.store.Delete(ctx, a.Blob.Key); err != nil {
						return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to delete %s", a.Blob.Key)
					}
				}
			}
			if err := s.ar.Purge(ctx, a.ID); err != nil {
				return err
			}
			if a.Blob == nil || shared {
				return nil
			}
			return s.ar.PurgeBlob(ctx, a.BlobID)
		})
		if err != nil {
			// The row stays marked for the next run
			s.log.Error().Err(err).Str("attachment_id", a.ID.String()).Msg("failed to delete marked attachment")
			failed = append(failed, persistence.Translate(err, "Failed to delete marked attachment %s", a.ID))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("deleted marked attachments")
	}
	if len(failed) > 0 {
		return removed, internal.WrapErrorf(errors.Join(failed...), internal.CodeOf(failed[0]), "Failed to delete %d of %d marked attachments", len(failed), len(marked))
	}
	return removed, nil
}

func (s *service) RecordVariant(ctx context.Context, blobID uuid.UUID, digest string) (*attachment.Variant, error) {
	if digest == "" {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "variation_digest is required")
	}
	found, err := s.ar.RecordVariant(ctx, blobID, digest)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to record variant of blob %s", blobID)
	}
	return found, nil
}
