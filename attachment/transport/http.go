package transport

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/attachment"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	"github.com/RagOfJoes/bloom/storage"
	"github.com/RagOfJoes/bloom/transport"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

type Http struct {
	as    attachment.Service
	store storage.Provider
}

func NewAttachmentHttp(as attachment.Service, store storage.Provider, r gin.IRouter) {
	h := &Http{
		as:    as,
		store: store,
	}
	group := r.Group("/attachments")
	{
		group.POST("", h.upload())
		group.GET("", h.listFor())
		group.GET("/:id", h.get())
		group.GET("/:id/url", h.url())
		group.DELETE("/:id", h.delete())
	}
	r.GET("/files/*key", h.serve())
}

func (h *Http) upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			transport.Fail(c, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "file is required"))
			return
		}
		attachableID, err := uuid.FromString(c.PostForm("attachable_id"))
		if err != nil {
			transport.Fail(c, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "attachable_id must be a valid UUID"))
			return
		}
		content, err := file.Open()
		if err != nil {
			transport.Fail(c, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "Failed to read file"))
			return
		}
		defer content.Close()

		var tags []string
		if raw := c.PostForm("tags"); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
		}
		name := c.PostForm("name")
		if name == "" {
			name = file.Filename
		}
		created, err := h.as.Upload(c.Request.Context(), attachment.Upload{
			Name:           name,
			AttachableType: c.PostForm("attachable_type"),
			AttachableID:   attachableID,
			Filename:       file.Filename,
			Content:        content,
			UploadedBy:     persistence.ActorFrom(c.Request.Context()).AccountID,
			Tags:           tags,
		})
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusCreated, created)
	}
}

func (h *Http) listFor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.FromString(c.Query("attachable_id"))
		if err != nil {
			transport.Fail(c, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "attachable_id must be a valid UUID"))
			return
		}
		ref, err := record.Attachable.Ref(c.Query("attachable_type"), id)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		found, err := h.as.ListFor(c.Request.Context(), ref)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) get() gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := h.as.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, found)
	}
}

func (h *Http) url() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ttl time.Duration
		if raw := c.Query("ttl"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				transport.Fail(c, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "ttl must be a positive duration"))
				return
			}
			ttl = parsed
		}
		url, expiresAt, err := h.as.URL(c.Request.Context(), c.Param("id"), ttl)
		if err != nil {
			transport.Fail(c, err)
			return
		}
		transport.OK(c, http.StatusOK, gin.H{
			"url":        url,
			"expires_at": expiresAt,
		})
	}
}

func (h *Http) delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.as.MarkForDeletion(c.Request.Context(), c.Param("id")); err != nil {
			transport.Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// serve streams a stored object behind a presigned URL
func (h *Http) serve() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if err := h.store.Verify(key, c.Query("expires"), c.Query("signature")); err != nil {
			transport.Fail(c, internal.WrapErrorf(err, internal.ErrorCodeForbidden, "Invalid or expired URL"))
			return
		}
		body, err := h.store.Download(c.Request.Context(), key)
		if err != nil {
			if storage.IsNotFound(err) {
				transport.Fail(c, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "File does not exist"))
				return
			}
			transport.Fail(c, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to read file"))
			return
		}
		defer body.Close()

		c.Status(http.StatusOK)
		c.Header("Cache-Control", "private, no-store")
		if _, err := io.Copy(c.Writer, body); err != nil {
			c.Error(err)
		}
	}
}
