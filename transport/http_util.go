package transport

import (
	"fmt"
	"net/http"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

// RequestURL retrieves entry path of request
func RequestURL(req *http.Request) string {
	path := req.URL.Path
	query := req.URL.Query().Encode()
	url := path
	if len(query) > 0 {
		url = fmt.Sprintf("%s?%s", path, query)
	}
	return url
}

// ParamID parses a uuid path parameter
func ParamID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		return uuid.Nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%s must be a valid UUID", name)
	}
	return id, nil
}

// QueryID parses a uuid query parameter
func QueryID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Query(name))
	if err != nil {
		return uuid.Nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%s must be a valid UUID", name)
	}
	return id, nil
}

// Bind decodes the JSON body into dst
func Bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "Invalid payload provided")
	}
	return nil
}

// PageOf reads limit and offset query parameters
func PageOf(c *gin.Context) internal.Page {
	var p internal.Page
	_ = c.ShouldBindQuery(&p)
	return p.Normalize()
}

// OK writes a successful envelope
func OK(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, HttpResponse{
		Success: true,
		Payload: payload,
	})
}
