// Package flow holds what the emailed-link flows share
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RagOfJoes/bloom/email"
)

type Status string

const (
	// LinkPending occurs when the link has been sent via email and is waiting to be
	// activated
	LinkPending Status = "LinkPending"
	// Success occurs when the flow has completed successfully
	Success Status = "Success"
)

var ErrInvalidExpiredFlow = errors.New("Invalid or expired flow")

// Emails queues an email once the current transaction commits
type Emails interface {
	Send(ctx context.Context, req email.Request)
}

// Link builds the public url of a flow step
func Link(serverURL string, flowURL string, value string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(serverURL, "/"), strings.Trim(flowURL, "/"), value)
}
