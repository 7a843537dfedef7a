package worksuite

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// FormSubmission is one production event as the platform reports it.
type FormSubmission struct {
	ID          string         `json:"id"`
	FormID      string         `json:"form_id"`
	UserID      int64          `json:"user_id"`
	SubmittedAt time.Time      `json:"submitted_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Answers     map[string]any `json:"answers"`
}

type submissionListResponse struct {
	Submissions []FormSubmission `json:"submissions"`
	// NextOffset is the platform-provided cursor. It is absent on the
	// final page; the client never computes its own offset.
	NextOffset *int `json:"next_offset"`
}

// SubmissionPage is one page of the submission listing plus its cursor.
type SubmissionPage struct {
	Submissions []FormSubmission
	NextOffset  *int
}

// ListFormSubmissions fetches one page of submissions for a form inside the
// given window. Pass a nil offset for the first page and the returned
// NextOffset for each following page; a nil NextOffset ends the listing.
func (c *Client) ListFormSubmissions(ctx context.Context, formID string, start, end time.Time, offset *int) (*SubmissionPage, error) {
	query := url.Values{}
	query.Set("form_id", formID)
	query.Set("start", start.UTC().Format(time.RFC3339))
	query.Set("end", end.UTC().Format(time.RFC3339))
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if offset != nil {
		query.Set("offset", strconv.Itoa(*offset))
	}

	var resp submissionListResponse
	if err := c.getJSON(ctx, "/v1/form_submissions", query, &resp); err != nil {
		return nil, err
	}
	return &SubmissionPage{Submissions: resp.Submissions, NextOffset: resp.NextOffset}, nil
}
