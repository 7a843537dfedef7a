package worksuite

import (
	"context"
	"net/url"
	"strconv"
)

// User is one row of the platform's user directory. The platform keys
// everything by the numeric id; the email is the only bridge into payroll.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type userListResponse struct {
	Users []User `json:"users"`
}

type userResponse struct {
	User User `json:"user"`
}

// GetUser looks up a single user by the platform's numeric id.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var resp userResponse
	if err := c.getJSON(ctx, "/v1/users/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListUsers fetches one page of the user directory. Pages are 1-based and
// sized by the configured page size; a short page means the listing is done.
func (c *Client) ListUsers(ctx context.Context, page int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(c.pageSize))

	var resp userListResponse
	if err := c.getJSON(ctx, "/v1/users", query, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
