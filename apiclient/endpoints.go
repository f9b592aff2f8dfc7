package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskhub/go-task-server/notifications"
	"github.com/taskhub/go-task-server/session"
	"github.com/taskhub/go-task-server/users"
)

type loginResponse struct {
	Status    bool           `json:"status"`
	Message   string         `json:"message"`
	Token     string         `json:"token"`
	UserID    string         `json:"userId"`
	Role      users.RoleType `json:"role"`
	SessionID string         `json:"sessionId"`
}

// Login authenticates and drives the loginSuccess transition on the
// session state machine.
func (c *Client) Login(ctx context.Context, email, password string) (session.State, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/user/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return c.sessions.Snapshot(), err
	}

	c.sessions.LoginSuccess(session.LoginPayload{
		Token:     resp.Token,
		UserID:    resp.UserID,
		Role:      resp.Role,
		SessionID: resp.SessionID,
	})
	return c.sessions.Snapshot(), nil
}

// RegisterParams carries a registration form.
type RegisterParams struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Title    string         `json:"title"`
	Role     users.RoleType `json:"role"`
}

// Register creates an account. The account stays inactive until an
// administrator approves it, so no session transition happens here.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*users.User, error) {
	var resp struct {
		Status  bool        `json:"status"`
		Message string      `json:"message"`
		User    *users.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/register", params, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout notifies the server, then completes the local logout
// transition regardless of the server's answer: the local session must
// always end.
func (c *Client) Logout(ctx context.Context) {
	if c.sessions.Snapshot().Token != "" {
		if err := c.do(ctx, http.MethodPost, "/api/user/logout", nil, nil); err != nil {
			c.log.Warn().Err(err).Msg("[Client.Logout] server logout failed, proceeding locally")
		}
	}
	c.sessions.Logout()
	c.navigator.NavigateToLogin()
}

// Profile fetches the caller's profile and merges it into the session.
func (c *Client) Profile(ctx context.Context) (*users.User, error) {
	var profile users.User
	if err := c.do(ctx, http.MethodGet, "/api/user/profile", nil, &profile); err != nil {
		return nil, err
	}
	c.sessions.RefreshFromProfile(&profile)
	return &profile, nil
}

// UpdateProfile edits name/title/role for the given user (or the caller
// when id is empty).
func (c *Client) UpdateProfile(ctx context.Context, id string, name, title string, role users.RoleType) (*users.User, error) {
	path := "/api/user/profile"
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	// Omitted fields stay untouched server-side, so only send what the
	// caller actually set.
	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	if title != "" {
		body["title"] = title
	}
	if role != "" {
		body["role"] = role
	}

	var resp struct {
		Status bool        `json:"status"`
		User   *users.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, path, body, &resp)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ChangePassword replaces the caller's password.
func (c *Client) ChangePassword(ctx context.Context, password string) error {
	return c.do(ctx, http.MethodPut, "/api/user/change-password", map[string]string{
		"password": password,
	}, nil)
}

// TeamMember is one roster row.
type TeamMember struct {
	ID       string         `json:"_id"`
	Name     string         `json:"name"`
	Title    string         `json:"title"`
	Role     users.RoleType `json:"role"`
	Email    string         `json:"email"`
	IsActive bool           `json:"isActive"`
}

// Team fetches the roster. This is the designated soft-fail endpoint: a
// 401 here yields an empty roster and leaves the session intact.
func (c *Client) Team(ctx context.Context) ([]TeamMember, error) {
	var team []TeamMember
	if err := c.do(ctx, http.MethodGet, "/api/user/get-team", nil, &team); err != nil {
		return nil, err
	}
	if team == nil {
		team = []TeamMember{}
	}
	return team, nil
}

// Activate flips a user's active flag. Admin only.
func (c *Client) Activate(ctx context.Context, id string, active bool) error {
	return c.do(ctx, http.MethodPut, "/api/user/activate/"+url.PathEscape(id), map[string]bool{
		"isActive": active,
	}, nil)
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/user/"+url.PathEscape(id), nil, nil)
}

// Notifications lists the caller's unread notices.
func (c *Client) Notifications(ctx context.Context) ([]*notifications.Notice, error) {
	var list []*notifications.Notice
	if err := c.do(ctx, http.MethodGet, "/api/user/notifications", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks one notice read, or all when id is empty.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	query := "?isReadType=all"
	if id != "" {
		query = "?isReadType=single&id=" + url.QueryEscape(id)
	}
	return c.do(ctx, http.MethodPut, "/api/user/read-noti"+query, nil, nil)
}
