package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// UserInfo contains the user's basic profile information from Microsoft Graph.
type UserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// GetUserInfo fetches the user's profile using an access token.
// The email address serves as the account identifier in the token store.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	query := map[string]string{"$select": "id,displayName,mail,userPrincipalName"}

	raw, err := c.Call(ctx, accessToken, http.MethodGet, "/me", query, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	var userInfo UserInfo
	if err := json.Unmarshal(raw, &userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &userInfo, nil
}

// GetUserEmail returns the user's email address.
// Falls back to userPrincipalName if mail is not set.
func (u *UserInfo) GetUserEmail() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}
