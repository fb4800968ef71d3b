package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const discordMemberPageSize = 1000

type DiscordRole struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
}

type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

type DiscordMember struct {
	User     DiscordUser `json:"user"`
	Nick     string      `json:"nick"`
	Roles    []string    `json:"roles"`
	JoinedAt time.Time   `json:"joined_at"`
}

func (m DiscordMember) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

type DiscordAPIError struct {
	StatusCode int
	Message    string
}

func (e *DiscordAPIError) Error() string {
	return fmt.Sprintf("discord: HTTP %d: %s", e.StatusCode, e.Message)
}

type discordErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// DiscordClient is a bot-authenticated client for the guild endpoints.
type DiscordClient struct {
	http *resty.Client
}

func NewDiscordClient(baseURL, botToken string, timeout time.Duration) *DiscordClient {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Authorization", "Bot "+botToken).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &DiscordClient{http: httpClient}
}

func (c *DiscordClient) ListRoles(ctx context.Context, guildID string) ([]DiscordRole, error) {
	var roles []DiscordRole
	var apiErr discordErrorBody

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("guildID", guildID).
		SetResult(&roles).
		SetError(&apiErr).
		Get("/guilds/{guildID}/roles")
	if err := checkDiscord(resp, err, apiErr); err != nil {
		return nil, err
	}
	return roles, nil
}

// ListMembers walks every page using the "after" cursor.
func (c *DiscordClient) ListMembers(ctx context.Context, guildID string) ([]DiscordMember, error) {
	var all []DiscordMember
	after := "0"

	for {
		var page []DiscordMember
		var apiErr discordErrorBody

		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("guildID", guildID).
			SetQueryParam("limit", fmt.Sprint(discordMemberPageSize)).
			SetQueryParam("after", after).
			SetResult(&page).
			SetError(&apiErr).
			Get("/guilds/{guildID}/members")
		if err := checkDiscord(resp, err, apiErr); err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < discordMemberPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func checkDiscord(resp *resty.Response, err error, apiErr discordErrorBody) error {
	if err != nil {
		return fmt.Errorf("discord request failed: %w", err)
	}
	if resp.IsError() {
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return &DiscordAPIError{StatusCode: resp.StatusCode(), Message: message}
	}
	return nil
}
