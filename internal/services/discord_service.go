// internal/services/discord_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/conefivem/hub/internal/client"
)

// DiscordDirectory is the part of the Discord REST API the member listing uses.
type DiscordDirectory interface {
	ListRoles(ctx context.Context, guildID string) ([]client.DiscordRole, error)
	ListMembers(ctx context.Context, guildID string) ([]client.DiscordMember, error)
}

type DiscordService struct {
	directory    DiscordDirectory
	defaultGuild string
	defaultRole  string
}

type RoleMembers struct {
	GuildID string                 `json:"guild_id"`
	Role    client.DiscordRole     `json:"role"`
	Members []client.DiscordMember `json:"members"`
	Total   int                    `json:"total"`
}

// NewDiscordService takes a nil directory when no bot token is configured.
func NewDiscordService(directory DiscordDirectory, defaultGuild, defaultRole string) *DiscordService {
	return &DiscordService{
		directory:    directory,
		defaultGuild: defaultGuild,
		defaultRole:  defaultRole,
	}
}

// MembersWithRole lists guild members holding a role given by id or by name (case-insensitive).
func (s *DiscordService) MembersWithRole(ctx context.Context, guildID, role string) (*RoleMembers, error) {
	if s.directory == nil {
		return nil, ErrDiscordUnavailable
	}
	if guildID == "" {
		guildID = s.defaultGuild
	}
	if role == "" {
		role = s.defaultRole
	}
	if guildID == "" {
		return nil, ErrDiscordUnavailable
	}

	roles, err := s.directory.ListRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	target, ok := findRole(roles, role)
	if !ok {
		return nil, ErrDiscordRoleNotFound
	}

	members, err := s.directory.ListMembers(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	matching := make([]client.DiscordMember, 0)
	for _, m := range members {
		if m.HasRole(target.ID) {
			matching = append(matching, m)
		}
	}

	return &RoleMembers{
		GuildID: guildID,
		Role:    target,
		Members: matching,
		Total:   len(matching),
	}, nil
}

func findRole(roles []client.DiscordRole, wanted string) (client.DiscordRole, bool) {
	for _, r := range roles {
		if r.ID == wanted {
			return r, true
		}
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, wanted) {
			return r, true
		}
	}
	return client.DiscordRole{}, false
}
