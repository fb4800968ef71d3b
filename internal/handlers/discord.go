// internal/handlers/discord.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

type DiscordHandler struct {
	discordService *services.DiscordService
}

func NewDiscordHandler(discordService *services.DiscordService) *DiscordHandler {
	return &DiscordHandler{discordService: discordService}
}

// GET /api/discord/members?guildId=&roleId=|role=
func (h *DiscordHandler) GetMembers(c *gin.Context) {
	role := c.Query("roleId")
	if role == "" {
		role = c.Query("role")
	}

	members, err := h.discordService.MembersWithRole(c.Request.Context(), c.Query("guildId"), role)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, members)
}
