// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors Supabase's public.profiles row; the id equals the auth user id.
type Profile struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string      `json:"email" gorm:"size:255;not null;index"`
	FullName  string      `json:"full_name" gorm:"size:255"`
	AvatarURL string      `json:"avatar_url,omitempty" gorm:"size:512"`
	Role      ProfileRole `json:"role" gorm:"type:varchar(20);default:'user'"`
	DiscordID string      `json:"discord_id,omitempty" gorm:"size:32"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DisplayName is what the payment provider and sale notifications show for the buyer.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
