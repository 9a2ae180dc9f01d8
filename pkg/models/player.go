package models

import "time"

type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AvatarEmoji string    `json:"avatarEmoji"`
	AvatarColor string    `json:"avatarColor"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PlayerPatch struct {
	Name        *string
	AvatarEmoji *string
	AvatarColor *string
}

func (p PlayerPatch) Apply(player *Player) {
	if p.Name != nil {
		player.Name = *p.Name
	}
	if p.AvatarEmoji != nil {
		player.AvatarEmoji = *p.AvatarEmoji
	}
	if p.AvatarColor != nil {
		player.AvatarColor = *p.AvatarColor
	}
}

var AvatarEmojis = []string{
	"🎮", "🎲", "🎯", "🏆", "⭐", "🔥", "💎", "🦊",
	"🐺", "🦁", "🐻", "🦅", "🐙", "🦈", "🐉", "🦄",
	"🍀", "🌟", "⚡", "🎪", "🎭", "🎨", "🚀", "👾",
}

var AvatarColors = []string{
	"#ef4444", // red
	"#f97316", // orange
	"#eab308", // yellow
	"#22c55e", // green
	"#06b6d4", // cyan
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#6366f1", // indigo
	"#14b8a6", // teal
	"#f59e0b", // amber
	"#a855f7", // purple
}

// DefaultAvatar picks an emoji and colour for the nth player created.
func DefaultAvatar(n int) (emoji string, color string) {
	if n < 0 {
		n = -n
	}
	return AvatarEmojis[n%len(AvatarEmojis)], AvatarColors[n%len(AvatarColors)]
}
