package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Ctx: todo lo que un handler necesita de un mensaje entrante.
type Ctx struct {
	Session *discordgo.Session
	Msg     *discordgo.MessageCreate
	GroupID string // channel; vacío nunca (los DM se frenan antes)
	UserID  string
	Args    []string // tokens después del comando
}

type CommandHandler func(ctx context.Context, c *Ctx) error

// Command: entrada de la tabla estática de dispatch. Los gates se evalúan
// antes de tocar el handler.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string

	GroupOnly bool
	ModOnly   bool
	AdminOnly bool

	Handler CommandHandler
}
