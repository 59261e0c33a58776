package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/groupguard-bot/internal/app/service"
)

// Transport implementa service.Transport sobre discordgo. El "grupo" del
// core es el channel; para sacar participantes resolvemos el guild dueño
// del channel.
type Transport struct {
	s *discordgo.Session
}

func NewTransport(s *discordgo.Session) *Transport { return &Transport{s: s} }

func (t *Transport) SendMessage(ctx context.Context, chatID, content string) error {
	_, err := t.s.ChannelMessageSend(chatID, content, discordgo.WithContext(ctx))
	return err
}

func (t *Transport) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	return t.s.ChannelMessageDelete(chatID, messageID, discordgo.WithContext(ctx))
}

func (t *Transport) RemoveParticipant(ctx context.Context, groupID string, userIDs []string) error {
	ch, err := t.safeGetChannel(groupID)
	if err != nil {
		return fmt.Errorf("resolver channel %s: %w", groupID, err)
	}
	if ch.GuildID == "" {
		return fmt.Errorf("channel %s no pertenece a un guild", groupID)
	}
	for _, uid := range userIDs {
		if err := t.s.GuildMemberDelete(ch.GuildID, uid, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) GroupMetadata(ctx context.Context, groupID string) (service.GroupMetadata, error) {
	ch, err := t.safeGetChannel(groupID)
	if err != nil {
		return service.GroupMetadata{}, err
	}
	md := service.GroupMetadata{Subject: ch.Name}
	if ch.GuildID == "" {
		return md, nil
	}
	members, err := t.s.GuildMembers(ch.GuildID, "", 1000, discordgo.WithContext(ctx))
	if err != nil {
		return md, err
	}
	for _, m := range members {
		md.Participants = append(md.Participants, m.User.ID)
	}
	return md, nil
}

func (t *Transport) safeGetChannel(id string) (*discordgo.Channel, error) {
	if ch, err := t.s.State.Channel(id); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := t.s.Channel(id)
	if err != nil {
		return nil, err
	}
	_ = t.s.State.ChannelAdd(ch)
	return ch, nil
}
