package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// reply responde en el mismo canal citando el mensaje original.
func reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	_, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference())
	if err != nil {
		// fallback sin reference (p.ej. si el mensaje original ya fue borrado)
		if _, err2 := s.ChannelMessageSend(m.ChannelID, content); err2 != nil {
			log.Printf("reply error: %v / %v", err, err2)
		}
	}
}

func send(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Printf("send error: %v", err)
	}
}
