package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	DiscordGuild string // opcional: limitar el bot a un guild

	CommandPrefix string // default "!"
	HTTPAddr      string // opcional, default :8080
	AdminSecret   string // header para el endpoint admin de reload

	// Admins globales del bot (independientes de cada grupo)
	BotAdminIDs []string

	// Identificadores vinculados -> número canónico ("lid1=phone1,lid2=phone2")
	IdentityAliases map[string]string
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:   get("DATABASE_URL", true),
		DiscordToken:  get("DISCORD_BOT_TOKEN", true),
		DiscordGuild:  get("DISCORD_GUILD_ID", false),
		CommandPrefix: get("COMMAND_PREFIX", false),
		HTTPAddr:      get("HTTP_ADDR", false),
		AdminSecret:   get("ADMIN_SECRET", false),
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.BotAdminIDs = splitList(get("BOT_ADMIN_IDS", false))
	cfg.IdentityAliases = parseAliases(get("IDENTITY_ALIASES", false))
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseAliases: "raw=canon,raw2=canon2"; pares malformados se ignoran.
func parseAliases(raw string) map[string]string {
	m := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		m[k] = v
	}
	return m
}
