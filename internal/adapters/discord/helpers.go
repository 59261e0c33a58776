package discord

import (
	"regexp"
	"strings"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/app/service"
)

var reMention = regexp.MustCompile(`<@!?(\d+)>`)

// parseTarget: primer arg que sea mención o ID numérico. Devuelve también
// los args restantes (lo que suele ser la razón).
func parseTarget(args []string) (string, []string) {
	for i, tok := range args {
		if m := reMention.FindStringSubmatch(tok); len(m) == 2 {
			return m[1], append(append([]string{}, args[:i]...), args[i+1:]...)
		}
		if allDigits(tok) {
			return tok, append(append([]string{}, args[:i]...), args[i+1:]...)
		}
	}
	return "", args
}

func allDigits(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// popSpan: si el primer arg es una duración ("30m", "2h", "1d") la consume.
func popSpan(args []string) (time.Duration, []string) {
	if len(args) == 0 {
		return 0, args
	}
	if d, ok := service.ParseSpan(args[0]); ok {
		return d, args[1:]
	}
	return 0, args
}

func reasonFrom(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func fmtList(items []string) string {
	if len(items) == 0 {
		return "_(vacía)_"
	}
	return "`" + strings.Join(items, "`, `") + "`"
}
