package service

import (
	"strconv"
	"strings"
	"time"
)

// ParseWhen: (token de fecha, token de hora) -> instante futuro.
// Acepta "today"/"hoy", "tomorrow"/"mañana", "YYYY-MM-DD" y "DD/MM/YYYY";
// hora en "HH:MM". Devuelve false si no parsea o si quedó en el pasado;
// el caller rechaza antes de agendar.
func ParseWhen(dateTok, timeTok string, now time.Time) (time.Time, bool) {
	var day time.Time
	switch strings.ToLower(strings.TrimSpace(dateTok)) {
	case "today", "hoy":
		day = now
	case "tomorrow", "mañana", "manana":
		day = now.AddDate(0, 0, 1)
	default:
		var err error
		day, err = time.ParseInLocation("2006-01-02", dateTok, now.Location())
		if err != nil {
			day, err = time.ParseInLocation("02/01/2006", dateTok, now.Location())
		}
		if err != nil {
			return time.Time{}, false
		}
	}

	hhmm, err := time.Parse("15:04", strings.TrimSpace(timeTok))
	if err != nil {
		return time.Time{}, false
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), hhmm.Hour(), hhmm.Minute(), 0, 0, now.Location())
	if !at.After(now) {
		return time.Time{}, false
	}
	return at, true
}

// ParseSpan: duraciones tipo "30m", "2h", "1d" (también "45s").
func ParseSpan(tok string) (time.Duration, bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if len(tok) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(tok[:len(tok)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch tok[len(tok)-1] {
	case 's':
		return time.Duration(n) * time.Second, true
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	}
	return 0, false
}
