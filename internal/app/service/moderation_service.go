package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/domain"
	"github.com/jose-valero/groupguard-bot/internal/infra/identity"
	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

// RuleHit: una regla que disparó sobre el mensaje, con la acción aplicada y
// lo que la hizo disparar (palabras o links).
type RuleHit struct {
	Rule    string
	Action  string
	Matches []string

	// solo cuando Action == warn
	WarnCount int
	Escalated bool
}

// Verdict agrega los tres chequeos: Delete es el OR de todas las reglas.
type Verdict struct {
	Delete bool
	Hits   []RuleHit
}

// Rule devuelve la primera regla que disparó ("" si ninguna).
func (v Verdict) Rule() string {
	if len(v.Hits) == 0 {
		return ""
	}
	return v.Hits[0].Rule
}

// ModerationService evalúa cada mensaje contra las políticas del grupo en
// orden fijo: anti-spam, word-filter, link-control. Admin/moderador saltea
// todo. Las acciones se ejecutan acá mismo (warn/mute/kick); el borrado del
// mensaje lo hace el caller con el Verdict.
type ModerationService struct {
	groups    *GroupService
	transport Transport
	ids       *identity.Normalizer
	windows   *rateWindows
	now       func() time.Time
}

func NewModerationService(groups *GroupService, transport Transport, ids *identity.Normalizer) *ModerationService {
	return &ModerationService{
		groups:    groups,
		transport: transport,
		ids:       ids,
		windows:   newRateWindows(),
		now:       time.Now,
	}
}

func (s *ModerationService) CheckMessage(ctx context.Context, groupID, rawUser, text string) (Verdict, error) {
	g, err := s.groups.Get(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		// grupo sin inicializar: no hay políticas que aplicar
		return Verdict{}, nil
	}
	if err != nil {
		return Verdict{}, err
	}

	// admins y moderadores no pasan por ningún chequeo
	if s.groups.IsModerator(ctx, groupID, rawUser) {
		return Verdict{}, nil
	}

	userID := s.ids.Normalize(rawUser)
	var v Verdict

	if hit, ok := s.checkAntiSpam(g, groupID, userID); ok {
		s.applyAction(ctx, &hit, g, groupID, userID)
		v.Delete = true
		v.Hits = append(v.Hits, hit)
	}
	if hit, ok := s.checkWordFilter(g, text); ok {
		s.applyAction(ctx, &hit, g, groupID, userID)
		v.Delete = true
		v.Hits = append(v.Hits, hit)
	}
	if hit, ok := s.checkLinkControl(g, text); ok {
		s.applyAction(ctx, &hit, g, groupID, userID)
		v.Delete = true
		v.Hits = append(v.Hits, hit)
	}
	return v, nil
}

// ---------- reglas ----------

func (s *ModerationService) checkAntiSpam(g storage.GroupState, groupID, userID string) (RuleHit, bool) {
	if !g.AntiSpam.Enabled {
		return RuleHit{}, false
	}
	window := time.Duration(g.AntiSpam.WindowSeconds) * time.Second
	count := s.windows.hit(groupID, userID, s.now(), window)
	if count <= g.AntiSpam.MaxMessages {
		return RuleHit{}, false
	}
	// ventana limpia para el próximo mensaje
	s.windows.clear(groupID, userID)
	return RuleHit{Rule: domain.RuleAntiSpam, Action: g.AntiSpam.Action}, true
}

func (s *ModerationService) checkWordFilter(g storage.GroupState, text string) (RuleHit, bool) {
	if !g.WordFilter.Enabled || len(g.WordFilter.Blacklist) == 0 {
		return RuleHit{}, false
	}
	lower := strings.ToLower(text)
	var matches []string
	// se juntan todas las coincidencias, no solo la primera
	for _, word := range g.WordFilter.Blacklist {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			matches = append(matches, word)
		}
	}
	if len(matches) == 0 {
		return RuleHit{}, false
	}
	return RuleHit{Rule: domain.RuleWordFilter, Action: g.WordFilter.Action, Matches: matches}, true
}

// linkPattern: con esquema, con www. o token con pinta de dominio.
var linkPattern = regexp.MustCompile(`(?i)(?:https?://\S+|www\.\S+|\b[a-z0-9][a-z0-9-]*(?:\.[a-z0-9][a-z0-9-]*)*\.[a-z]{2,}(?:/\S*)?)`)

func (s *ModerationService) checkLinkControl(g storage.GroupState, text string) (RuleHit, bool) {
	if !g.LinkControl.Enabled {
		return RuleHit{}, false
	}
	links := linkPattern.FindAllString(text, -1)
	if len(links) == 0 {
		return RuleHit{}, false
	}
	// un link está permitido si contiene alguna entrada de la whitelist
	var offending []string
	for _, link := range links {
		lower := strings.ToLower(link)
		allowed := false
		for _, dom := range g.LinkControl.Whitelist {
			if dom != "" && strings.Contains(lower, strings.ToLower(dom)) {
				allowed = true
				break
			}
		}
		if !allowed {
			offending = append(offending, link)
		}
	}
	if len(offending) == 0 {
		return RuleHit{}, false
	}
	return RuleHit{Rule: domain.RuleLinkControl, Action: g.LinkControl.Action, Matches: offending}, true
}

// ---------- acciones ----------

// applyAction ejecuta la acción configurada. Errores del store se loggean y
// no cortan nada: la decisión ya está tomada y el borrado del mensaje sale
// igual (best-effort).
func (s *ModerationService) applyAction(ctx context.Context, hit *RuleHit, g storage.GroupState, groupID, userID string) {
	reason := "auto: " + hit.Rule

	switch hit.Action {
	case domain.ActionWarn:
		count, escalated, err := s.groups.Warn(ctx, groupID, userID, "bot", reason)
		if err != nil {
			log.Printf("moderation warn %s/%s: %v", groupID, userID, err)
			return
		}
		hit.WarnCount = count
		hit.Escalated = escalated

	case domain.ActionMute:
		d := time.Duration(g.AntiSpam.MuteMinutes) * time.Minute
		if err := s.groups.Mute(ctx, groupID, userID, "bot", reason, d); err != nil {
			log.Printf("moderation mute %s/%s: %v", groupID, userID, err)
		}

	case domain.ActionKick:
		s.groups.LogKick(ctx, groupID, userID, "bot", reason)
		if err := s.transport.RemoveParticipant(ctx, groupID, []string{userID}); err != nil {
			log.Printf("moderation kick %s/%s: %v", groupID, userID, err)
		}

	case domain.ActionBan:
		if err := s.groups.Ban(ctx, groupID, userID, "bot", reason, 0); err != nil {
			log.Printf("moderation ban %s/%s: %v", groupID, userID, err)
			return
		}
		if err := s.transport.RemoveParticipant(ctx, groupID, []string{userID}); err != nil {
			log.Printf("moderation ban remove %s/%s: %v", groupID, userID, err)
		}

	case domain.ActionDelete:
		// sin mutación de estado: el caller borra el mensaje con el Verdict
	}
}
