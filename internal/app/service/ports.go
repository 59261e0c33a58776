package service

import (
	"context"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

// Lo implementa internal/adapters/discord.Transport
type Transport interface {
	SendMessage(ctx context.Context, chatID, content string) error
	DeleteMessage(ctx context.Context, chatID, messageID string) error
	RemoveParticipant(ctx context.Context, groupID string, userIDs []string) error
	GroupMetadata(ctx context.Context, groupID string) (GroupMetadata, error)
}

type GroupMetadata struct {
	Subject      string
	Participants []string
}

// Lo implementa internal/infra/storage.GroupRepo
type GroupRepo interface {
	Get(ctx context.Context, groupID string) (storage.GroupState, error)
	Create(ctx context.Context, groupID, name, createdBy string) (bool, error)
	UpdatePolicy(ctx context.Context, groupID string, u storage.GroupPolicyUpdate) (storage.GroupState, error)
	Delete(ctx context.Context, groupID string) (bool, error)

	AddAdmin(ctx context.Context, groupID, userID string) (bool, error)
	RemoveAdmin(ctx context.Context, groupID, userID string) (bool, error)
	AddModerator(ctx context.Context, groupID, userID string) (bool, error)
	RemoveModerator(ctx context.Context, groupID, userID string) (bool, error)

	AddBlacklistWord(ctx context.Context, groupID, word string) (bool, error)
	RemoveBlacklistWord(ctx context.Context, groupID, word string) (bool, error)
	AddWhitelistDomain(ctx context.Context, groupID, domain string) (bool, error)
	RemoveWhitelistDomain(ctx context.Context, groupID, domain string) (bool, error)

	UpsertBan(ctx context.Context, b storage.BanRecord) error
	GetBan(ctx context.Context, groupID, userID string) (storage.BanRecord, error)
	DeleteBan(ctx context.Context, groupID, userID string) (bool, error)

	UpsertMute(ctx context.Context, m storage.MuteRecord) error
	GetMute(ctx context.Context, groupID, userID string) (storage.MuteRecord, error)
	DeleteMute(ctx context.Context, groupID, userID string) (bool, error)

	AddWarning(ctx context.Context, w storage.Warning) (int, error)
	CountWarnings(ctx context.Context, groupID, userID string) (int, error)
	ListWarnings(ctx context.Context, groupID, userID string) ([]storage.Warning, error)
	ClearWarnings(ctx context.Context, groupID, userID string) (int64, error)
}

// Lo implementa internal/infra/storage.ModLogRepo
type ModLogRepo interface {
	Append(ctx context.Context, e storage.ModLogEntry) error
	ListRecent(ctx context.Context, groupID string, limit int) ([]storage.ModLogEntry, error)
}

// Lo implementa internal/infra/storage.ScheduleRepo
type ScheduleRepo interface {
	Create(ctx context.Context, e storage.ScheduleEntry) error
	Get(ctx context.Context, id string) (storage.ScheduleEntry, error)
	ListActiveFuture(ctx context.Context) ([]storage.ScheduleEntry, error)
	ListActiveByGroup(ctx context.Context, groupID string, limit int) ([]storage.ScheduleEntry, error)
	MarkReminderSent(ctx context.Context, scheduleID string, fireAt time.Time) error
	Complete(ctx context.Context, id string) (bool, error)
	IsActive(ctx context.Context, id string) (bool, error)
}
