package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordrouter "github.com/jose-valero/groupguard-bot/internal/adapters/discord"
	"github.com/jose-valero/groupguard-bot/internal/adapters/httpadmin"
	"github.com/jose-valero/groupguard-bot/internal/app/service"
	"github.com/jose-valero/groupguard-bot/internal/infra/config"
	"github.com/jose-valero/groupguard-bot/internal/infra/identity"
	"github.com/jose-valero/groupguard-bot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	groupRepo := storage.NewGroupRepo(db)
	modlogRepo := storage.NewModLogRepo(db)
	schedRepo := storage.NewScheduleRepo(db)

	ids := identity.New(cfg.IdentityAliases)

	// Discord session (antes de los services que la necesitan)
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	transport := discordrouter.NewTransport(s)

	// Services
	groupSvc := service.NewGroupService(groupRepo, modlogRepo, ids, cfg.BotAdminIDs)
	moderSvc := service.NewModerationService(groupSvc, transport, ids)
	schedSvc := service.NewScheduleService(schedRepo, transport)

	// Scheduler: recuperar pendientes del store y arrancar el loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n, err := schedSvc.Recover(ctx)
	if err != nil {
		log.Fatalf("recuperando agenda: %v", err)
	}
	go schedSvc.Run(ctx)
	log.Printf("✅ scheduler arriba (%d entradas activas)", n)

	// Plano de control HTTP
	admin := httpadmin.New(cfg.HTTPAddr, cfg.AdminSecret, groupSvc)
	go func() {
		if err := admin.Run(); err != nil {
			log.Printf("http admin: %v", err)
		}
	}()

	// Router de mensajes
	r := discordrouter.NewRouter(s, cfg.CommandPrefix, cfg.DiscordGuild, groupSvc, moderSvc, schedSvc, transport, ids)
	r.Handlers()
	log.Printf("✅ escuchando comandos con prefijo %q", cfg.CommandPrefix)

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
}
