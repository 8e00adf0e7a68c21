package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"matchmaker/application"
	"matchmaker/domain/entities"
	"matchmaker/domain/services"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// recentMatchesLimit caps /debug/matches?status=recent
const recentMatchesLimit = 20

// DebugResponse represents the response from a debug endpoint
type DebugResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// QueueInfo is the debug view of one guild's queues
type QueueInfo struct {
	GuildID int64                            `json:"guild_id"`
	Counts  map[string]int                   `json:"counts"`
	Waiting map[string][]entities.QueueEntry `json:"waiting"`
}

// StartDebugAPI starts an internal HTTP API for inspecting queues and matches
func (b *Bot) StartDebugAPI(port int) error {
	if port <= 0 {
		return fmt.Errorf("invalid debug API port %d", port)
	}

	b.debugServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", port),
		Handler:      otelhttp.NewHandler(newDebugHandler(b.queues, b.orchestrator, b.uowFactory), "debug-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	server := b.debugServer
	go func() {
		log.Infof("Debug API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Debug API server error: %v", err)
		}
	}()
	return nil
}

func newDebugHandler(queues *services.QueueRegistry, orchestrator *services.MatchOrchestrator, uowFactory application.UnitOfWorkFactory) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /debug/queues", func(w http.ResponseWriter, r *http.Request) {
		infos := make([]QueueInfo, 0)
		for _, guildID := range queues.Guilds() {
			queue := queues.ForGuild(guildID)
			info := QueueInfo{
				GuildID: guildID,
				Counts:  queue.Counts(),
				Waiting: make(map[string][]entities.QueueEntry),
			}
			for name := range queues.QueueTypes() {
				if entries, err := queue.Snapshot(name); err == nil && len(entries) > 0 {
					info.Waiting[name] = entries
				}
			}
			infos = append(infos, info)
		}
		respondWithData(w, infos)
	})

	// Without guild_id this lists in-memory runs; with it, persisted matches
	mux.HandleFunc("GET /debug/matches", func(w http.ResponseWriter, r *http.Request) {
		rawGuildID := r.URL.Query().Get("guild_id")
		if rawGuildID == "" {
			respondWithData(w, orchestrator.ActiveRuns())
			return
		}

		guildID, err := strconv.ParseInt(rawGuildID, 10, 64)
		if err != nil {
			respondWithError(w, "Invalid guild_id", http.StatusBadRequest)
			return
		}

		matches, err := loadMatches(r.Context(), uowFactory, guildID, r.URL.Query().Get("status"))
		if err != nil {
			respondWithError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondWithData(w, matches)
	})

	return mux
}

func loadMatches(ctx context.Context, uowFactory application.UnitOfWorkFactory, guildID int64, status string) ([]*entities.Match, error) {
	uow := uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if status == "recent" {
		return uow.MatchRepository().GetRecent(ctx, recentMatchesLimit)
	}
	return uow.MatchRepository().GetPending(ctx)
}

func respondWithData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DebugResponse{
		Success: true,
		Data:    data,
	})
}

func respondWithError(w http.ResponseWriter, error string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DebugResponse{
		Success: false,
		Error:   error,
	})
}
