package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"learnquest-service/internal/app"
	"learnquest-service/internal/domain"
)

// ConnectivitySwitch lets callers force the connectivity state.
type ConnectivitySwitch interface {
	Online() bool
	Set(online bool) bool
}

// APIHandler serves the progression and offline-cache REST API.
type APIHandler struct {
	progression *app.ProgressionService
	offline     *app.OfflineManager
	hub         *app.StatusHub
	conn        ConnectivitySwitch
}

func NewAPIHandler(progression *app.ProgressionService, offline *app.OfflineManager, hub *app.StatusHub, conn ConnectivitySwitch) *APIHandler {
	return &APIHandler{progression: progression, offline: offline, hub: hub, conn: conn}
}

// Register mounts every API route on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/levels", h.levels)
	mux.HandleFunc("POST /api/rewards", h.rewards)
	mux.HandleFunc("GET /api/users/{userID}/badges", h.badges)
	mux.HandleFunc("GET /api/users/{userID}/achievements", h.achievements)
	mux.HandleFunc("POST /api/users/{userID}/games", h.recordGame)

	mux.HandleFunc("GET /api/offline/games", h.cachedGames)
	mux.HandleFunc("POST /api/offline/games", h.cacheGame)
	mux.HandleFunc("DELETE /api/offline/games", h.clearCache)
	mux.HandleFunc("GET /api/offline/games/{gameID}", h.cachedGame)
	mux.HandleFunc("POST /api/offline/games/{gameID}/download", h.downloadGame)
	mux.HandleFunc("POST /api/offline/cache/compact", h.compactCache)

	mux.HandleFunc("GET /api/offline/progress", h.offlineProgress)
	mux.HandleFunc("POST /api/offline/progress", h.saveProgress)
	mux.HandleFunc("GET /api/offline/progress/unsynced", h.unsyncedProgress)
	mux.HandleFunc("POST /api/offline/progress/{gameID}/synced", h.markSynced)
	mux.HandleFunc("POST /api/offline/sync", h.sync)
	mux.HandleFunc("GET /api/offline/status", h.status)

	mux.HandleFunc("PUT /api/connectivity", h.setConnectivity)
}

type levelResponse struct {
	XP            int `json:"xp"`
	Level         int `json:"level"`
	Current       int `json:"current"`
	Needed        int `json:"needed"`
	NextLevelAtXP int `json:"nextLevelAtXP"`
}

func (h *APIHandler) levels(w http.ResponseWriter, r *http.Request) {
	xp, err := strconv.Atoi(r.URL.Query().Get("xp"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "xp must be an integer")
		return
	}
	progress := app.XPProgressFor(xp)
	writeJSON(w, http.StatusOK, levelResponse{
		XP:            xp,
		Level:         progress.Level,
		Current:       progress.Current,
		Needed:        progress.Needed,
		NextLevelAtXP: app.XPForNextLevel(progress.Level),
	})
}

type gameResultRequest struct {
	GameType   string `json:"gameType"`
	Score      int    `json:"score"`
	Difficulty string `json:"difficulty"`
	TimeBonus  bool   `json:"timeBonus"`
}

func (req gameResultRequest) result() (domain.GameResult, error) {
	gameType := domain.GameQuiz
	if req.GameType != "" {
		parsed, err := domain.ParseGameType(req.GameType)
		if err != nil {
			return domain.GameResult{}, err
		}
		gameType = parsed
	}
	difficulty := domain.DifficultyEasy
	if req.Difficulty != "" {
		parsed, err := domain.ParseDifficulty(req.Difficulty)
		if err != nil {
			return domain.GameResult{}, err
		}
		difficulty = parsed
	}
	return domain.GameResult{
		GameType:   gameType,
		Score:      req.Score,
		Difficulty: difficulty,
		TimeBonus:  req.TimeBonus,
	}, nil
}

func (h *APIHandler) rewards(w http.ResponseWriter, r *http.Request) {
	var req gameResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := req.result()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.AwardFor(result))
}

func (h *APIHandler) badges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.progression.Badges(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (h *APIHandler) achievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.progression.Achievements(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, achievements)
}

type recordGameRequest struct {
	Progress domain.UserProgress `json:"progress"`
	Result   gameResultRequest   `json:"result"`
}

func (h *APIHandler) recordGame(w http.ResponseWriter, r *http.Request) {
	var req recordGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := req.Result.result()
	if err != nil {
		writeAppError(w, err)
		return
	}
	outcome, err := h.progression.RecordGame(r.Context(), r.PathValue("userID"), req.Progress, result)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *APIHandler) cachedGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.offline.CachedGames(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *APIHandler) cacheGame(w http.ResponseWriter, r *http.Request) {
	var game domain.OfflineGame
	if !decodeJSON(w, r, &game) {
		return
	}
	if game.Difficulty != "" {
		d, err := domain.ParseDifficulty(string(game.Difficulty))
		if err != nil {
			writeAppError(w, err)
			return
		}
		game.Difficulty = d
	}
	if err := h.offline.CacheGame(r.Context(), game); err != nil {
		writeAppError(w, err)
		return
	}
	cached, err := h.offline.CachedGame(r.Context(), game.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	writeJSON(w, http.StatusCreated, cached)
}

func (h *APIHandler) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.offline.ClearCache(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) cachedGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.offline.CachedGame(r.Context(), r.PathValue("gameID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *APIHandler) downloadGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.offline.DownloadGame(r.Context(), r.PathValue("gameID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	writeJSON(w, http.StatusCreated, game)
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *APIHandler) compactCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.offline.ClearExpiredCache(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	writeJSON(w, http.StatusOK, countResponse{Count: removed})
}

func (h *APIHandler) offlineProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.offline.OfflineProgress(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type saveProgressRequest struct {
	GameID      string     `json:"gameId"`
	Score       int        `json:"score"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (h *APIHandler) saveProgress(w http.ResponseWriter, r *http.Request) {
	var req saveProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	progress := domain.OfflineProgress{GameID: req.GameID, Score: req.Score}
	if req.CompletedAt != nil {
		progress.CompletedAt = *req.CompletedAt
	}
	if err := h.offline.SaveOfflineProgress(r.Context(), progress); err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) unsyncedProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.offline.UnsyncedProgress(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *APIHandler) markSynced(w http.ResponseWriter, r *http.Request) {
	if err := h.offline.MarkProgressSynced(r.Context(), r.PathValue("gameID")); err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) sync(w http.ResponseWriter, r *http.Request) {
	if !h.offline.IsOnline() {
		writeAppError(w, domain.ErrOffline)
		return
	}
	synced, err := h.offline.SyncWhenOnline(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publish(r)
	writeJSON(w, http.StatusOK, countResponse{Count: synced})
}

func (h *APIHandler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.hub.Refresh(r.Context(), h.offline)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type connectivityRequest struct {
	Online *bool `json:"online"`
}

type connectivityResponse struct {
	Online  bool `json:"online"`
	Changed bool `json:"changed"`
}

func (h *APIHandler) setConnectivity(w http.ResponseWriter, r *http.Request) {
	var req connectivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Online == nil {
		writeError(w, http.StatusBadRequest, "online is required")
		return
	}
	changed := h.conn.Set(*req.Online)
	writeJSON(w, http.StatusOK, connectivityResponse{Online: h.conn.Online(), Changed: changed})
}

// publish pushes a fresh status snapshot to websocket subscribers after a mutation.
func (h *APIHandler) publish(r *http.Request) {
	if _, err := h.hub.Refresh(r.Context(), h.offline); err != nil {
		log.Printf("publish status: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeAppError(w http.ResponseWriter, err error) {
	var storageErr *domain.StorageError
	switch {
	case errors.Is(err, domain.ErrGameNotCached), errors.Is(err, domain.ErrGameNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInvalidGameType),
		errors.Is(err, domain.ErrMissingUser),
		errors.Is(err, domain.ErrMissingGameID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOffline):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &storageErr):
		log.Printf("storage failure: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
	default:
		log.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
