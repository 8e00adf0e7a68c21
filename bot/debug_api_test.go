package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchmaker/domain/entities"
	"matchmaker/domain/services"
	"matchmaker/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDebugHandler(t *testing.T) (http.Handler, *services.QueueRegistry) {
	t.Helper()
	rng := services.NewSeededRandomizer(3)
	votes := services.NewVoteCoordinator(rng, nil)
	queues := services.NewQueueRegistry(entities.DefaultQueueTypes(), nil)
	orchestrator := services.NewMatchOrchestrator(
		testhelpers.NewFakeTransport(), votes, services.NewTeamDraftEngine(rng, nil),
		testhelpers.NewInMemoryMatchRepository(), rng, nil, services.OrchestratorConfig{},
	)
	return newDebugHandler(queues, orchestrator, nil), queues
}

func TestDebugAPI_Health(t *testing.T) {
	handler, _ := newTestDebugHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDebugAPI_Queues(t *testing.T) {
	handler, queues := newTestDebugHandler(t)
	_, err := queues.ForGuild(77).Join(entities.QueueEntry{PlayerID: 1, DisplayName: "alice", QueueType: "3v3", JoinedAt: time.Unix(100, 0)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/queues", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool        `json:"success"`
		Data    []QueueInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(77), body.Data[0].GuildID)
	assert.Equal(t, 1, body.Data[0].Counts["3v3"])
	require.Len(t, body.Data[0].Waiting["3v3"], 1)
	assert.Equal(t, int64(1), body.Data[0].Waiting["3v3"][0].PlayerID)
}

func TestDebugAPI_Matches(t *testing.T) {
	handler, _ := newTestDebugHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/matches", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/matches?guild_id=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
