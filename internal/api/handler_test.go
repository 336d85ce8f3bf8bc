package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/model"
)

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := setupRouter(t, testHTTPConfig(), nil, false)

	w := do(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsMounted(t *testing.T) {
	h := NewHandler(newTestStore(t), nil, nil, nil)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("protoboard_device_counter 0\n"))
	})
	router := NewRouter(testHTTPConfig(), h, metrics, zap.NewNop().Sugar())

	w := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "protoboard_device_counter")
}

func TestPostCommand(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want int
	}{
		{name: "LED on", body: `{"tipo":"LED","detalle":"LED1","accion":"ON"}`, want: http.StatusCreated},
		{name: "Lowercase toggle", body: `{"tipo":"led","detalle":"led3","accion":"toggle"}`, want: http.StatusCreated},
		{name: "Counter reset", body: `{"tipo":"SYSTEM","detalle":"CONTADOR","accion":"RESET"}`, want: http.StatusCreated},
		{name: "Sensor LED", body: `{"tipo":"LED","detalle":"LED4","accion":"ON"}`, want: http.StatusBadRequest},
		{name: "Unknown action", body: `{"tipo":"LED","detalle":"LED1","accion":"BLINK"}`, want: http.StatusBadRequest},
		{name: "Missing fields", body: `{"tipo":"LED"}`, want: http.StatusBadRequest},
		{name: "Not JSON", body: `nope`, want: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, s := setupRouter(t, testHTTPConfig(), nil, false)

			w := do(router, http.MethodPost, "/api/commands", tc.body)
			assert.Equal(t, tc.want, w.Code)

			pending, err := s.PendingCommands(context.Background(), "")
			require.NoError(t, err)
			if tc.want == http.StatusCreated {
				require.Len(t, pending, 1)
				assert.Equal(t, strings.ToUpper(pending[0].Detail), pending[0].Detail)
			} else {
				assert.Empty(t, pending)
			}
		})
	}
}

func TestCommandQueueRoundTrip(t *testing.T) {
	router, _ := setupRouter(t, testHTTPConfig(), nil, false)

	w := do(router, http.MethodPost, "/api/commands", `{"tipo":"LED","detalle":"LED2","accion":"OFF","device_id":"esp32"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Command
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.False(t, created.Sent)

	w = do(router, http.MethodGet, "/api/device/commands?pending=true&device_id=esp32", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Commands []model.Command `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Commands, 1)
	assert.Equal(t, "LED2", listed.Commands[0].Detail)

	w = do(router, http.MethodPost, "/api/device/commands/"+strconv.FormatUint(uint64(created.ID), 10)+"/sent", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/commands?pending=true", "")
	assert.JSONEq(t, `{"commands":[]}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/commands", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Commands, 1)
	assert.True(t, listed.Commands[0].Sent)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/api/commands/99/sent", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/commands/abc/sent", "").Code)
}

func TestPostCounterWithoutPanel(t *testing.T) {
	router, s := setupRouter(t, testHTTPConfig(), nil, false)

	w := do(router, http.MethodPost, "/api/device/counter", `{"contador":12,"device_id":"esp32"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"contador":12}`, w.Body.String())

	events, err := s.RecentEvents(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, protoboard.RecordCounterChange, events[0].Type)
	assert.Equal(t, "12", events[0].Value)

	w = do(router, http.MethodGet, "/api/device/state?device_id=esp32", "")
	assert.JSONEq(t, `{"estado":{"CONTADOR":"12"}}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/device/counter", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/device/counter", `{"contador":-1}`).Code)
}

func TestPostCounterSyncsPanel(t *testing.T) {
	panel := newFakePanel()
	router, s := setupRouter(t, testHTTPConfig(), panel, false)

	w := do(router, http.MethodPost, "/api/device/counter", `{"contador":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []protoboard.Command{
		{Kind: protoboard.CommandSyncCounter, Counter: 5, Origin: protoboard.OriginDevice},
	}, panel.commands())

	events, err := s.RecentEvents(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPostLEDState(t *testing.T) {
	router, _ := setupRouter(t, testHTTPConfig(), nil, false)

	for _, body := range []string{`{"estado":"on"}`, `{"estado":1}`, `{"estado":true}`} {
		w := do(router, http.MethodPost, "/api/device/leds/2", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"ok":true,"detalle":"LED2","valor":"1"}`, w.Body.String())
	}

	w := do(router, http.MethodPost, "/api/device/leds/4", `{"estado":"off"}`)
	assert.JSONEq(t, `{"ok":true,"detalle":"LED4","valor":"0"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/device/leds/5", `{"estado":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/device/leds/1", `{"estado":"maybe"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/device/leds/1", `{}`).Code)

	w = do(router, http.MethodGet, "/api/device/state", "")
	assert.JSONEq(t, `{"estado":{"LED2":"1","LED4":"0"}}`, w.Body.String())
}

func TestGetState(t *testing.T) {
	router, _ := setupRouter(t, testHTTPConfig(), nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(router, http.MethodGet, "/api/state", "").Code)

	panel := newFakePanel()
	panel.snap.Connected = true
	panel.snap.State.Counter = 3
	router, _ = setupRouter(t, testHTTPConfig(), panel, false)

	w := do(router, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap protoboard.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Connected)
	assert.Equal(t, uint64(3), snap.State.Counter)

	// Served from cache within the TTL
	panel.snap.State.Counter = 4
	w = do(router, http.MethodGet, "/api/state", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, uint64(3), snap.State.Counter)
}

func TestGetEvents(t *testing.T) {
	router, s := setupRouter(t, testHTTPConfig(), nil, false)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, s.RecordEvent(ctx, protoboard.Record{
			Type: protoboard.RecordLedOn, Detail: "LED1", Origin: protoboard.OriginApp, Value: "1",
		}))
	}

	w := do(router, http.MethodGet, "/api/events", "")
	var body struct {
		Events []model.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Events, 5)

	w = do(router, http.MethodGet, "/api/events?limit=10", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Events, 7)
}

func TestExportFromEventLog(t *testing.T) {
	router, s := setupRouter(t, testHTTPConfig(), nil, false)
	ctx := context.Background()
	require.NoError(t, s.RecordEvent(ctx, protoboard.Record{
		Type: protoboard.RecordSensorBlocked, Detail: protoboard.DetailSensor, Origin: protoboard.OriginDevice, Value: "contador=1",
	}))

	w := do(router, http.MethodGet, "/api/export?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), ",4,SENSOR_BLOQUEADO:contador=1")

	id := w.Header().Get("X-Export-ID")
	require.NotEmpty(t, id)

	w = do(router, http.MethodGet, "/api/exports", "")
	assert.Contains(t, w.Body.String(), id)

	w = do(router, http.MethodGet, "/api/exports/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timestamp,led,event")

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/exports/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/export?format=doc", "").Code)
	assert.Equal(t, http.StatusNotImplemented, do(router, http.MethodGet, "/api/export?format=pdf", "").Code)
}

func TestExportPDFFromPanel(t *testing.T) {
	panel := newFakePanel()
	panel.snap.History = []protoboard.HistoryEntry{{Channel: 1, Label: "BTN"}}
	router, _ := setupRouter(t, testHTTPConfig(), panel, true)

	w := do(router, http.MethodGet, "/api/export?format=pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestBasicAuthProtectsAPI(t *testing.T) {
	cfg := testHTTPConfig()
	cfg.Auth = true
	router, s := setupRouter(t, cfg, nil, false)
	_, err := s.CreateUser(context.Background(), "ana", "pw", "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/commands", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader(`{"tipo":"LED","detalle":"LED1","accion":"ON"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("ana", "pw")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Command
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.UserID)

	// The board itself does not authenticate
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/device/counter", `{"contador":1}`).Code)
}

func TestToCommand(t *testing.T) {
	testCases := []struct {
		name    string
		in      model.Command
		want    protoboard.Command
		wantErr error
	}{
		{
			name: "LED on",
			in:   model.Command{Type: "LED", Detail: "LED1", Action: "ON"},
			want: protoboard.Command{Kind: protoboard.CommandLED, Index: 0, On: true, Origin: protoboard.OriginWeb},
		},
		{
			name: "LED off",
			in:   model.Command{Type: "LED", Detail: "LED3", Action: "OFF"},
			want: protoboard.Command{Kind: protoboard.CommandLED, Index: 2, Origin: protoboard.OriginWeb},
		},
		{
			name: "Toggle",
			in:   model.Command{Type: "led", Detail: "led2", Action: "toggle"},
			want: protoboard.Command{Kind: protoboard.CommandToggle, Index: 1, Origin: protoboard.OriginWeb},
		},
		{
			name: "Reset",
			in:   model.Command{Type: "SYSTEM", Detail: "CONTADOR", Action: "RESET"},
			want: protoboard.Command{Kind: protoboard.CommandResetCounter, Origin: protoboard.OriginWeb},
		},
		{name: "Sensor LED", in: model.Command{Type: "LED", Detail: "LED4", Action: "ON"}, wantErr: protoboard.ErrInvalidLED},
		{name: "LED zero", in: model.Command{Type: "LED", Detail: "LED0", Action: "ON"}, wantErr: protoboard.ErrInvalidLED},
		{name: "Bad detail", in: model.Command{Type: "LED", Detail: "LAMP1", Action: "ON"}, wantErr: ErrUnsupportedCommand},
		{name: "Motor", in: model.Command{Type: "MOTOR", Detail: "M1", Action: "ON"}, wantErr: ErrUnsupportedCommand},
		{name: "Status", in: model.Command{Type: "SYSTEM", Detail: "CONTADOR", Action: "STATUS"}, wantErr: ErrUnsupportedCommand},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToCommand(tc.in)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEventsToHistory(t *testing.T) {
	entries := EventsToHistory([]model.Event{
		{Type: protoboard.RecordCounterReset, Detail: protoboard.DetailCounter, Value: "0"},
		{Type: protoboard.RecordSensorFree, Detail: protoboard.DetailSensor, Value: "0"},
		{Type: protoboard.RecordLedOn, Detail: "LED3", Value: "1"},
	})

	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Channel)
	assert.Equal(t, "LED_ON:1", entries[0].Label)
	assert.Equal(t, 4, entries[1].Channel)
	assert.Equal(t, protoboard.ChannelSystem, entries[2].Channel)
}
