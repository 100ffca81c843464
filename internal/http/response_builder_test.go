package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (Envelope, map[string]any) {
	t.Helper()
	var raw struct {
		Notification *Notification `json:"notification"`
		Data         any           `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	data, _ := raw.Data.(map[string]any)
	return Envelope{Notification: raw.Notification, Data: raw.Data}, data
}

func TestJSONResponseBuilder_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Data(map[string]int{"count": 3}).Write(rec)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	env, data := decodeEnvelope(t, rec)
	if env.Notification != nil {
		t.Errorf("unexpected notification %+v", env.Notification)
	}
	if data["count"] != float64(3) {
		t.Errorf("data = %v", data)
	}
}

func TestJSONResponseBuilder_NotifyReplaces(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Info("first").
		Success("Expense added successfully!").
		Header("X-Custom", "yes").
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "yes" {
		t.Error("custom header missing")
	}
	env, _ := decodeEnvelope(t, rec)
	if env.Notification == nil || env.Notification.Type != NotificationSuccess || env.Notification.Message != "Expense added successfully!" {
		t.Errorf("notification = %+v", env.Notification)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		notif   NotificationType
		message string
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest, NotificationError, "bad"},
		{"unprocessable", UnprocessableEntityError("nope"), http.StatusUnprocessableEntity, NotificationError, "nope"},
		{"internal", InternalServerError("oops"), http.StatusInternalServerError, NotificationError, "oops"},
		{"not found", NotFoundError("gone"), http.StatusNotFound, NotificationError, "gone"},
		{"conflict", ConflictWarning("empty"), http.StatusConflict, NotificationWarning, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.builder.Write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			env, _ := decodeEnvelope(t, rec)
			if env.Notification == nil || env.Notification.Type != tt.notif || env.Notification.Message != tt.message {
				t.Errorf("notification = %+v", env.Notification)
			}
			if env.Data != nil {
				t.Errorf("unexpected data %v", env.Data)
			}
		})
	}
}
