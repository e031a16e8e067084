package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medplanner/medplanner/libs/auth"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

const testSecret = "test-secret"

type testEnv struct {
	mux   *http.ServeMux
	users *memUsers
	appts *memAppointments
	forms *memForms
	audit *memAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		mux:   http.NewServeMux(),
		users: newMemUsers(),
		appts: newMemAppointments(),
		forms: &memForms{},
		audit: &memAudit{},
	}
	logger := testLogger()
	Register(env.mux,
		NewAuthHandler(env.users, env.audit, logger, testSecret, time.Hour),
		NewAppointmentHandler(env.appts, env.users, env.audit, logger),
		NewDoctorHandler(env.users, env.appts, logger),
		NewFormHandler(env.forms, logger),
		NewAuditHandler(env.audit, logger),
		env.users, testSecret)
	return env
}

// addUser seeds a user directly into the store and returns it with a valid
// bearer token.
func (env *testEnv) addUser(t *testing.T, name, email string, role model.Role, profileOf func(*model.User)) (*model.User, string) {
	t.Helper()
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$10$unused",
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	if profileOf != nil {
		profileOf(u)
	}
	if err := env.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := auth.Sign(u.ID, u.Email, string(u.Role), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return u, token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}
