package handlers

import (
	"net/http"

	"github.com/medplanner/medplanner/services/clinic-api/internal/middleware"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
)

// Register wires every endpoint onto mux. Authenticated routes run behind
// RequireAuth backed by the same user store the handlers use.
func Register(
	mux *http.ServeMux,
	authH *AuthHandler,
	apptH *AppointmentHandler,
	docH *DoctorHandler,
	formH *FormHandler,
	auditH *AuditHandler,
	users storage.UserStore,
	secret string,
) {
	requireAuth := middleware.RequireAuth(users, secret)
	doctorOnly := middleware.RequireRole(model.RoleDoctor)

	mux.HandleFunc("POST /api/auth/register", authH.Register)
	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.Handle("GET /api/auth/verify", requireAuth(http.HandlerFunc(authH.Verify)))
	mux.Handle("POST /api/auth/logout", requireAuth(http.HandlerFunc(authH.Logout)))
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(authH.Me)))

	mux.Handle("POST /api/appointments", requireAuth(http.HandlerFunc(apptH.Create)))
	mux.Handle("GET /api/appointments", requireAuth(http.HandlerFunc(apptH.List)))
	mux.Handle("GET /api/appointments/{id}", requireAuth(http.HandlerFunc(apptH.Get)))
	mux.Handle("PUT /api/appointments/{id}", requireAuth(http.HandlerFunc(apptH.Update)))
	mux.Handle("DELETE /api/appointments/{id}", requireAuth(http.HandlerFunc(apptH.Delete)))

	mux.Handle("GET /api/doctors", requireAuth(http.HandlerFunc(docH.List)))
	mux.Handle("GET /api/doctors/{id}/slots", requireAuth(http.HandlerFunc(docH.Slots)))

	mux.Handle("GET /api/forms", requireAuth(http.HandlerFunc(formH.List)))
	mux.Handle("GET /api/questionnaire/{specialization}", requireAuth(http.HandlerFunc(formH.Questionnaire)))
	mux.Handle("POST /api/questionnaire/{specialization}/answers", requireAuth(http.HandlerFunc(formH.Score)))

	mux.Handle("GET /api/audit", requireAuth(doctorOnly(http.HandlerFunc(auditH.Recent))))
}
