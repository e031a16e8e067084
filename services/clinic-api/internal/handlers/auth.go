// Package handlers implements the clinic API's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medplanner/medplanner/libs/auth"
	"github.com/medplanner/medplanner/services/clinic-api/internal/audit"
	"github.com/medplanner/medplanner/services/clinic-api/internal/middleware"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/respond"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
	"github.com/medplanner/medplanner/services/clinic-api/internal/validate"
)

type AuthHandler struct {
	users    storage.UserStore
	audit    audit.Recorder
	logger   *slog.Logger
	secret   string
	tokenTTL time.Duration
}

func NewAuthHandler(users storage.UserStore, auditRepo audit.Recorder, logger *slog.Logger, secret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:    users,
		audit:    auditRepo,
		logger:   logger,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`

	// Patient fields.
	DateOfBirth    string   `json:"dateOfBirth"`
	Address        string   `json:"address"`
	MedicalHistory []string `json:"medicalHistory"`

	// Doctor fields.
	Specialization string                     `json:"specialization"`
	LicenseNumber  string                     `json:"licenseNumber"`
	Availability   []model.AvailabilityWindow `json:"availability"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if errs := validate.Registration(req.Email, req.Password, req.Name, req.Role, req.Phone); len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to process registration")
		return
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         model.Role(req.Role),
		Phone:        req.Phone,
		IsActive:     true,
	}
	switch user.Role {
	case model.RolePatient:
		p := &model.PatientProfile{Address: req.Address, MedicalHistory: req.MedicalHistory}
		if req.DateOfBirth != "" {
			d, err := validate.ParseDate(req.DateOfBirth)
			if err != nil {
				respond.ValidationFailed(w, []validate.FieldError{
					{Field: "dateOfBirth", Message: "Please provide a valid date", Value: req.DateOfBirth},
				})
				return
			}
			p.DateOfBirth = &d
		}
		user.Patient = p
	case model.RoleDoctor:
		user.Doctor = &model.DoctorProfile{
			Specialization: req.Specialization,
			LicenseNumber:  req.LicenseNumber,
			Availability:   normalizeWindows(req.Availability),
		}
	}

	ctx := r.Context()
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			respond.Error(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		h.logger.Error("create user", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := auth.Sign(user.ID, user.Email, string(user.Role), h.secret, h.tokenTTL)
	if err != nil {
		h.logger.Error("sign token", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	if err := h.audit.Record(ctx, "user.registered", user.ID, map[string]any{"email": user.Email, "role": user.Role}); err != nil {
		h.logger.Warn("audit record", "error", err)
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validate.Login(req.Email, req.Password); len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !verifyPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		respond.Error(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	token, err := auth.Sign(user.ID, user.Email, string(user.Role), h.secret, h.tokenTTL)
	if err != nil {
		h.logger.Error("sign token", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	if err := h.audit.Record(ctx, "user.login", user.ID, map[string]any{"email": user.Email}); err != nil {
		h.logger.Warn("audit record", "error", err)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Verify confirms the bearer token and echoes the account. Runs behind
// RequireAuth.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Invalid token.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout is stateless; tokens expire on their own. The endpoint exists so
// clients get a definitive confirmation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		if err := h.audit.Record(r.Context(), "user.logout", user.ID, nil); err != nil {
			h.logger.Warn("audit record", "error", err)
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the full profile of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Invalid token.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func normalizeWindows(windows []model.AvailabilityWindow) []model.AvailabilityWindow {
	for i := range windows {
		windows[i].StartTime = validate.NormalizeHHMM(windows[i].StartTime)
		windows[i].EndTime = validate.NormalizeHHMM(windows[i].EndTime)
	}
	return windows
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
