package account

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicare/hms/internal/domain/identity"
	"github.com/medicare/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the credential endpoints. public carries no token
// middleware; protected requires a valid bearer token.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/patient/signup", h.SignupPatient)
	public.POST("/patient/login", h.LoginPatient)
	public.POST("/patient/forgot-password", h.ForgotPatientPassword)
	public.POST("/patient/verify-otp", h.VerifyPatientOTP)
	public.POST("/patient/reset-password", h.ResetPatientPassword)

	public.POST("/login", h.LoginUser)
	public.POST("/user/forgot-password", h.ForgotUserPassword)
	public.POST("/user/verify-otp", h.VerifyUserOTP)
	public.POST("/user/reset-password", h.ResetUserPassword)

	protected.GET("/profile", h.Profile)
	protected.PUT("/profile", h.UpdateProfile)
	protected.POST("/admin/create", h.CreateUser, auth.RequireRole(identity.RoleAdmin))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) SignupPatient(c echo.Context) error {
	var in SignupPatientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, _, err := h.svc.SignupPatient(c.Request().Context(), &in)
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, "Patient already exists")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"token":   token,
		"message": "Patient registered successfully",
	})
}

func (h *Handler) LoginPatient(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, p, err := h.svc.LoginPatient(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":   token,
		"patient": p,
	})
}

func (h *Handler) LoginUser(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, u, err := h.svc.LoginUser(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var in CreateUserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	u, err := h.svc.CreateUser(c.Request().Context(), &in)
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, u)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) ForgotPatientPassword(c echo.Context) error {
	return h.forgotPassword(c, h.svc.ForgotPatientPassword)
}

func (h *Handler) ForgotUserPassword(c echo.Context) error {
	return h.forgotPassword(c, h.svc.ForgotUserPassword)
}

func (h *Handler) forgotPassword(c echo.Context, forgot func(ctx context.Context, email string) (string, error)) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	hash, err := forgot(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Email not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "OTP sent successfully",
		"hash":    hash,
	})
}

type verifyOTPRequest struct {
	Hash string `json:"hash"`
	OTP  string `json:"otp"`
}

func (h *Handler) VerifyPatientOTP(c echo.Context) error {
	return h.verifyOTP(c, h.svc.VerifyPatientOTP)
}

func (h *Handler) VerifyUserOTP(c echo.Context) error {
	return h.verifyOTP(c, h.svc.VerifyUserOTP)
}

func (h *Handler) verifyOTP(c echo.Context, verify func(ctx context.Context, hash, otp string) error) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Hash == "" || req.OTP == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "hash and otp are required")
	}

	if err := verify(c.Request().Context(), req.Hash, req.OTP); err != nil {
		if errors.Is(err, auth.ErrInvalidOTP) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid OTP")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "OTP verified successfully",
		"randomDigit": randomDigit(),
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ResetPatientPassword(c echo.Context) error {
	return h.resetPassword(c, h.svc.ResetPatientPassword)
}

func (h *Handler) ResetUserPassword(c echo.Context) error {
	return h.resetPassword(c, h.svc.ResetUserPassword)
}

func (h *Handler) resetPassword(c echo.Context, reset func(ctx context.Context, email, newPassword string) error) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and newPassword are required")
	}

	if err := reset(c.Request().Context(), req.Email, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Email not found")
		case errors.Is(err, ErrChallengeRequired):
			return echo.NewHTTPError(http.StatusBadRequest, "OTP verification required")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password reset successfully",
	})
}

// Profile returns the caller's own account, dispatched on the role claim.
func (h *Handler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := auth.AccountIDFromContext(ctx)

	if auth.RoleFromContext(ctx) == identity.RolePatient {
		p, err := h.svc.PatientProfile(ctx, accountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		return c.JSON(http.StatusOK, p)
	}

	u, err := h.svc.UserProfile(ctx, accountID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Account not found")
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateProfile lets a patient update their own record. Staff accounts are
// managed through the admin endpoints.
func (h *Handler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != identity.RolePatient {
		return echo.NewHTTPError(http.StatusForbidden, "profile updates are limited to patient accounts")
	}

	var in UpdatePatientProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.UpdatePatientProfile(ctx, auth.AccountIDFromContext(ctx), &in)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

// randomDigit returns a random four-digit confirmation number echoed back
// after a successful OTP verification.
func randomDigit() int {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return 1000
	}
	return int(n.Int64()) + 1000
}
