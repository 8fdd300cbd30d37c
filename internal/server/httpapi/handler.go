package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/dmitrijs2005/hireloop/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Role  string `json:"role"`
}

type resendOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type verify2FARequest struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	OTP        string `json:"otp"`
	BackupCode string `json:"backupCode"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *HTTPServer) registerRoutes(r gin.IRouter) {
	api := r.Group(common.APIBasePath)

	api.POST("/register", s.register)
	api.POST("/verify-otp", s.verifyOTP)
	api.POST("/resend-otp", s.resendOTP)
	api.POST("/signin", s.signIn)
	api.POST("/verify-2fa", s.verify2FA)
	api.POST("/complete-onboarding", s.completeOnboarding)

	authed := api.Group("", s.requireAuth())
	authed.POST("/enable-2fa", s.enable2FA)
	authed.POST("/verify-2fa-setup", s.verify2FASetup)
	authed.POST("/disable-2fa", s.disable2FA)
	authed.POST("/delete-account", s.deleteAccount)
	authed.GET("/me", s.me)
	authed.PUT("/change-password", s.changePassword)
}

// bind decodes the JSON body into v and answers 400 when it cannot.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, failure(msgBadRequest))
		return false
	}
	return true
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}

	in := services.RegisterInput{Email: req.Email, Password: req.Password, FullName: req.FullName, Role: req.Role}
	if err := s.auth.Register(c.Request.Context(), in); err != nil {
		s.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, success("Registration successful. Check your email for the verification code."))
}

func (s *HTTPServer) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bind(c, &req) {
		return
	}

	res, err := s.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP, req.Role)
	if err != nil {
		s.fail(c, "verify otp", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Email verified", Data: toAuthPayload(res)})
}

func (s *HTTPServer) resendOTP(c *gin.Context) {
	var req resendOTPRequest
	if !bind(c, &req) {
		return
	}

	if err := s.auth.ResendOTP(c.Request.Context(), req.Email, req.Purpose); err != nil {
		s.fail(c, "resend otp", err)
		return
	}
	c.JSON(http.StatusOK, success("If the account exists, a new code has been sent"))
}

func (s *HTTPServer) signIn(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}

	res, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		s.fail(c, "sign in", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Signed in", Data: toAuthPayload(res)})
}

func (s *HTTPServer) verify2FA(c *gin.Context) {
	var req verify2FARequest
	if !bind(c, &req) {
		return
	}

	in := services.SecondFactorInput{Email: req.Email, Role: req.Role, Code: req.OTP, BackupCode: req.BackupCode}
	res, err := s.auth.VerifySecondFactor(c.Request.Context(), in)
	if err != nil {
		s.fail(c, "verify 2fa", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Signed in", Data: toAuthPayload(res)})
}

func (s *HTTPServer) completeOnboarding(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}

	if err := s.auth.CompleteOnboarding(c.Request.Context(), req.Email, req.Password); err != nil {
		s.fail(c, "complete onboarding", err)
		return
	}
	c.JSON(http.StatusOK, success("Onboarding completed"))
}

func (s *HTTPServer) enable2FA(c *gin.Context) {
	if err := s.auth.EnableSecondFactor(c.Request.Context(), c.GetString(userIDKey)); err != nil {
		s.fail(c, "enable 2fa", err)
		return
	}
	c.JSON(http.StatusOK, success("Verification code sent"))
}

func (s *HTTPServer) verify2FASetup(c *gin.Context) {
	var req otpRequest
	if !bind(c, &req) {
		return
	}

	codes, err := s.auth.ConfirmSecondFactor(c.Request.Context(), c.GetString(userIDKey), req.OTP)
	if err != nil {
		s.fail(c, "verify 2fa setup", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Two-factor authentication enabled", BackupCodes: codes})
}

func (s *HTTPServer) disable2FA(c *gin.Context) {
	if err := s.auth.DisableSecondFactor(c.Request.Context(), c.GetString(userIDKey)); err != nil {
		s.fail(c, "disable 2fa", err)
		return
	}
	c.JSON(http.StatusOK, success("Two-factor authentication disabled"))
}

func (s *HTTPServer) deleteAccount(c *gin.Context) {
	var req passwordRequest
	if !bind(c, &req) {
		return
	}

	if err := s.auth.DeleteAccount(c.Request.Context(), c.GetString(userIDKey), req.Password); err != nil {
		s.fail(c, "delete account", err)
		return
	}
	c.JSON(http.StatusOK, success("Account deleted"))
}

func (s *HTTPServer) me(c *gin.Context) {
	u, err := s.auth.Me(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "me", err)
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: toIdentity(u)})
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}

	if err := s.auth.ChangePassword(c.Request.Context(), c.GetString(userIDKey), req.OldPassword, req.NewPassword); err != nil {
		s.fail(c, "change password", err)
		return
	}
	c.JSON(http.StatusOK, success("Password changed"))
}
