package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/models"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/session"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/utils"
	"github.com/Windi-Fikriyansyah/giglink_be/internal/workflow"
)

const refreshCookie = "jwt"

type AuthHandler struct {
	Users          *marketplace.UserService
	Sessions       session.Store
	AccessSecret   string
	RefreshSecret  string
	AccessExpires  int // minutes
	RefreshExpires int // minutes
	CookieSecure   bool
}

func (h *AuthHandler) Routes(r fiber.Router) {
	g := r.Group("/auth")
	g.Post("/signup", h.Signup)
	g.Post("/login", h.Login)
	g.Post("/logout", h.Logout)
	g.Get("/refresh", h.Refresh)
}

type SignupReq struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"` // Client / Freelancer, Admin is never public
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	errs := FieldErrors{}
	if username == "" {
		errs.Add("username", "Username is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	if email != "" && !strings.Contains(email, "@") {
		errs.Add("email", "Invalid email format")
	}
	role := models.Role(strings.TrimSpace(req.Role))
	if role != models.RoleClient && role != models.RoleFreelancer {
		errs.Add("role", "Role must be Client or Freelancer")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	u, err := h.Users.Signup(c.UserContext(), marketplace.UserInput{
		Username:  username,
		Password:  password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Role:      role,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Signup successful",
		"data":    fiber.Map{"user": u},
	})
}

type LoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if username == "" {
		errs.Add("username", "Username is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	u, err := h.Users.GetByUsername(c.UserContext(), username)
	if err != nil && !errors.Is(err, workflow.ErrNotFound) {
		return fail(c, err)
	}
	if u == nil || !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid username or password",
		})
	}
	if !u.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Account is inactive",
		})
	}

	accessToken, err := h.startSession(c, u)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Login successful",
		"accessToken": accessToken,
		"data":        fiber.Map{"user": u},
	})
}

// startSession registers a refresh session, sets its cookie and returns a
// fresh access token.
func (h *AuthHandler) startSession(c *fiber.Ctx, u *models.User) (string, error) {
	refreshToken, sessionID, err := utils.SignRefreshJWT(h.RefreshSecret, u.ID.String(), h.RefreshExpires)
	if err != nil {
		return "", err
	}
	ttl := time.Duration(h.RefreshExpires) * time.Minute
	if err := h.Sessions.Save(c.UserContext(), sessionID, u.ID.String(), ttl); err != nil {
		return "", err
	}

	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    refreshToken,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.CookieSecure,
		SameSite: "Lax",
		MaxAge:   h.RefreshExpires * 60,
	})

	return utils.SignJWT(h.AccessSecret, u.ID.String(), u.Username, string(u.Role), h.AccessExpires)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	tokenStr := c.Cookies(refreshCookie)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	forbidden := func() error {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Forbidden",
		})
	}

	claims, err := utils.ParseJWT(h.RefreshSecret, tokenStr)
	if err != nil || claims.ID == "" {
		return forbidden()
	}
	owner, err := h.Sessions.UserID(c.UserContext(), claims.ID)
	if err != nil {
		return fail(c, err)
	}
	if owner == "" || owner != claims.UserID {
		return forbidden()
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return forbidden()
	}
	u, err := h.Users.Get(c.UserContext(), uid)
	if err != nil || !u.IsActive {
		return forbidden()
	}

	accessToken, err := utils.SignJWT(h.AccessSecret, u.ID.String(), u.Username, string(u.Role), h.AccessExpires)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenStr := c.Cookies(refreshCookie)
	if tokenStr == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if claims, err := utils.ParseJWT(h.RefreshSecret, tokenStr); err == nil && claims.ID != "" {
		if err := h.Sessions.Revoke(c.UserContext(), claims.ID); err != nil {
			return fail(c, err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.CookieSecure,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout successful",
	})
}
