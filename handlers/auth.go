// handlers/auth.go - Registration, login and guest sessions
package handlers

import (
	"errors"
	"fmt"
	"os"
	"time"

	"prepclash/middleware"
	"prepclash/models"
	"prepclash/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	TargetExam  string `json:"target_exam"`
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Register creates a new account
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Username and password are required"})
	}
	if len(req.Password) < 8 {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Password must be at least 8 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create account"})
	}

	user := models.User{
		Username:    req.Username,
		Password:    string(hash),
		DisplayName: req.DisplayName,
		TargetExam:  req.TargetExam,
		CreatedAt:   time.Now(),
		LastLogin:   time.Now(),
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	if err := userStore.Create(c.Context(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.Status(409).JSON(AuthResponse{Success: false, Error: "Username already taken"})
		}
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create account"})
	}

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.Status(201).JSON(AuthResponse{Success: true, Token: token, User: &user})
}

// Login authenticates an existing account
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	user, err := userStore.GetByUsername(c.Context(), req.Username)
	if err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid username or password"})
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid username or password"})
	}

	user.LastLogin = time.Now()
	_ = userStore.Update(c.Context(), user)

	token, err := generateToken(*user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, User: user})
}

// GuestLogin creates a throwaway guest session
func GuestLogin(c *fiber.Ctx) error {
	guestName := fmt.Sprintf("Guest_%s", uuid.New().String()[:8])

	user := models.User{
		Username:  guestName,
		Password:  "",
		IsGuest:   true,
		CreatedAt: time.Now(),
		LastLogin: time.Now(),
	}

	if err := userStore.Create(c.Context(), &user); err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create guest account"})
	}

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, User: &user})
}

// GetCurrentUser returns the authenticated user's profile
func GetCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	user, err := userStore.GetByID(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}

func generateToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_guest": user.IsGuest,
		"exp":      time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
