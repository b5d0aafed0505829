package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	dbpkg "docqa/db"
	"docqa/models"
	"docqa/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthResponse never carries the password, only the token and the identity.
type AuthResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// POST /auth/signup
func Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email and password are required", http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(req.Email) {
		RespondError(c, "invalid email", http.StatusBadRequest)
		return
	}
	if tools.CheckPassword(req.Password, passwordMinLen()) != "" {
		RespondError(c, fmt.Sprintf("password must have at least %d characters", passwordMinLen()), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}

	var existing models.User
	err := db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		RespondError(c, "email already registered", http.StatusConflict)
		return
	}
	if !gorm.IsRecordNotFoundError(err) {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	user := models.User{Email: req.Email, Password: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		// A concurrent signup can slip past the lookup above and hit the
		// unique index on email instead.
		if isUniqueViolation(err) {
			RespondError(c, "email already registered", http.StatusConflict)
			return
		}
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	signed, err := issueToken(user)
	if err != nil {
		RespondError(c, "failed to sign token", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, AuthResponse{Token: signed, Email: user.Email})
}

// POST /auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email and password are required", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not set in context", http.StatusInternalServerError)
		return
	}

	// Same message for unknown email and wrong password.
	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		RespondError(c, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		RespondError(c, "invalid email or password", http.StatusUnauthorized)
		return
	}

	signed, err := issueToken(user)
	if err != nil {
		RespondError(c, "failed to sign token", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, AuthResponse{Token: signed, Email: user.Email})
}

func passwordMinLen() int {
	if conf.Security.PasswordMinLen > 0 {
		return conf.Security.PasswordMinLen
	}
	return 8
}

// isUniqueViolation matches the unique constraint errors of the sqlite3 and
// postgres drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func issueToken(user models.User) (string, error) {
	hours := getenvInt("TOKEN_VALID_HOURS", conf.Security.TokenHours)
	if hours <= 0 {
		hours = 24
	}
	return signHS256JWT(getJWTSecret(), map[string]any{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Duration(hours) * time.Hour).Unix(),
	})
}
