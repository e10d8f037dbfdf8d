package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shivam1108-06/jalaram-sweet-shop/internal/model"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/database"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/jwtutil"
	"github.com/shivam1108-06/jalaram-sweet-shop/pkg/logger"
	"github.com/shivam1108-06/jalaram-sweet-shop/prometheus"
)

// RegisterRequest defines the structure for customer registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateRegistration(req *RegisterRequest) map[string][]string {
	fieldErrors := map[string][]string{}
	if !strings.Contains(req.Email, "@") {
		fieldErrors["email"] = []string{"a valid email address is required"}
	}
	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = []string{"name must not be empty"}
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = []string{"password must be at least 8 characters"}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

func createUser(c echo.Context, req *RegisterRequest, role model.Role) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     strings.TrimSpace(req.Name),
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := database.GetDB().WithContext(c.Request().Context()).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Register handles customer self-registration
func Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if fieldErrors := validateRegistration(&req); fieldErrors != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors)
	}

	defer prometheus.TrackDBOperation("create_user")(time.Now())

	user, err := createUser(c, &req, model.RoleCustomer)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("Email already registered", zap.String("email", req.Email))
			return c.JSON(http.StatusBadRequest, echo.Map{"email": []string{"a user with this email already exists"}})
		}
		log.Error("Failed to register user", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to register"})
	}

	log.Info("Customer registered",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and issues a JWT carrying the user's role
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	result := database.GetDB().WithContext(c.Request().Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.AuthErrorsCounter.Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.Name, user.ID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.AuthSuccessCounter.Inc()
	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

// CreateCashier handles an admin creating a cashier account
func CreateCashier(c echo.Context) error {
	log := logger.FromContext(c)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse cashier request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if fieldErrors := validateRegistration(&req); fieldErrors != nil {
		return c.JSON(http.StatusBadRequest, fieldErrors)
	}

	defer prometheus.TrackDBOperation("create_user")(time.Now())

	user, err := createUser(c, &req, model.RoleCashier)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("Email already registered", zap.String("email", req.Email))
			return c.JSON(http.StatusBadRequest, echo.Map{"email": []string{"a user with this email already exists"}})
		}
		log.Error("Failed to create cashier", zap.String("email", req.Email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create cashier"})
	}

	log.Info("Cashier created",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}
