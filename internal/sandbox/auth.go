package sandbox

import (
	"errors"
	"strings"
	"time"

	"admingate/internal/adminapi"
	"admingate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "admingate-sandbox"
	tokenAudience = "admingate-console"
)

// IssueToken mints a bearer token for userID.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("sandbox jwt secret is empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// authRequired validates the bearer token and loads the acting admin.
// Customers are refused and accounts under an account-level control get the
// ACCOUNT_* codes the console signs out on.
func (s *Server) authRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return respondWithError(c, fiber.StatusUnauthorized, &models.AppError{Code: "UNAUTHORIZED", Message: "Authorization required"})
		}

		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return s.secret, nil
		}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
		if err != nil || !token.Valid {
			return respondWithError(c, fiber.StatusUnauthorized, &models.AppError{Code: "UNAUTHORIZED", Message: "Invalid or expired token"})
		}
		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok || claims.Subject == "" {
			return respondWithError(c, fiber.StatusUnauthorized, &models.AppError{Code: "UNAUTHORIZED", Message: "Invalid subject claim"})
		}

		ctx := c.UserContext()
		if err := s.expireControls(ctx, s.db, claims.Subject); err != nil {
			return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}

		var actor User
		done := s.dbMetrics.TrackQuery("select", "users")
		err = s.db.WithContext(ctx).Preload("Branch").First(&actor, "id = ?", claims.Subject).Error
		done()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return respondWithError(c, fiber.StatusUnauthorized, &models.AppError{Code: "UNAUTHORIZED", Message: "Unknown user"})
			}
			return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}

		switch models.AccountStatus(actor.Status) {
		case models.AccountStatusBanned:
			return respondWithCode(c, fiber.StatusForbidden, adminapi.CodeAccountBanned, "", "Your account is banned")
		case models.AccountStatusTerminated:
			return respondWithCode(c, fiber.StatusForbidden, adminapi.CodeAccountTerminated, "", "Your account has been terminated")
		case models.AccountStatusRestricted, models.AccountStatusSuspended:
			return respondWithCode(c, fiber.StatusForbidden, adminapi.CodeAccountRestricted, "", "Your account is restricted")
		}
		if models.Role(actor.Role) == models.RoleCustomer {
			return respondWithCode(c, fiber.StatusForbidden, "FORBIDDEN", "", "Admin access required")
		}

		c.Locals("actor", &actor)
		return c.Next()
	}
}
