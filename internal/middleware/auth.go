package middleware

import (
	"net/http"
	"strings"

	"order-service/pkg/jwtutil"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the JWT token and stores the operator identity in
// the request context. The service only validates tokens; issuing them is
// another service's job.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		prometheus.AuthAttemptsCounter.Inc()

		tokenString := c.Request().Header.Get("Authorization")
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:7]) == "BEARER " {
			tokenString = tokenString[7:]
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		prometheus.AuthSuccessCounter.Inc()

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		if claims.Role != "" {
			c.Set("role", claims.Role)
		}

		log = log.With(
			zap.Uint("user_id", claims.UserID),
			zap.String("email", claims.Email),
		)
		c.Set("logger", log)

		return next(c)
	}
}
