package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/ctxutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(baseLog *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         baseLog.With("middleware", "AuthMiddleware"),
		authService: authService,
	}
}

// RequireAuth verifies the bearer token and attaches the caller to the
// request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.RespondError(c, 401, apierr.CodeUnauthorized, fmt.Errorf("missing bearer token"))
			c.Abort()
			return
		}
		user, err := am.authService.VerifyAccessToken(dbctx.Context{Ctx: c.Request.Context()}, tokenString)
		if err != nil {
			ae := apierr.From(err)
			response.RespondError(c, ae.Status, ae.Code, ae)
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:      user.ID,
			Role:        string(user.Role),
			CanDownload: user.CanDownload,
			ClientIP:    c.ClientIP(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("current_user", user)
		c.Next()
	}
}

// RequireRole gates a route group to specific roles. Mount after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.RespondError(c, 401, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		response.RespondError(c, 403, apierr.CodeForbidden, fmt.Errorf("role %s is not allowed here", user.Role))
		c.Abort()
	}
}

// CurrentUser returns the authenticated caller, or nil outside RequireAuth.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get("current_user")
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
