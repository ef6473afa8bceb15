package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"RunClubHub/pkg/reqctx"
	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// signInPath e' la pagina a cui mandare l'utente senza sessione.
const signInPath = "/auth/sign-in"

const ctxTokenKey = "token"

// requireAuth valida il token e mette utente e ruolo nel context.
// Il websocket del browser non puo' impostare header: accetta anche ?access_token=.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("access_token")
		}

		user, err := h.identity.GetUser(c.Request.Context(), token)
		if err != nil {
			if !isAuthError(err) {
				h.logger.Error("verifica sessione fallita", "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "redirect": signInPath})
			return
		}

		c.Set(ctxTokenKey, token)
		ctx := reqctx.WithUser(c.Request.Context(), user.ID, string(user.Role))
		c.Request = c.Request.WithContext(reqctx.WithEmail(ctx, user.Email))
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func isAuthError(err error) bool {
	return errors.Is(err, identity.ErrUnauthenticated) || errors.Is(err, identity.ErrNoSession)
}

// currentUser ricostruisce l'utente dal context della richiesta, riempito da requireAuth.
func currentUser(c *gin.Context) identity.User {
	ctx := c.Request.Context()
	id, _ := reqctx.UserID(ctx)
	return identity.User{ID: id, Email: reqctx.Email(ctx), Role: club.Role(reqctx.Role(ctx))}
}

// requireRole risponde 403 se l'utente non ha il ruolo richiesto.
func requireRole(c *gin.Context, role club.Role) bool {
	if club.Role(reqctx.Role(c.Request.Context())) != role {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}

// paramUUID legge un path param UUID; in caso di errore risponde 400.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
