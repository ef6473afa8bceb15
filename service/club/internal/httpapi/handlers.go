package httpapi

import (
	"errors"
	"net/http"

	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/identity"
	"RunClubHub/service/club/internal/roster"
	"github.com/gin-gonic/gin"
)

// Testo mostrato quando un leader free prova a creare un secondo club.
const freePlanMessage = "Free plan leaders can only create one club. Upgrade to Pro to create more."

// Testo per una richiesta ripetuta mentre la prima e' ancora in corso.
const msgInProgress = "Your request is already being processed."

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type postRequest struct {
	Content string `json:"content"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req identity.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.identity.SignUp(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, err := h.identity.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "redirect": identity.RedirectFor(session.User.Role)})
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.identity.SignOut(c.Request.Context(), c.GetString(ctxTokenKey)); err != nil && !isAuthError(err) {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": signInPath})
}

func (h *Handler) me(c *gin.Context) {
	user := currentUser(c)
	profile, err := h.clubs.Profile(c.Request.Context(), user.ID)
	if err != nil && !errors.Is(err, club.ErrProfileNotFound) {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

func (h *Handler) listClubs(c *gin.Context) {
	clubs, err := h.clubs.ExploreClubs(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clubs": clubs})
}

func (h *Handler) createClub(c *gin.Context) {
	var req club.NewClub
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.clubs.CreateClub(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) joinClub(c *gin.Context) {
	if !requireRole(c, club.RoleRunner) {
		return
	}
	clubID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	notice := h.clubs.JoinClub(c.Request.Context(), nil, clubID, currentUser(c).ID)
	writeNotice(c, notice)
}

func (h *Handler) removeMember(c *gin.Context) {
	if !requireRole(c, club.RoleLeader) {
		return
	}
	clubID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	memberID, ok := paramUUID(c, "memberId")
	if !ok {
		return
	}

	notice := h.clubs.RemoveMember(c.Request.Context(), nil, currentUser(c).ID, clubID, memberID)
	writeNotice(c, notice)
}

func (h *Handler) createPost(c *gin.Context) {
	if !requireRole(c, club.RoleLeader) {
		return
	}
	clubID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	notice := h.clubs.CreatePost(c.Request.Context(), nil, clubID, currentUser(c).ID, req.Content)
	writeNotice(c, notice)
}

func (h *Handler) members(c *gin.Context) {
	rosters, err := h.clubs.MemberRosters(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clubs": rosters})
}

func (h *Handler) dashboard(c *gin.Context) {
	if !requireRole(c, club.RoleLeader) {
		return
	}
	clubs, err := h.clubs.LeaderDashboard(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clubs": clubs})
}

func (h *Handler) posts(c *gin.Context) {
	posts, err := h.clubs.Posts(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// writeNotice risponde con l'esito di un'azione; l'errore usa 502 perche' viene dal data service.
func writeNotice(c *gin.Context, notice roster.Notice) {
	status := http.StatusOK
	if notice.Level == roster.NoticeError {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"notice": notice})
}

// writeError mappa gli errori di dominio sugli status HTTP.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case isAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "redirect": signInPath})
	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, identity.ErrInvalidArgument), errors.Is(err, club.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, identity.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, club.ErrActionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": msgInProgress})
	case errors.Is(err, club.ErrFreePlanLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": freePlanMessage})
	case errors.Is(err, club.ErrForbidden), errors.Is(err, club.ErrProfileNotFound):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, club.ErrClubNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("errore interno", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": roster.MessageRetry})
	}
}
