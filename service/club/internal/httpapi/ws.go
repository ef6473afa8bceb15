package httpapi

import (
	"context"
	"sync"
	"time"

	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/roster"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 10
)

// Frame in uscita verso il client.
type snapshotFrame[T any] struct {
	Type    string `json:"type"`
	View    string `json:"view"`
	Version uint64 `json:"version"`
	Items   []T    `json:"items"`
}

type noticeFrame struct {
	Type   string        `json:"type"`
	Notice roster.Notice `json:"notice"`
}

// inFrame e' un'azione inviata dal client.
type inFrame struct {
	Type     string `json:"type"`
	ClubID   string `json:"club_id,omitempty"`
	MemberID string `json:"member_id,omitempty"`
	Content  string `json:"content,omitempty"`
	Query    string `json:"query,omitempty"`
}

// actionFunc gestisce un frame; nil significa nessuna notice da inviare.
type actionFunc func(ctx context.Context, in inFrame) *roster.Notice

func (h *Handler) exploreSocket(c *gin.Context) {
	user := currentUser(c)
	search := &club.Search{}
	search.Set(c.Query("q"))
	view := club.NewExploreView(h.clubs, h.feed, search, h.viewOptions()...)

	serveLive(h, c, view, func(ctx context.Context, in inFrame) *roster.Notice {
		switch in.Type {
		case "search":
			search.Set(in.Query)
			view.Refresh()
			return nil
		case "join":
			if user.Role != club.RoleRunner {
				return &roster.Notice{Level: roster.NoticeError, Message: "Only runners can join clubs."}
			}
			clubID, err := uuid.Parse(in.ClubID)
			if err != nil {
				return invalidFrame()
			}
			notice := h.clubs.JoinClub(ctx, view, clubID, user.ID)
			return &notice
		}
		return invalidFrame()
	})
}

func (h *Handler) membersSocket(c *gin.Context) {
	user := currentUser(c)
	view := club.NewMembersView(h.clubs, h.feed, user.ID, h.viewOptions()...)

	serveLive(h, c, view, func(ctx context.Context, in inFrame) *roster.Notice {
		if in.Type != "remove_member" {
			return invalidFrame()
		}
		clubID, err := uuid.Parse(in.ClubID)
		if err != nil {
			return invalidFrame()
		}
		memberID, err := uuid.Parse(in.MemberID)
		if err != nil {
			return invalidFrame()
		}
		notice := h.clubs.RemoveMember(ctx, view, user.ID, clubID, memberID)
		return &notice
	})
}

func (h *Handler) dashboardSocket(c *gin.Context) {
	if !requireRole(c, club.RoleLeader) {
		return
	}
	user := currentUser(c)
	view := club.NewDashboardView(h.clubs, h.feed, user.ID, h.viewOptions()...)

	serveLive(h, c, view, func(ctx context.Context, in inFrame) *roster.Notice {
		if in.Type != "create_post" {
			return invalidFrame()
		}
		clubID, err := uuid.Parse(in.ClubID)
		if err != nil {
			return invalidFrame()
		}
		notice := h.clubs.CreatePost(ctx, view, clubID, user.ID, in.Content)
		return &notice
	})
}

func (h *Handler) viewOptions() []roster.Option {
	return []roster.Option{roster.WithReconcileDelay(h.delay), roster.WithLogger(h.logger)}
}

func invalidFrame() *roster.Notice {
	return &roster.Notice{Level: roster.NoticeError, Message: "Invalid request."}
}

// serveLive lega la vita della view alla connessione websocket:
// mount dopo l'upgrade, unmount su ogni uscita.
// Un goroutine scrive (snapshot, notice, ping); il goroutine della richiesta legge le azioni.
func serveLive[T any](h *Handler, c *gin.Context, view *roster.View[T], handle actionFunc) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade websocket fallito", "view", view.Name(), "error", err)
		return
	}
	defer conn.Close()

	handleCtx, handleCancel := context.WithCancel(c.Request.Context())
	defer handleCancel()

	// dirty coalesce le modifiche: il writer invia sempre l'ultimo snapshot.
	dirty := make(chan struct{}, 1)
	out := make(chan any, 16)
	stopWatch := view.Store().Watch(func(uint64) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	defer stopWatch()

	if err := view.Mount(handleCtx); err != nil {
		h.logger.Warn("mount view fallito", "view", view.Name(), "error", err)
		if !view.Mounted() {
			writeClose(conn, websocket.CloseInternalServerErr, roster.MessageRetry)
			return
		}
		out <- noticeFrame{Type: "notice", Notice: roster.Notice{Level: roster.NoticeError, Message: roster.MessageRetry}}
	}
	defer view.Unmount()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer handleCancel()
		// sblocca la ReadJSON del reader
		defer conn.Close()

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			var frame any
			select {
			case <-handleCtx.Done():
				return
			case <-dirty:
				items, version := view.Store().VersionedSnapshot()
				frame = snapshotFrame[T]{Type: "snapshot", View: view.Name(), Version: version, Items: items}
			case frame = <-out:
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debug("scrittura websocket fallita", "view", view.Name(), "error", err)
				return
			}
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("lettura websocket fallita", "view", view.Name(), "error", err)
			}
			break
		}

		notice := handle(handleCtx, in)
		if notice == nil {
			continue
		}
		select {
		case out <- noticeFrame{Type: "notice", Notice: *notice}:
		case <-handleCtx.Done():
		}
	}

	handleCancel()
	wg.Wait()
}

func writeClose(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}
