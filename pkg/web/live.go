package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ohler55/ojg/oj"

	"github.com/trialslog/trial-score-manager-go/log"
	"github.com/trialslog/trial-score-manager-go/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// handleLive streams recomputed standings to spectator displays. Every
// ledger change produces one message containing all class leaderboards.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.standings == nil {
		http.Error(w, "live standings not enabled", http.StatusServiceUnavailable)
		return
	}
	clientVersion := r.URL.Query().Get("clientVersion")
	if !utils.CheckDisplayVersion(clientVersion, s.minClientVersion) {
		s.respondJSON(w, http.StatusUpgradeRequired, errorResponse{
			Reason:  "clientOutdated",
			Message: "client version " + clientVersion + " not supported",
		})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("could not upgrade to websocket", log.ErrorField(err))
		return
	}
	defer conn.Close()
	s.logger.Debug("live client connected",
		log.String("remote", r.RemoteAddr),
		log.String("clientVersion", clientVersion))

	updates := s.standings.Subscribe()
	defer s.standings.CancelSubscription(updates)

	// the read side only detects the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if boards, err := s.score.GetStandings(r.Context()); err != nil {
		s.logger.Error("initial standings snapshot failed", log.ErrorField(err))
	} else if !s.writeBoards(conn, boards) {
		return
	}

	for {
		select {
		case <-done:
			s.logger.Debug("live client disconnected",
				log.String("remote", r.RemoteAddr))
			return
		case boards, ok := <-updates:
			if !ok {
				return
			}
			if !s.writeBoards(conn, boards) {
				return
			}
		}
	}
}

func (s *Server) writeBoards(conn *websocket.Conn, boards any) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := conn.WriteMessage(
		websocket.TextMessage, []byte(oj.JSON(boards))); err != nil {
		s.logger.Debug("live write failed", log.ErrorField(err))
		return false
	}
	return true
}
