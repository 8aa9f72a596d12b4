package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yksanjo/roblox-world-generator/internal/jobs"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleStream pushes job snapshots over a websocket until the job
// finishes or the client goes away.
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")

	updates, cancel, err := s.jobs.Subscribe(id)
	if errors.Is(err, jobs.ErrNotFound) {
		// Jobs from an earlier run only exist in the index.
		j, gerr := s.jobs.Get(c.Request.Context(), id)
		if gerr != nil {
			s.jobError(c, gerr)
			return
		}
		ch := make(chan jobs.Job, 1)
		ch <- j
		close(ch)
		updates, cancel, err = ch, func() {}, nil
	}
	if err != nil {
		s.jobError(c, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Printf("stream %s: upgrade: %v", id, err)
		return
	}
	defer conn.Close()

	// Drain client frames so close and ping control messages are handled.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case j, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(j); err != nil {
				return
			}
		}
	}
}
