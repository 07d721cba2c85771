package transcription

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"bitbucket.org/airenas/speechjobs/internal/app/transcription/api"
	"bitbucket.org/airenas/speechjobs/internal/pkg/cmdapp"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

//WsConn is the websocket connection used by the hub
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

type heldResult struct {
	res   *api.Result
	added time.Time
}

//Hub delivers results to websocket subscribers. A result arriving before its subscriber
// is held for keep duration.
type Hub struct {
	lock   sync.Mutex
	idConn map[string]WsConn
	connID map[WsConn]string
	held   map[string]*heldResult
	keep   time.Duration
	now    func() time.Time
}

//NewHub creates hub
func NewHub(keep time.Duration) *Hub {
	return &Hub{idConn: make(map[string]WsConn), connID: make(map[WsConn]string),
		held: make(map[string]*heldResult), keep: keep, now: time.Now}
}

//Send writes the result to the subscriber of the job or holds it
func (h *Hub) Send(res *api.Result) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.dropExpired()
	conn, found := h.idConn[res.ID]
	if !found {
		cmdapp.Log.Infof("No subscriber for %s, holding result", res.ID)
		h.held[res.ID] = &heldResult{res: res, added: h.now()}
		return nil
	}
	if err := conn.WriteJSON(res); err != nil {
		h.held[res.ID] = &heldResult{res: res, added: h.now()}
		return errors.Wrap(err, "Cannot write to websocket: "+res.ID)
	}
	return nil
}

//Held returns count of undelivered results
func (h *Hub) Held() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.held)
}

func (h *Hub) subscribe(conn WsConn, id string) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.dropExpired()
	if idOld, found := h.connID[conn]; found {
		delete(h.idConn, idOld)
	}
	h.connID[conn] = id
	h.idConn[id] = conn
	cmdapp.Log.Infof("Subscribed %s, connections: %d", id, len(h.connID))
	if hr, found := h.held[id]; found {
		delete(h.held, id)
		if err := conn.WriteJSON(hr.res); err != nil {
			h.held[id] = hr
			return errors.Wrap(err, "Cannot write to websocket: "+id)
		}
	}
	return nil
}

func (h *Hub) unsubscribe(conn WsConn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	defer conn.Close()
	if id, found := h.connID[conn]; found && h.idConn[id] == conn {
		delete(h.idConn, id)
	}
	delete(h.connID, conn)
	cmdapp.Log.Debugf("Unsubscribed, connections: %d", len(h.connID))
}

func (h *Hub) dropExpired() {
	exp := h.now().Add(-h.keep)
	for k, v := range h.held {
		if v.added.Before(exp) {
			cmdapp.Log.Warnf("Dropping undelivered result %s", k)
			delete(h.held, k)
		}
	}
}

func (h *Hub) handleConnection(conn WsConn) {
	defer h.unsubscribe(conn)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			cmdapp.Log.Debug(err)
			return
		}
		id := strings.TrimSpace(string(message))
		if id == "" {
			continue
		}
		if err := h.subscribe(conn, id); err != nil {
			cmdapp.Log.Error(err)
			return
		}
	}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

type websocketHandler struct {
	hub *Hub
}

func (h websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("ws request from %s", r.Host)
	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can not init ws connection"))
		return
	}
	go h.hub.handleConnection(c)
}
