package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
)

// WebSocketServer streams AggregatedPrice updates to subscribed clients
// over the supplemental `/ws/prices` surface, complementing the polling
// REST API with real-time delivery.
type WebSocketServer struct {
	addr     string
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]bool

	updates chan map[string]domain.AggregatedPrice

	ctx    context.Context
	cancel context.CancelFunc
}

type wsClient struct {
	conn          *websocket.Conn
	send          chan []byte
	server        *WebSocketServer
	mu            sync.RWMutex
	subscribedAll bool
	subscribed    map[string]bool
}

type wsClientMessage struct {
	Type   string   `json:"type"` // "subscribe", "unsubscribe", "ping"
	Assets []string `json:"assets"`
}

type priceUpdateMessage struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Prices    map[string]interface{} `json:"prices"`
}

// NewWebSocketServer builds a streaming server bound to addr.
func NewWebSocketServer(addr string, logger *logging.Logger) *WebSocketServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketServer{
		addr:   addr,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]bool),
		updates: make(chan map[string]domain.AggregatedPrice, 100),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start serves WebSocket upgrades until ctx is cancelled.
func (s *WebSocketServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/prices", s.handleWebSocket)

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.broadcastLoop()

	s.logger.Info("starting WebSocket server", "addr", s.addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("WebSocket server error", "error", err.Error())
		}
	}()

	select {
	case <-ctx.Done():
		s.cancel()
	case <-s.ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Stop cancels the broadcast loop and signals Start to unwind.
func (s *WebSocketServer) Stop() {
	s.cancel()
}

// SendUpdate pushes a round's fused prices to the broadcast loop. If the
// channel stays saturated for 100ms, the update is dropped.
func (s *WebSocketServer) SendUpdate(prices map[string]domain.AggregatedPrice) {
	select {
	case s.updates <- prices:
	case <-time.After(100 * time.Millisecond):
		s.logger.Warn("websocket update channel full, dropping update")
	}
}

func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err.Error())
		return
	}

	client := &wsClient{
		conn:          conn,
		send:          make(chan []byte, 256),
		server:        s,
		subscribedAll: true,
		subscribed:    make(map[string]bool),
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()

	s.logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())
}

func (s *WebSocketServer) unregister(c *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *WebSocketServer) broadcastLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case prices := <-s.updates:
			s.broadcast(prices)
		}
	}
}

func (s *WebSocketServer) broadcast(prices map[string]domain.AggregatedPrice) {
	if len(prices) == 0 {
		return
	}

	view := make(map[string]interface{}, len(prices))
	for assetID, p := range prices {
		view[assetID] = priceView(p)
	}

	msg := priceUpdateMessage{
		Type:      "price_update",
		Timestamp: time.Now().Format(time.RFC3339),
		Prices:    view,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to marshal price update", "error", err.Error())
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if c.wants(prices) {
			select {
			case c.send <- data:
			default:
				s.logger.Warn("client send buffer full, dropping update")
			}
		}
	}
}

func (c *wsClient) wants(prices map[string]domain.AggregatedPrice) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.subscribedAll {
		return true
	}
	for assetID := range prices {
		if c.subscribed[assetID] {
			return true
		}
	}
	return false
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Error("failed to write websocket message", "error", err.Error())
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Error("websocket error", "error", err.Error())
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *wsClient) handleMessage(data []byte) {
	var msg wsClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.server.logger.Warn("invalid websocket client message", "error", err.Error())
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(msg.Assets)
	case "unsubscribe":
		c.unsubscribe(msg.Assets)
	case "ping":
		c.pong()
	default:
		c.server.logger.Warn("unknown websocket message type", "type", msg.Type)
	}
}

func (c *wsClient) subscribe(assets []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(assets) == 0 || (len(assets) == 1 && assets[0] == "*") {
		c.subscribedAll = true
		c.subscribed = make(map[string]bool)
		return
	}
	c.subscribedAll = false
	for _, a := range assets {
		c.subscribed[a] = true
	}
}

func (c *wsClient) unsubscribe(assets []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(assets) == 0 || (len(assets) == 1 && assets[0] == "*") {
		c.subscribedAll = false
		c.subscribed = make(map[string]bool)
		return
	}
	for _, a := range assets {
		delete(c.subscribed, a)
	}
}

func (c *wsClient) pong() {
	data, _ := json.Marshal(map[string]string{"type": "pong"})
	select {
	case c.send <- data:
	default:
	}
}
