// Package sse provides Server-Sent Events support for real-time board updates.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"prospectai_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventLeadCreated     EventType = "lead_created"
	EventLeadUpdated     EventType = "lead_updated"
	EventLeadReassigned  EventType = "lead_reassigned"
	EventPipelineChanged EventType = "pipeline_changed"
)

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	LeadID  uuid.UUID   `json:"leadId,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	orgID  uuid.UUID
	events chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // userID -> clients
	orgMap  map[uuid.UUID][]*client // orgID -> clients
	log     *logger.Logger

	// heartbeat is the idle interval after which a ping is written so
	// proxies keep the stream open.
	heartbeat time.Duration
}

const defaultHeartbeat = 25 * time.Second

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients:   make(map[uuid.UUID][]*client),
		orgMap:    make(map[uuid.UUID][]*client),
		log:       log,
		heartbeat: defaultHeartbeat,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.userID] = append(s.clients[c.userID], c)
	if c.orgID != uuid.Nil {
		s.orgMap[c.orgID] = append(s.orgMap[c.orgID], c)
	}
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.userID] = without(s.clients[c.userID], c)
	if len(s.clients[c.userID]) == 0 {
		delete(s.clients, c.userID)
	}
	if c.orgID != uuid.Nil {
		s.orgMap[c.orgID] = without(s.orgMap[c.orgID], c)
		if len(s.orgMap[c.orgID]) == 0 {
			delete(s.orgMap, c.orgID)
		}
	}
}

func without(clients []*client, c *client) []*client {
	for i, cl := range clients {
		if cl == c {
			return append(clients[:i:i], clients[i+1:]...)
		}
	}
	return clients
}

func (s *Service) deliver(clients []*client, event Event) {
	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse event buffer full", "user_id", c.userID.String(), "type", string(event.Type))
		}
	}
}

// Publish sends an event to every connection of a user within an org.
func (s *Service) Publish(orgID, userID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []*client
	for _, c := range s.clients[userID] {
		if c.orgID == orgID {
			targets = append(targets, c)
		}
	}
	s.deliver(targets, event)
}

// PublishToOrganization broadcasts an event to all connected org members.
func (s *Service) PublishToOrganization(orgID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.deliver(s.orgMap[orgID], event)
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getUserID func(*gin.Context) (uuid.UUID, bool), getOrgID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orgID, _ := getOrgID(c)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID: userID,
			orgID:  orgID,
			events: make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"userId": userID, "orgId": orgID})
		c.Writer.Flush()

		s.log.Debug("sse client connected", "user_id", userID.String(), "tenant_id", orgID.String())

		ping := time.NewTicker(s.heartbeat)
		defer ping.Stop()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Debug("sse client disconnected", "user_id", userID.String())
				return
			case <-ping.C:
				c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
				c.Writer.Flush()
			case event := <-cl.events:
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// ConnectionCount returns the number of open connections of a user.
func (s *Service) ConnectionCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[userID])
}
