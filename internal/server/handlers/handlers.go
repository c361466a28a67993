// Package handlers provides HTTP request handlers for the tagsync API.
package handlers

import (
	"github.com/agentstation/utc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ellisd4/tagsync"
	"github.com/ellisd4/tagsync/internal/server/cache"
	ws "github.com/ellisd4/tagsync/internal/server/websocket"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client    tagsync.Client
	cache     *cache.Cache
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
	startTime utc.Time
}

// New creates a new Handlers instance.
func New(
	client tagsync.Client,
	cache *cache.Cache,
	wsHub *ws.Hub,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	startTime utc.Time,
) *Handlers {
	return &Handlers{
		client:    client,
		cache:     cache,
		wsHub:     wsHub,
		upgrader:  upgrader,
		logger:    logger,
		startTime: startTime,
	}
}
