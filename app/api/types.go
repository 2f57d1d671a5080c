package api

import (
	"net/http"

	"github.com/aiverse-labs/content-hook/app/content"
	"github.com/aiverse-labs/content-hook/app/database"
	"github.com/aiverse-labs/content-hook/app/hub"
)

type IngestorInterface interface {
	Ingest(env *content.Envelope) (*database.ContentItem, bool, error)
}

var _ IngestorInterface = (*content.Ingestor)(nil)

type HubInterface interface {
	HandleWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

var _ HubInterface = (*hub.Hub)(nil)

type Handler struct {
	contentRepo      database.ContentRepository
	notificationRepo database.NotificationRepository
	ingestor         IngestorInterface
	hub              HubInterface
}
