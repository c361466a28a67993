package handlers

import (
	"net/http"
	"strconv"

	"github.com/ellisd4/tagsync/internal/server/response"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
	"github.com/ellisd4/tagsync/pkg/sync"
)

// HandleTest handles GET /api/v1/test. A reachable server with failing
// catalogs still answers 200; the report's success flag carries the outcome.
func (h *Handlers) HandleTest(w http.ResponseWriter, r *http.Request) {
	report, err := h.client.TestConnection(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, report)
}

// HandleSync handles POST /api/v1/sync?dryRun=true|false. The run executes
// synchronously and the full result is returned.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	var opts []sync.Option
	if raw := r.URL.Query().Get("dryRun"); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			response.ErrorFromType(w, errors.NewValidationError("dryRun", raw, "must be true or false"))
			return
		}
		opts = append(opts, sync.WithDryRun(dryRun))
	}

	logger := logging.FromContext(r.Context())
	if status := h.client.Status(); status.OverwriteExistingTags && status.TagPrefix == "" {
		logger.Warn().Msg("Overwrite is enabled with an empty tag prefix; every tag on matched items is managed")
	}

	result, err := h.client.Sync(r.Context(), opts...)
	if err != nil {
		if result != nil {
			response.ErrorWithData(w, err, result)
			return
		}
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, result)
}

// HandleLastSync handles GET /api/v1/sync/last.
func (h *Handlers) HandleLastSync(w http.ResponseWriter, _ *http.Request) {
	if result, ok := h.cache.LastResult(); ok {
		response.OK(w, result)
		return
	}
	response.NotFound(w, "No sync has run yet", "")
}

// HandleStatus handles GET /api/v1/status.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, h.client.Status())
}
