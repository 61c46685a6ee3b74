package api

import (
	"errors"
	"net/http"

	"github.com/codebridge/codebridge/pkg/httputil"
	"github.com/codebridge/codebridge/pkg/observability"
	"github.com/codebridge/codebridge/pkg/storage"
)

// errInternal is the generic message returned for unclassified failures.
// Internal detail goes to the log, never to the client.
var errInternal = errors.New("internal server error")

// writeStoreError maps store errors onto the HTTP boundary
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, storage.ErrConflict):
		httputil.WriteConflict(w, err.Error())
	default:
		observability.FromContext(r.Context(), s.logger).WithError(err).Error("storage operation failed")
		httputil.WriteInternalError(w, errInternal)
	}
}
