package api

import (
	"net/http"

	"github.com/google/uuid"

	sharedApplication "github.com/felixgeelhaar/flowboard/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

// Request headers carrying the caller's scope.
const (
	HeaderTenantID      = "X-Tenant-ID"
	HeaderActorID       = "X-Actor-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// scopedHandler is a handler that runs inside an explicit tenant scope.
type scopedHandler func(w http.ResponseWriter, r *http.Request, scope sharedApplication.Scope)

// scoped resolves the scope from request headers and rejects requests
// without a valid tenant.
func (s *Server) scoped(next scopedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantUUID, err := uuid.Parse(r.Header.Get(HeaderTenantID))
		if err != nil || tenantUUID == uuid.Nil {
			writeError(w, http.StatusBadRequest, CodeTenantRequired, "a valid "+HeaderTenantID+" header is required")
			return
		}

		var actorID uuid.UUID
		if raw := r.Header.Get(HeaderActorID); raw != "" {
			if actorID, err = uuid.Parse(raw); err != nil {
				writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid "+HeaderActorID+" header")
				return
			}
		}

		ctx := observability.WithCorrelationID(r.Context(), r.Header.Get(HeaderCorrelationID))
		correlationID, _ := uuid.Parse(observability.CorrelationIDFromContext(ctx))
		ctx = observability.WithTenantID(ctx, tenantUUID.String())
		w.Header().Set(HeaderCorrelationID, observability.CorrelationIDFromContext(ctx))

		scope := sharedApplication.Scope{
			TenantID:      sharedDomain.NewTenantID(tenantUUID),
			ActorID:       actorID,
			CorrelationID: correlationID,
		}
		next(w, r.WithContext(ctx), scope)
	}
}
