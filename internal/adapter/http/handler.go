package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/partnerflow/internal/app"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Headers carrying the acting user. Requests without them run as the system actor.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// Identity places the actor named by the request headers in the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(HeaderActorID); id != "" {
			actor := domain.Actor{ID: id, Role: r.Header.Get(HeaderActorRole)}
			r = r.WithContext(domain.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// Register adds all partnerflow API routes to the Huma API.
func Register(api huma.API, workflow *app.WorkflowService, loyalty *app.LoyaltyService) {
	registerCompanies(api, workflow)
	registerRequests(api, workflow)
	registerMemberships(api, loyalty)
	registerCatalog(api, loyalty)
}

// StatesResponse lists the states reachable from the current one.
type StatesResponse struct {
	States []string `json:"states" doc:"Legal target states"`
}

type NextStatesOutput struct {
	Body StatesResponse
}

// TransitionBody is the payload of every transition endpoint.
type TransitionBody struct {
	Target string `json:"target" minLength:"1" doc:"Target state"`
	Reason string `json:"reason,omitempty" maxLength:"1000" doc:"Free-text reason recorded in the audit trail"`
}

func toStates(states []domain.State) StatesResponse {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return StatesResponse{States: out}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return formatTime(*t)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var actErr *domain.ActivationError
	if errors.As(err, &actErr) {
		details := make([]error, len(actErr.Missing))
		for i, m := range actErr.Missing {
			details[i] = &huma.ErrorDetail{
				Message:  "activation requirement not met",
				Location: "activation",
				Value:    string(m),
			}
		}
		return huma.Error422UnprocessableEntity(actErr.Error(), details...)
	}

	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound(err.Error())
	}

	if errors.Is(err, domain.ErrConcurrentUpdate) {
		return huma.Error409Conflict("record was modified concurrently, retry the request")
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var ipErr *domain.InsufficientPointsError
	if errors.As(err, &ipErr) {
		return huma.Error422UnprocessableEntity(ipErr.Error())
	}

	var ouErr *domain.OfferUnavailableError
	if errors.As(err, &ouErr) {
		return huma.Error422UnprocessableEntity(ouErr.Error())
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return huma.Error400BadRequest(vErr.Error(), &huma.ErrorDetail{
			Message:  vErr.Reason,
			Location: "body." + vErr.Field,
		})
	}

	if errors.Is(err, domain.ErrNegativeAccrual) {
		return huma.Error400BadRequest(domain.ErrNegativeAccrual.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
