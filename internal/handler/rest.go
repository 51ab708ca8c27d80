package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/statehub/internal/auth"
	"github.com/vyrodovalexey/statehub/internal/middleware"
	"github.com/vyrodovalexey/statehub/internal/model"
	"github.com/vyrodovalexey/statehub/internal/store"
	"github.com/vyrodovalexey/statehub/pkg/statemut"
)

// Version is the application version.
const Version = "1.0.0"

// Route names. The middleware chain reports them as the operation of a
// request; mutation routes also name the committed event.
const (
	opHealth       = "health"
	opListStates   = "list_states"
	opGetState     = "get_state"
	opCreateState  = "create_state"
	opDeleteState  = "delete_state"
	opAddItem      = "add_item"
	opDeleteItem   = "delete_item"
	opDeleteByID   = "delete_item_by_id"
	opSetProperty  = "set_property"
	opIncrementKey = "increment_property"
)

// RESTHandler handles REST API requests for state containers.
type RESTHandler struct {
	store   store.Store
	logger  *zap.Logger
	idField string
}

// NewRESTHandler creates a new RESTHandler instance. idField names the record
// field matched by delete-by-id. Change events are announced by the store.
func NewRESTHandler(s store.Store, logger *zap.Logger, idField string) *RESTHandler {
	return &RESTHandler{
		store:   s,
		logger:  logger,
		idField: idField,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet).Name(opHealth)

	api := router.PathPrefix("/api/v1/states").Subrouter()
	api.HandleFunc("", h.ListStates).Methods(http.MethodGet).Name(opListStates)
	api.HandleFunc("", h.CreateState).Methods(http.MethodPost).Name(opCreateState)
	api.HandleFunc("/{id}", h.GetState).Methods(http.MethodGet).Name(opGetState)
	api.HandleFunc("/{id}", h.DeleteState).Methods(http.MethodDelete).Name(opDeleteState)
	api.HandleFunc("/{id}/items", h.AddItem).Methods(http.MethodPost).Name(opAddItem)
	api.HandleFunc("/{id}/items", h.DeleteItem).Methods(http.MethodDelete).Name(opDeleteItem)
	api.HandleFunc("/{id}/items/{itemId}", h.DeleteItemByID).Methods(http.MethodDelete).Name(opDeleteByID)
	api.HandleFunc("/{id}/properties/{key}", h.SetProperty).Methods(http.MethodPut).Name(opSetProperty)
	api.HandleFunc("/{id}/properties/{key}/increment", h.IncrementProperty).
		Methods(http.MethodPost).Name(opIncrementKey)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ListStates handles GET /api/v1/states requests.
func (h *RESTHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list states", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve states")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(states))
}

// GetState handles GET /api/v1/states/{id} requests.
func (h *RESTHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleStoreError(w, err, "get state")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(state))
}

// CreateState handles POST /api/v1/states requests.
func (h *RESTHandler) CreateState(w http.ResponseWriter, r *http.Request) {
	var input model.CreateStateRequest
	if err := decodeJSON(r, &input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := input.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.store.Create(r.Context(), &model.State{
		Name:  input.Name,
		Kind:  input.Kind,
		Value: input.Value,
	})
	if err != nil {
		h.handleStoreError(w, err, "create state")
		return
	}

	statesGauge.Inc()
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(state))
}

// DeleteState handles DELETE /api/v1/states/{id} requests.
func (h *RESTHandler) DeleteState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.handleStoreError(w, err, "delete state")
		return
	}

	statesGauge.Dec()
	h.writeJSON(w, http.StatusNoContent, nil)
}

// AddItem handles POST /api/v1/states/{id}/items requests.
func (h *RESTHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var input model.AddItemRequest
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := h.mutationOptions(r, opAddItem)
	h.mutate(w, r, opAddItem, func(current any, set statemut.Setter[any]) error {
		arr, err := statemut.AsStateArray(current, opts...)
		if err != nil {
			return err
		}
		_, err = statemut.AddItemToStateArrayFunc(arr, commitAs[[]any](set), input.Item, jsonEqual, opts...)
		return err
	})
}

// DeleteItem handles DELETE /api/v1/states/{id}/items requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	var input model.DeleteItemRequest
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := h.mutationOptions(r, opDeleteItem)
	h.mutate(w, r, opDeleteItem, func(current any, set statemut.Setter[any]) error {
		arr, err := statemut.AsStateArray(current, opts...)
		if err != nil {
			return err
		}
		_, err = statemut.DeleteItemFromStateArrayFunc(
			arr, commitAs[[]any](set), input.Item, input.RemoveAll, jsonEqual, opts...,
		)
		return err
	})
}

// DeleteItemByID handles DELETE /api/v1/states/{id}/items/{itemId} requests.
// A missing record is not an error; the container is committed unchanged.
func (h *RESTHandler) DeleteItemByID(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemId"]

	opts := h.mutationOptions(r, opDeleteByID)
	h.mutate(w, r, opDeleteByID, func(current any, set statemut.Setter[any]) error {
		arr, err := statemut.AsStateArray(current, opts...)
		if err != nil {
			return err
		}
		statemut.DeleteItemFromStateArrayByID(arr, commitAs[[]any](set), itemID, opts...)
		return nil
	})
}

// SetProperty handles PUT /api/v1/states/{id}/properties/{key} requests.
func (h *RESTHandler) SetProperty(w http.ResponseWriter, r *http.Request) {
	key, ok := h.propertyKey(w, r)
	if !ok {
		return
	}

	var input model.SetPropertyRequest
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := h.mutationOptions(r, opSetProperty)
	h.mutate(w, r, opSetProperty, func(current any, set statemut.Setter[any]) error {
		obj, err := statemut.AsStateObject(current, opts...)
		if err != nil {
			return err
		}
		_, err = statemut.SetStateObjectProperty(obj, commitAs[map[string]any](set), key, input.Value, opts...)
		return err
	})
}

// IncrementProperty handles POST /api/v1/states/{id}/properties/{key}/increment
// requests. An empty body or a missing amount increments by one.
func (h *RESTHandler) IncrementProperty(w http.ResponseWriter, r *http.Request) {
	key, ok := h.propertyKey(w, r)
	if !ok {
		return
	}

	var input model.IncrementRequest
	if err := decodeJSON(r, &input); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount := input.Amount
	if amount == nil {
		amount = statemut.DefaultAmount
	}

	opts := h.mutationOptions(r, opIncrementKey)
	h.mutate(w, r, opIncrementKey, func(current any, set statemut.Setter[any]) error {
		obj, err := statemut.AsStateObject(current, opts...)
		if err != nil {
			return err
		}
		_, err = statemut.IncrementDecrementStateObjectProperty(obj, commitAs[map[string]any](set), key, amount, opts...)
		return err
	})
}

// mutate runs fn against the container named in the route, records the
// outcome for the middleware chain and writes the committed state.
func (h *RESTHandler) mutate(w http.ResponseWriter, r *http.Request, op string, fn store.MutateFunc) {
	info := middleware.InfoFromContext(r.Context())

	state, err := h.store.Mutate(r.Context(), mux.Vars(r)["id"], op, fn)
	if err != nil {
		info.SetOutcome(outcomeOf(err))
		h.handleStoreError(w, err, op)
		return
	}

	info.SetOutcome(middleware.OutcomeCommitted, "")
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(state))
}

// mutationOptions routes diagnostics of one request to the request logger.
func (h *RESTHandler) mutationOptions(r *http.Request, op string) []statemut.Option {
	fields := []zap.Field{zap.String("request_id", middleware.RequestIDFromContext(r.Context()))}
	if info, ok := auth.FromContext(r.Context()); ok {
		fields = append(fields, zap.String("subject", info.Subject))
	}

	return []statemut.Option{
		statemut.WithLogger(h.logger.With(fields...)),
		statemut.WithCaller("statehub." + op),
		statemut.WithIDField(h.idField),
	}
}

func (h *RESTHandler) propertyKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := mux.Vars(r)["key"]
	if strings.TrimSpace(key) == "" {
		h.writeError(w, http.StatusBadRequest, model.ErrEmptyKey.Error())
		return "", false
	}
	return key, true
}

// handleStoreError handles store and mutation errors and writes appropriate
// HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	var verr *statemut.ValidationError

	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: verr.Error(),
			Details: statemut.KindName(verr),
		})
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "state not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid state ID")
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "state with this name already exists")
	case errors.Is(err, store.ErrStoreFull):
		h.writeError(w, http.StatusInsufficientStorage, "state limit reached")
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}

// decodeJSON decodes a request body keeping numbers as json.Number, so
// integers survive a round trip through the store unchanged.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

// jsonEqual compares decoded JSON values structurally.
func jsonEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// commitAs adapts the store's setter to a concrete container type.
func commitAs[T any](set statemut.Setter[any]) statemut.Setter[T] {
	return func(v T) { set(v) }
}

// outcomeOf classifies a failed mutation. Rejections carry the validation
// failure kind.
func outcomeOf(err error) (outcome, kind string) {
	var verr *statemut.ValidationError
	if errors.As(err, &verr) {
		return middleware.OutcomeRejected, statemut.KindName(verr)
	}
	return middleware.OutcomeFailed, ""
}
