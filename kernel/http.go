package kernel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ipfs/go-cid"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/pinstore"
	"github.com/lexamoris/synthia/x/genesis/types"
)

// maxOperationBody bounds POST /operations/validate request bodies.
const maxOperationBody = 1 << 16

type validateResponse struct {
	Accepted bool `json:"accepted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Error().Err(err).Msg("failed to write health response")
	}
}

func (s *Service) handleGenesis(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sequencer.GenesisState())
}

func (s *Service) handleConstants(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.constants)
}

func (s *Service) handleConstant(w http.ResponseWriter, r *http.Request) {
	name, ok := constants.FromString(mux.Vars(r)["name"])
	if !ok {
		http.Error(w, "unknown constant", http.StatusNotFound)
		return
	}
	value, _ := s.constants.Get(name)
	s.writeJSON(w, http.StatusOK, map[string]any{name.String(): value})
}

func (s *Service) handlePolicies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.policies)
}

func (s *Service) handleValidateOperation(w http.ResponseWriter, r *http.Request) {
	var op types.Operation
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOperationBody)).Decode(&op); err != nil {
		s.metrics.IncrCounter(metrics.MetricNameOperationsMalformed)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	accepted, err := s.validator.ValidateOperation(op)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, validateResponse{Accepted: accepted})
	case errors.Is(err, types.ErrNotInitialized):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, types.ErrInvalidOperation):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.logger.Error().Err(err).Msg("failed to validate operation")
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Service) handlePins(w http.ResponseWriter, r *http.Request) {
	pins, err := s.store.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list pins")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	result := make([]string, 0, len(pins))
	for _, c := range pins {
		result = append(result, c.String())
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handlePin(w http.ResponseWriter, r *http.Request) {
	c, err := cid.Decode(mux.Vars(r)["cid"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	content, err := s.store.GetRaw(c)
	if errors.Is(err, pinstore.ErrNotPinned) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("cid", c.String()).Msg("failed to read pin")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(content); err != nil {
		s.logger.Error().Err(err).Msg("failed to write pin response")
	}
}

func (s *Service) handleConnectedPeers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.network.ConnectedPeers())
}

func (s *Service) registerRoutes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/genesis", s.handleGenesis).Methods(http.MethodGet)
	router.HandleFunc("/constants", s.handleConstants).Methods(http.MethodGet)
	router.HandleFunc("/constants/{name}", s.handleConstant).Methods(http.MethodGet)
	router.HandleFunc("/policies", s.handlePolicies).Methods(http.MethodGet)
	router.HandleFunc("/operations/validate", s.handleValidateOperation).Methods(http.MethodPost)
	router.HandleFunc("/pins", s.handlePins).Methods(http.MethodGet)
	router.HandleFunc("/pins/{cid}", s.handlePin).Methods(http.MethodGet)
	if s.network != nil {
		router.HandleFunc("/connected-peers", s.handleConnectedPeers).Methods(http.MethodGet)
	}
	metrics.RegisterHandlers(router)
	return router
}
