package httpserver

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/OliveiraNt/kafka-lens/internal/application"
	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/goccy/go-json"
)

// brokerList accepts either a comma-separated string or a JSON array.
type brokerList []string

func (b *brokerList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = nil
		return nil
	}
	var list string
	if err := json.Unmarshal(data, &list); err == nil {
		*b = domain.ParseBrokers(list)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.New("brokers must be a string or a list of strings")
	}
	*b = domain.ParseBrokers(strings.Join(items, ","))
	return nil
}

type startRequest struct {
	Brokers     brokerList `json:"brokers"`
	Topic       string     `json:"topic"`
	GroupID     string     `json:"group_id"`
	StartOffset string     `json:"start_offset"`
	Mask        *bool      `json:"mask"`
}

func (s *Server) apiStartConsumer(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Logger.Warn("api start consumer bad request", "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	defaults := s.defaults()
	mask := defaults.Mask
	if req.Mask != nil {
		mask = *req.Mask
	}
	cfg := defaults.StartDefaults(domain.StartConfig{
		Brokers:     req.Brokers,
		Topic:       strings.TrimSpace(req.Topic),
		GroupID:     strings.TrimSpace(req.GroupID),
		StartOffset: domain.StartOffset(strings.ToLower(strings.TrimSpace(req.StartOffset))),
		Mask:        mask,
	})

	st, err := s.consumerService.Start(r.Context(), cfg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, st)
	case errors.Is(err, application.ErrInvalidStartConfig):
		writeError(w, http.StatusBadRequest, err.Error(), st)
	case errors.Is(err, application.ErrConnection):
		writeError(w, http.StatusBadGateway, err.Error(), st)
	default:
		utils.Logger.Error("api start consumer failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error(), st)
	}
}

func (s *Server) apiStopConsumer(w http.ResponseWriter, r *http.Request) {
	s.consumerService.Stop(r.Context())
	writeJSON(w, http.StatusOK, s.consumerService.Status())
}

func (s *Server) apiConsumerStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.consumerService.Status())
}
