package httpserver

import (
	"errors"
	"net/http"

	"github.com/OliveiraNt/kafka-lens/internal/application"
	"github.com/OliveiraNt/kafka-lens/internal/domain"
)

func (s *Server) apiListTopics(w http.ResponseWriter, r *http.Request) {
	brokers := domain.ParseBrokers(r.URL.Query().Get("brokers"))
	if len(brokers) == 0 {
		brokers = s.defaults().Brokers
	}

	topics, err := s.topicService.ListTopics(r.Context(), brokers)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, topics)
	case errors.Is(err, application.ErrNoBrokers):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrConnection):
		writeError(w, http.StatusBadGateway, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}
