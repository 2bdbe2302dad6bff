package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/OliveiraNt/kafka-lens/internal/application"
	"github.com/OliveiraNt/kafka-lens/internal/domain"

	"github.com/go-chi/chi/v5"
)

type messagesResponse struct {
	Records []domain.Record `json:"records"`
	Count   int             `json:"count"`
}

func (s *Server) apiListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	newestFirst := true
	switch q.Get("order") {
	case "", "desc":
	case "asc":
		newestFirst = false
	default:
		writeError(w, http.StatusBadRequest, "order must be asc or desc", nil)
		return
	}

	records := s.messageService.List(q.Get("q"), newestFirst)
	writeJSON(w, http.StatusOK, messagesResponse{Records: records, Count: len(records)})
}

func (s *Server) apiGetMessage(w http.ResponseWriter, r *http.Request) {
	partition, err := strconv.ParseInt(chi.URLParam(r, "partition"), 10, 32)
	if err != nil || partition < 0 {
		writeError(w, http.StatusBadRequest, "invalid partition", nil)
		return
	}
	offset := chi.URLParam(r, "offset")
	if _, err := strconv.ParseInt(offset, 10, 64); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset", nil)
		return
	}

	rec, err := s.messageService.Get(int32(partition), offset)
	if errors.Is(err, application.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) apiClearMessages(w http.ResponseWriter, _ *http.Request) {
	s.messageService.Clear()
	w.WriteHeader(http.StatusNoContent)
}
