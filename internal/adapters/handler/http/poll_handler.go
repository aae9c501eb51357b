package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
	results ports.ResultService
}

func NewPollHandler(service ports.PollService, results ports.ResultService) *PollHandler {
	return &PollHandler{
		service: service,
		results: results,
	}
}

type createOptionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createPollRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Options     []createOptionRequest `json:"options"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Options without a description get an empty one. Every option starts with zero votes.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      200  {object}  domain.Poll
// @Failure      422
// @Router       /polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	input := ports.CreatePollInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Options != nil {
		input.Options = make([]ports.OptionInput, 0, len(req.Options))
	}
	for _, opt := range req.Options {
		input.Options = append(input.Options, ports.OptionInput{Title: opt.Title, Description: opt.Description})
	}

	poll, err := h.service.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("create poll failed")
		writeError(w, http.StatusInternalServerError, "Error creating poll: "+err.Error())
		return
	}

	hlog.FromRequest(r).Info().Str("poll_id", poll.ID).Int("options", len(poll.Options)).Msg("poll created")
	writeJSON(w, http.StatusOK, poll)
}

// ListPolls godoc
// @Summary      Lists active polls
// @Tags         polls
// @Produce      json
// @Success      200  {array}  domain.Poll
// @Router       /polls [get]
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.ListPolls(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list polls failed")
		writeError(w, http.StatusInternalServerError, "Error fetching polls: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, polls)
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			writeError(w, http.StatusNotFound, "Poll not found")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("get poll failed")
		writeError(w, http.StatusInternalServerError, "Error fetching poll: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// GetResults godoc
// @Summary      Poll results
// @Description  Vote counts and percentages. Deactivated polls still report results.
// @Tags         polls
// @Produce      json
// @Success      200  {object}  domain.PollResults
// @Failure      404
// @Router       /polls/{id}/results [get]
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			writeError(w, http.StatusNotFound, "Poll not found")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("get results failed")
		writeError(w, http.StatusInternalServerError, "Error getting results: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// DeletePoll godoc
// @Summary      Deactivates a poll
// @Description  Soft delete. The poll disappears from listing and lookup but keeps its results.
// @Tags         polls
// @Success      200
// @Failure      404
// @Router       /polls/{id} [delete]
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			writeError(w, http.StatusNotFound, "Poll not found")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("deactivate poll failed")
		writeError(w, http.StatusInternalServerError, "Error deactivating poll: "+err.Error())
		return
	}

	hlog.FromRequest(r).Info().Str("poll_id", id).Msg("poll deactivated")
	writeJSON(w, http.StatusOK, messageResponse{Message: "Poll deactivated successfully"})
}
