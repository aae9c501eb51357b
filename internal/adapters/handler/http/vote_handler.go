package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	metrics *Metrics
}

func NewVoteHandler(service ports.VoteService, metrics *Metrics) *VoteHandler {
	return &VoteHandler{
		service: service,
		metrics: metrics,
	}
}

type voteRequest struct {
	PollID   string `json:"poll_id" validate:"required"`
	OptionID string `json:"option_id" validate:"required"`
}

type voteResponse struct {
	Message string `json:"message"`
	VoteID  string `json:"vote_id"`
}

// CastVote godoc
// @Summary      Casts a vote
// @Description  One vote per poll per client address. A repeated vote is rejected with 400.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Success      200
// @Failure      400
// @Failure      404
// @Router       /votes [post]
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if detail, ok := bindJSON(r, &req); !ok {
		h.metrics.observeVote(outcomeRejected)
		writeError(w, http.StatusUnprocessableEntity, detail)
		return
	}

	input := ports.VoteInput{
		PollID:   req.PollID,
		OptionID: req.OptionID,
		VoterIP:  voterIdentity(r),
	}

	vote, err := h.service.Vote(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotFound):
			h.metrics.observeVote(outcomeNotFound)
			writeError(w, http.StatusNotFound, "Poll not found or inactive")
		case errors.Is(err, domain.ErrAlreadyVoted):
			h.metrics.observeVote(outcomeDuplicate)
			writeError(w, http.StatusBadRequest, "You have already voted for this poll")
		case errors.Is(err, domain.ErrInvalidOption):
			h.metrics.observeVote(outcomeInvalidOption)
			writeError(w, http.StatusBadRequest, "Invalid option selected")
		case errors.Is(err, domain.ErrValidation):
			h.metrics.observeVote(outcomeRejected)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.metrics.observeVote(outcomeError)
			hlog.FromRequest(r).Error().Err(err).Str("poll_id", req.PollID).Msg("cast vote failed")
			writeError(w, http.StatusInternalServerError, "Error casting vote: "+err.Error())
		}
		return
	}

	h.metrics.observeVote(outcomeAccepted)
	hlog.FromRequest(r).Info().
		Str("poll_id", vote.PollID).
		Str("option_id", vote.OptionID).
		Str("vote_id", vote.ID).
		Msg("vote cast")
	writeJSON(w, http.StatusOK, voteResponse{Message: "Vote cast successfully", VoteID: vote.ID})
}

// MyVote godoc
// @Summary      The caller's vote on a poll
// @Tags         votes
// @Produce      json
// @Success      200  {object}  domain.Vote
// @Failure      404
// @Router       /polls/{id}/my-vote [get]
func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	vote, err := h.service.MyVote(r.Context(), chi.URLParam(r, "id"), voterIdentity(r))
	if err != nil {
		if errors.Is(err, domain.ErrVoteNotFound) {
			writeError(w, http.StatusNotFound, "No vote recorded for this poll")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("get vote failed")
		writeError(w, http.StatusInternalServerError, "Error fetching vote: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vote)
}
