package domain

import "errors"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidOption = errors.New("invalid option selected")
	ErrAlreadyVoted  = errors.New("you have already voted for this poll")
	ErrVoteNotFound  = errors.New("no vote recorded for this poll")
	ErrValidation    = errors.New("validation failed")
)
