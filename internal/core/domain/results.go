package domain

import "math"

type PollResults struct {
	PollID      string         `json:"poll_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TotalVotes  int64          `json:"total_votes"`
	Options     []OptionResult `json:"options"`
}

type OptionResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Votes       int64   `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

// ComputeResults derives the percentage breakdown from the poll's embedded
// tally. Percentages are rounded to two decimals and are all zero when the
// poll has no votes.
func ComputeResults(poll *Poll) *PollResults {
	total := poll.TotalVotes()

	results := &PollResults{
		PollID:      poll.ID,
		Title:       poll.Title,
		Description: poll.Description,
		TotalVotes:  total,
		Options:     make([]OptionResult, 0, len(poll.Options)),
	}

	for _, opt := range poll.Options {
		percentage := 0.0
		if total > 0 {
			percentage = roundTo(float64(opt.Votes)/float64(total)*100, 2)
		}
		results.Options = append(results.Options, OptionResult{
			ID:          opt.ID,
			Title:       opt.Title,
			Description: opt.Description,
			Votes:       opt.Votes,
			Percentage:  percentage,
		})
	}

	return results
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
