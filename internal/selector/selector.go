package selector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/vkdl/internal/utils"
)

// DecisionSource supplies raw answers for a resolution choice. Next returns
// io.EOF when it has no more answers; Reject is told why an answer was refused.
type DecisionSource interface {
	Next(ctx context.Context, options []int) (string, error)
	Reject(answer string, reason error)
}

var (
	ErrNotInteger = fmt.Errorf("%w: not an integer", utils.ErrInvalidSelection)
	ErrNotOffered = fmt.Errorf("%w: not an available resolution", utils.ErrInvalidSelection)
)

type Selector struct {
	source DecisionSource
}

func New(source DecisionSource) *Selector {
	return &Selector{source: source}
}

// Select resolves options to a single member. A lone option is returned
// without asking the source. Otherwise the source is asked until it gives a
// member of options, runs out of answers, or ctx is done.
func (s *Selector) Select(ctx context.Context, options []int) (int, error) {
	options = slices.Clone(options)
	slices.Sort(options)
	options = slices.Compact(options)
	switch len(options) {
	case 0:
		return 0, fmt.Errorf("%w: no resolutions to choose from", utils.ErrInvalidSelection)
	case 1:
		return options[0], nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		answer, err := s.source.Next(ctx, options)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, utils.ErrSelectionCancelled
			}
			return 0, err
		}
		choice, err := parseChoice(answer, options)
		if err != nil {
			log.Debug().Str("op", "selector/select").Err(err).Msg("Rejected resolution answer")
			s.source.Reject(answer, err)
			continue
		}
		return choice, nil
	}
}

func parseChoice(answer string, options []int) (int, error) {
	answer = strings.TrimSpace(answer)
	choice, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, answer)
	}
	if !slices.Contains(options, choice) {
		return 0, fmt.Errorf("%w: %d (options: %s)", ErrNotOffered, choice, JoinOptions(options))
	}
	return choice, nil
}

func JoinOptions(options []int) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = strconv.Itoa(o)
	}
	return strings.Join(parts, ", ")
}
