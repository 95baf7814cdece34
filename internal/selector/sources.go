package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/tanq16/vkdl/internal/output"
	"github.com/tanq16/vkdl/internal/utils"
)

// ConsoleSource asks a human on a terminal. Reading happens on a background
// goroutine so a cancelled context unblocks Next even while stdin is idle.
type ConsoleSource struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewConsoleSource(in io.Reader, out io.Writer) *ConsoleSource {
	return &ConsoleSource{in: in, out: out, lines: make(chan lineResult)}
}

func (c *ConsoleSource) Next(ctx context.Context, options []int) (string, error) {
	c.once.Do(func() { go c.readLines() })
	fmt.Fprint(c.out, output.FInfo(fmt.Sprintf("Select resolution from the options: %s: ", JoinOptions(options))))
	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case res, ok := <-c.lines:
		if !ok {
			fmt.Fprintln(c.out)
			return "", io.EOF
		}
		return res.line, res.err
	}
}

func (c *ConsoleSource) Reject(answer string, reason error) {
	if errors.Is(reason, ErrNotInteger) {
		fmt.Fprintln(c.out, output.FWarning("Invalid input. Please enter a valid integer."))
		return
	}
	fmt.Fprintln(c.out, output.FWarning("Invalid resolution. Please choose from the available options."))
}

func (c *ConsoleSource) readLines() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.lines <- lineResult{line: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		c.lines <- lineResult{err: err}
	}
}

// Policy names accepted by ParsePolicy besides a plain integer cap.
const (
	PolicyAsk   = "ask"
	PolicyBest  = "best"
	PolicyWorst = "worst"
)

// PolicySource answers without a human. Cap > 0 picks the highest option not
// above Cap, falling back to the lowest option.
type PolicySource struct {
	Lowest bool
	Cap    int
}

func ParsePolicy(policy string) (*PolicySource, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyBest:
		return &PolicySource{}, nil
	case PolicyWorst:
		return &PolicySource{Lowest: true}, nil
	}
	limit, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(policy)), "p"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("%w: unknown resolution policy %q", utils.ErrInvalidSelection, policy)
	}
	return &PolicySource{Cap: limit}, nil
}

func (p *PolicySource) Next(ctx context.Context, options []int) (string, error) {
	if len(options) == 0 {
		return "", io.EOF
	}
	if p.Lowest {
		return strconv.Itoa(options[0]), nil
	}
	if p.Cap <= 0 {
		return strconv.Itoa(options[len(options)-1]), nil
	}
	choice := options[0]
	for _, o := range options {
		if o <= p.Cap {
			choice = o
		}
	}
	return strconv.Itoa(choice), nil
}

func (p *PolicySource) Reject(string, error) {}

// ScriptSource replays fixed answers in order and records every rejection.
type ScriptSource struct {
	mu       sync.Mutex
	Answers  []string
	Asked    int
	Rejected []string
}

func (s *ScriptSource) Next(ctx context.Context, options []int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Asked >= len(s.Answers) {
		return "", io.EOF
	}
	answer := s.Answers[s.Asked]
	s.Asked++
	return answer, nil
}

func (s *ScriptSource) Reject(answer string, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rejected = append(s.Rejected, answer)
}
