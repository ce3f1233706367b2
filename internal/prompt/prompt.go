// Package prompt asks the operator which file a dangling reference should be bound to.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ChoiceKind tells the repair engine what the operator decided.
type ChoiceKind int

const (
	ChoiceCandidate ChoiceKind = iota
	ChoiceKeep
	ChoiceRemove
)

// Choice is the answer to a Request. Index is only meaningful for ChoiceCandidate.
type Choice struct {
	Kind  ChoiceKind
	Index int
}

func Candidate(i int) Choice { return Choice{Kind: ChoiceCandidate, Index: i} }
func Keep() Choice           { return Choice{Kind: ChoiceKeep} }
func Remove() Choice         { return Choice{Kind: ChoiceRemove} }

// Request describes one decision: which candidate replaces Current for Property.
type Request struct {
	Header      string
	Property    string
	Current     string
	Candidates  []string
	OfferKeep   bool
	OfferRemove bool
}

// Chooser resolves a Request synchronously.
type Chooser interface {
	Choose(req Request) (Choice, error)
}

// Console reads answers line by line, asking again until one is valid.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	width int
}

const defaultWidth = 100

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, width: defaultWidth}
}

// Choose prints candidates as `N_ label`; keep is numbered len(candidates) and
// remove len(candidates)+1.
func (c *Console) Choose(req Request) (Choice, error) {
	var b strings.Builder
	b.WriteString(req.Header)
	b.WriteString("\n")
	for i, cand := range req.Candidates {
		fmt.Fprintf(&b, "%3d_ %s\n", i, runewidth.Truncate(cand, c.width, "..."))
	}
	keepIdx, removeIdx := -1, -1
	next := len(req.Candidates)
	if req.OfferKeep {
		keepIdx = next
		next++
		fmt.Fprintf(&b, "%3d_ keep current value '%s'\n", keepIdx, runewidth.Truncate(req.Current, c.width, "..."))
	}
	if req.OfferRemove {
		removeIdx = next
		next++
		fmt.Fprintf(&b, "%3d_ remove property %s\n", removeIdx, req.Property)
	}
	b.WriteString("\nUser choice: ")
	if _, err := io.WriteString(c.out, b.String()); err != nil {
		return Choice{}, fmt.Errorf("write prompt: %w", err)
	}

	for c.in.Scan() {
		n, err := strconv.Atoi(strings.TrimSpace(c.in.Text()))
		switch {
		case err != nil || n < 0 || n >= next:
			fmt.Fprintf(c.out, "invalid choice, enter a number between 0 and %d: ", next-1)
			continue
		case n == keepIdx:
			return Keep(), nil
		case n == removeIdx:
			return Remove(), nil
		default:
			return Candidate(n), nil
		}
	}
	if err := c.in.Err(); err != nil {
		return Choice{}, fmt.Errorf("read choice: %w", err)
	}
	return Choice{}, errors.New("read choice: input closed")
}
