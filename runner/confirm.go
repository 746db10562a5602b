package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Answer is the outcome of the confirmation prompt
type Answer int

const (
	AnswerInvalid Answer = iota
	AnswerYes
	AnswerNo
)

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "invalid"
	}
}

// ParseAnswer accepts y, yes, n and no in any case, ignoring surrounding whitespace
func ParseAnswer(s string) Answer {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return AnswerYes
	case "n", "no":
		return AnswerNo
	default:
		return AnswerInvalid
	}
}

// Confirm prints the warning and prompt to out and reads one answer line from in.
// An invalid answer is returned as a config error.
func Confirm(in io.Reader, out io.Writer) (Answer, error) {
	fmt.Fprintln(out, "\n**IMPORTANT**:")
	fmt.Fprintln(out, "Please review the options displayed above and confirm that you wish to proceed.")
	fmt.Fprintln(out, "There is the potential of data loss if options are not selected carefully!")
	fmt.Fprint(out, "Proceed [y/n]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return AnswerInvalid, Fail(KindConfig, "confirm", err)
	}

	answer := ParseAnswer(line)
	if answer == AnswerInvalid {
		return answer, Fail(KindConfig, "confirm", errors.New("invalid choice, please enter one of: yes, y, no, n"))
	}
	return answer, nil
}
