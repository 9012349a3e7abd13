package console

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidRegistration = errors.New("invalid input provided")

// Reader reads user answers line by line.
type Reader struct {
	scanner *bufio.Scanner
	done    bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

func (r *Reader) readLine() (string, error) {
	if !r.scanner.Scan() {
		r.done = true
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}

// ReadSelection returns the number typed by the user, or -1 when the line
// is not a number.
func (r *Reader) ReadSelection() int {
	line, err := r.readLine()
	if err != nil {
		log.Errorf("error while reading user input from shell: %s", err)
		return -1
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		log.Errorf("error while reading user input from shell: %s", err)
		return -1
	}
	return n
}

func (r *Reader) ReadVehicleRegistrationNumber() (string, error) {
	line, err := r.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", ErrInvalidRegistration
	}
	return line, nil
}

// Done reports whether the underlying input is exhausted.
func (r *Reader) Done() bool {
	return r.done
}
