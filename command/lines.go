package command

import (
	"bufio"
	"errors"
	"io"
)

// ReadLines calls fn for every line of r until EOF or fn returns an error.
// Lines longer than MaxFileContent are cut to MaxFileContent bytes rather
// than failing the stream; a cut line still overflows a WRITEFILE buffer and
// gets the "too large" reply.
func ReadLines(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReaderSize(r, 1024)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if room := MaxFileContent - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}
		if isPrefix {
			continue
		}
		if err := fn(string(line)); err != nil {
			return err
		}
		line = line[:0]
	}
}
