package claw

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DataFile holds the name/value entries of a Clawpack ".data" file.
//
// Entries have the form
//
//	0.0  10.0  20.0      =: output_times
//
// Lines without the "=:" marker and lines starting with '#' are ignored.
type DataFile map[string][]string

// ParseDataFile reads a Clawpack ".data" file.
func ParseDataFile(r io.Reader) (DataFile, error) {
	d := make(DataFile)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values, name, ok := strings.Cut(line, "=:")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("line %d: entry without a name", lineNo)
		}
		d[name] = strings.Fields(values)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// Has reports whether the entry exists.
func (d DataFile) Has(name string) bool {
	_, ok := d[name]
	return ok
}

func (d DataFile) scalar(name string) (string, error) {
	v, ok := d[name]
	if !ok {
		return "", fmt.Errorf("%s: not set", name)
	}
	if len(v) != 1 {
		return "", fmt.Errorf("%s: expected one value, got %d", name, len(v))
	}
	return v[0], nil
}

// Int returns an integer entry.
func (d DataFile) Int(name string) (int, error) {
	s, err := d.scalar(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// Float returns a floating-point entry. Fortran exponent forms are accepted.
func (d DataFile) Float(name string) (float64, error) {
	s, err := d.scalar(name)
	if err != nil {
		return 0, err
	}
	v, err := parseFortranFloat(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// Floats returns a list entry.
func (d DataFile) Floats(name string) ([]float64, error) {
	raw, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("%s: not set", name)
	}
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := parseFortranFloat(s)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Bool returns a logical entry (T/F, True/False, 1/0).
func (d DataFile) Bool(name string) (bool, error) {
	s, err := d.scalar(name)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.Trim(s, ".")) {
	case "t", "true", "1":
		return true, nil
	case "f", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%s: invalid logical %q", name, s)
}

// parseFortranFloat parses a real as written by Fortran list-directed and
// formatted output, including "1.5D+02" and the exponent-letter-less form
// "1.0-100" used for three-digit exponents.
func parseFortranFloat(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	fixed := strings.NewReplacer("D", "E", "d", "E").Replace(s)
	if v, err := strconv.ParseFloat(fixed, 64); err == nil {
		return v, nil
	}
	if i := strings.LastIndexAny(fixed, "+-"); i > 0 && fixed[i-1] != 'E' && fixed[i-1] != 'e' {
		if v, err := strconv.ParseFloat(fixed[:i]+"E"+fixed[i:], 64); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("invalid number %q", s)
}
