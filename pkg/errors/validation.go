package errors

import (
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ValidateFrameRange checks a half-open frame range [bg, ed).
// A negative start is an input error; ed <= bg is an empty range.
func ValidateFrameRange(bg, ed int) error {
	if bg < 0 {
		return New(ErrCodeInvalidInput, "frame-bg must be >= 0, got %d", bg)
	}
	if ed <= bg {
		return EmptyRange(bg, ed, "end frame must be greater than the beginning frame")
	}
	return nil
}

// ValidateDryTolerance checks that a dry tolerance is finite and non-negative.
func ValidateDryTolerance(tol float64) error {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		return New(ErrCodeInvalidInput, "dry tolerance must be a finite value >= 0, got %g", tol)
	}
	return nil
}

// ValidateNoData checks that the nodata sentinel is a finite number.
// NaN cannot be compared for equality and is therefore rejected.
func ValidateNoData(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "nodata value must be finite, got %g", v)
	}
	return nil
}

// ValidateOutputPath validates the path of a NetCDF artifact.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Must not name a directory (trailing separator)
//   - Extension must be .nc
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidPath, "output path must name a file, not a directory")
	}

	if ext := filepath.Ext(path); ext != ".nc" {
		return New(ErrCodeInvalidPath, "output file must have the .nc extension, got %q", ext)
	}

	return nil
}

// variableNameRegex matches names accepted by the CF conventions.
var variableNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reservedNames are the coordinate variables of every artifact.
var reservedNames = map[string]bool{"x": true, "y": true, "time": true}

// ValidateVariableName validates the name of the NetCDF data variable.
func ValidateVariableName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "variable name cannot be empty")
	}
	if !variableNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid variable name: %q", name)
	}
	if reservedNames[name] {
		return New(ErrCodeInvalidInput, "variable name %q is reserved for a coordinate", name)
	}
	return nil
}
