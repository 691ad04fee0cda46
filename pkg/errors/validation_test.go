package errors

import (
	"math"
	"testing"
)

func TestValidateFrameRange(t *testing.T) {
	tests := []struct {
		name     string
		bg, ed   int
		wantCode Code
	}{
		{"valid", 0, 3, ""},
		{"single frame", 4, 5, ""},
		{"negative start", -1, 3, ErrCodeInvalidInput},
		{"empty", 2, 2, ErrCodeEmptyRange},
		{"reversed", 5, 2, ErrCodeEmptyRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrameRange(tt.bg, tt.ed)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateFrameRange(%d, %d) code = %q, want %q", tt.bg, tt.ed, got, tt.wantCode)
			}
		})
	}
}

func TestValidateDryTolerance(t *testing.T) {
	tests := []struct {
		input   float64
		wantErr bool
	}{
		{0, false},
		{1e-4, false},
		{-1e-4, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}

	for _, tt := range tests {
		err := ValidateDryTolerance(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDryTolerance(%g) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateNoData(t *testing.T) {
	if err := ValidateNoData(-9999); err != nil {
		t.Errorf("ValidateNoData(-9999) = %v", err)
	}
	if err := ValidateNoData(math.NaN()); err == nil {
		t.Error("ValidateNoData(NaN) should fail")
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "case-level02.nc", false},
		{"absolute", "/data/out/case.nc", false},
		{"nested", "out/case.nc", false},

		{"empty", "", true},
		{"directory", "out/", true},
		{"wrong extension", "case.tif", true},
		{"no extension", "case", true},
		{"control char", "case\x01.nc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVariableName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"depth", false},
		{"water_depth", false},
		{"h2", false},

		{"", true},
		{"2h", true},
		{"water depth", true},
		{"time", true},
		{"x", true},
	}

	for _, tt := range tests {
		err := ValidateVariableName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVariableName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
