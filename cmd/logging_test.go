package cmd

import (
	"testing"

	"github.com/achilleasa/polaris-accel/log"
)

func TestParseModuleLevel(t *testing.T) {
	type spec struct {
		in        string
		expModule string
		expLevel  log.Level
		expErr    bool
	}
	specs := []spec{
		{"bvh=debug", "bvh", log.Debug, false},
		{" scene = warning ", "scene", log.Warning, false},
		{"wavefront scene reader=error", "wavefront scene reader", log.Error, false},
		{"bvh", "", log.Notice, true},
		{"=debug", "", log.Notice, true},
		{"bvh=loud", "", log.Notice, true},
	}
	for index, s := range specs {
		module, level, err := parseModuleLevel(s.in)
		if s.expErr {
			if err == nil {
				t.Fatalf("[spec %d] expected an error for %q", index, s.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if module != s.expModule || level != s.expLevel {
			t.Fatalf("[spec %d] expected %q at level %d; got %q at level %d", index, s.expModule, s.expLevel, module, level)
		}
	}
}
