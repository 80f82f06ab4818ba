package main

import (
	"testing"

	"github.com/joshyorko/swarmdash/common"
)

func TestExitProtectionPassesForeignPanics(t *testing.T) {
	defer func() {
		if status := recover(); status != "boom" {
			t.Errorf("expected foreign panic to pass through, got %v", status)
		}
	}()
	func() {
		defer ExitProtection()
		panic("boom")
	}()
}

func TestExitProtectionWithoutPanic(t *testing.T) {
	func() {
		defer ExitProtection()
		common.Log("nothing to recover")
	}()
}
