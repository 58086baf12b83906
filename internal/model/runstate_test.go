package model

import "testing"

func TestRunStateVar_SetReportsChange(t *testing.T) {
	var v RunStateVar

	if v.Get() != RunStopped {
		t.Fatal("zero value must be stopped")
	}
	if !v.Set(RunRunning) {
		t.Error("transition stopped→running must report change")
	}
	if v.Set(RunRunning) {
		t.Error("redundant set must not report change")
	}
	if v.Get() != RunRunning {
		t.Error("state lost")
	}
	if !v.Set(RunStopped) {
		t.Error("transition running→stopped must report change")
	}
}

func TestRunState_String(t *testing.T) {
	if RunStopped.String() != "stopped" || RunRunning.String() != "running" {
		t.Errorf("got %q / %q", RunStopped, RunRunning)
	}
}
