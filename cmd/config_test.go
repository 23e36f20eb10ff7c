package cmd

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSetConfigValueRejectsUnknownKey(t *testing.T) {
	if err := SetConfigValue("no_such_knob", "1"); err == nil {
		t.Error("SetConfigValue() with unknown key should fail")
	}
}

func TestSetConfigValueRollsBackInvalidValue(t *testing.T) {
	setDefaults()
	before := viper.Get("planning.maxSubtasks")

	if err := SetConfigValue("max_subtasks", "not-a-number"); err == nil {
		t.Fatal("SetConfigValue() with non-numeric value should fail")
	}
	if got := viper.Get("planning.maxSubtasks"); got != before {
		t.Errorf("maxSubtasks = %v after failed set, want %v", got, before)
	}
}

func TestConfigKeyTable(t *testing.T) {
	want := []string{
		"auto_planning_enabled",
		"max_recursion_depth",
		"max_subtasks",
		"verification_enabled",
		"retry_failed_subtasks",
	}
	for _, key := range want {
		if _, ok := configKeys[key]; !ok {
			t.Errorf("config key %q not recognized", key)
		}
	}
}
