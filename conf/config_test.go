package conf

import (
	"os"
	"testing"
)

func TestGetEnvFallsBackToEnvironment(t *testing.T) {
	const key = "DATASYNTH_TEST_FALLBACK"
	if err := os.Setenv(key, "from-environment"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = UnsetEnv(t, key)
	}()

	if got := GetEnv(key); got != "from-environment" {
		t.Errorf("GetEnv() = %v, want %v", got, "from-environment")
	}
}

func TestSetEnvAndUnsetEnv(t *testing.T) {
	const key = "DATASYNTH_TEST_SET"

	if err := SetEnv(t, key, "abc"); err != nil {
		t.Fatal(err)
	}
	if got := GetEnv(key); got != "abc" {
		t.Errorf("GetEnv() after SetEnv = %v, want abc", got)
	}

	if err := UnsetEnv(t, key); err != nil {
		t.Fatal(err)
	}
	if got := GetEnv(key); got != "" {
		t.Errorf("GetEnv() after UnsetEnv = %v, want empty", got)
	}
}

func TestLookupEnv(t *testing.T) {
	const key = "DATASYNTH_TEST_LOOKUP"

	if _, ok := LookupEnv(key); ok {
		t.Errorf("LookupEnv() reported unset key %s as present", key)
	}

	if err := SetEnv(t, key, "xyz"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = UnsetEnv(t, key)
	}()

	v, ok := LookupEnv(key)
	if !ok || v != "xyz" {
		t.Errorf("LookupEnv() = %v, %v; want xyz, true", v, ok)
	}
}
