package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("RELWATCH_TEST_TOKEN", "sekrit")
	t.Setenv("RELWATCH_TEST_PADDED", "  padded  ")
	os.Unsetenv("RELWATCH_TEST_UNSET")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "token: ${RELWATCH_TEST_TOKEN}", "token: sekrit"},
		{"set variable ignores default", "token: ${RELWATCH_TEST_TOKEN:-fallback}", "token: sekrit"},
		{"unset with default", "host: ${RELWATCH_TEST_UNSET:-localhost}", "host: localhost"},
		{"unset without default", "host: ${RELWATCH_TEST_UNSET}", "host: "},
		{"empty default", "host: ${RELWATCH_TEST_UNSET:-}", "host: "},
		{"value is trimmed", "v: ${RELWATCH_TEST_PADDED}", "v: padded"},
		{"no placeholders", "plain: text", "plain: text"},
		{"multiple placeholders", "${RELWATCH_TEST_TOKEN}/${RELWATCH_TEST_UNSET:-x}", "sekrit/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnv(tt.in, false)
			if err != nil {
				t.Fatalf("ExpandEnv failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict(t *testing.T) {
	os.Unsetenv("RELWATCH_TEST_UNSET")

	_, err := ExpandEnv("token: ${RELWATCH_TEST_UNSET}", true)
	if !errors.Is(err, ErrUnsetVariable) {
		t.Errorf("expected ErrUnsetVariable, got: %v", err)
	}

	// A default satisfies strict mode.
	got, err := ExpandEnv("token: ${RELWATCH_TEST_UNSET:-ok}", true)
	if err != nil {
		t.Fatalf("ExpandEnv failed: %v", err)
	}
	if got != "token: ok" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genName := gen.RegexMatch(`^RELWATCH_PROP_[A-Z]{1,8}$`)
	genValue := gen.RegexMatch(`^[a-z0-9./-]{1,20}$`)

	properties.Property("set variables always expand to their value", prop.ForAll(
		func(name, value string) bool {
			t.Setenv(name, value)
			defer os.Unsetenv(name)

			got, err := ExpandEnv(fmt.Sprintf("x: ${%s}", name), true)
			return err == nil && got == "x: "+value
		},
		genName, genValue,
	))

	properties.Property("text without placeholders is unchanged", prop.ForAll(
		func(text string) bool {
			if strings.Contains(text, "${") {
				return true
			}
			got, err := ExpandEnv(text, true)
			return err == nil && got == text
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
