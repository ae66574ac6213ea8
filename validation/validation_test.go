package validation

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/scopekit/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "scopekit")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("name", "   ")
	if !v2.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"run", "node"}

	if New().OneOf("lifespan", "node", allowed).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if New().OneOf("lifespan", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	v := New().OneOf("lifespan", "forever", allowed)
	if !v.HasErrors() {
		t.Fatal("expected error for disallowed value")
	}
	if !strings.Contains(v.Errors()[0].Message, "run, node") {
		t.Errorf("unexpected message %q", v.Errors()[0].Message)
	}
}

func TestValidatorNonNegative(t *testing.T) {
	if New().NonNegative("timeout", time.Second).HasErrors() {
		t.Error("expected no error for positive duration")
	}
	if !New().NonNegative("timeout", -time.Second).HasErrors() {
		t.Error("expected error for negative duration")
	}
}

func TestValidatorValidate(t *testing.T) {
	if New().Validate() != nil {
		t.Error("expected nil for no errors")
	}

	v := New().Required("name", "").Custom(false, "docker.host", "is unreachable")
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeConfiguration {
		t.Errorf("expected configuration code, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "name: is required") || !strings.Contains(appErr.Message, "docker.host") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestValidatorMerge(t *testing.T) {
	inner := New().Required("host", "").Validate()

	v := New().Merge("docker", inner).Merge("logging", stderrors.New("bad level")).Merge("x", nil)
	got := v.Errors()
	if len(got) != 2 {
		t.Fatalf("expected 2 errors, got %v", got)
	}
	if got[0].Field != "docker.host" || got[1].Field != "logging" {
		t.Errorf("unexpected fields %v", got)
	}
}

type dockerSection struct {
	Host        string        `mapstructure:"host" validate:"required"`
	PingTimeout time.Duration `mapstructure:"ping_timeout" validate:"gte=0"`
}

type sample struct {
	Name       string        `mapstructure:"name" validate:"required"`
	Docker     dockerSection `mapstructure:"docker"`
	SampleRate float64       `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

func TestStructValidateValid(t *testing.T) {
	err := Validate(sample{Name: "svc", Docker: dockerSection{Host: "unix:///var/run/docker.sock"}, SampleRate: 0.5})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	err := Validate(sample{Docker: dockerSection{PingTimeout: -1}, SampleRate: 3})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"name: is required", "docker.host: is required", "docker.ping_timeout", "sample_rate"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestRegisterTag(t *testing.T) {
	type lifespanOnly struct {
		Lifespan string `mapstructure:"shared_lifespan" validate:"test_lifespan"`
	}
	if err := RegisterTag("test_lifespan", func(s string) bool { return s == "run" || s == "node" }); err != nil {
		t.Fatal(err)
	}
	if err := Validate(lifespanOnly{Lifespan: "run"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Validate(lifespanOnly{Lifespan: "forever"}); err == nil {
		t.Error("expected error for unknown lifespan")
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("PingTimeout"); got != "ping_timeout" {
		t.Errorf("expected ping_timeout, got %s", got)
	}
}
