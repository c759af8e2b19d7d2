package apierr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("searching: %w", Upstream("getFilesByQuickFilter", "invalid token"))
	if got := KindOf(err); got != KindUpstream {
		t.Errorf("KindOf = %q, want %q", got, KindUpstream)
	}
	if !Is(err, KindUpstream) {
		t.Error("Is(KindUpstream) = false")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain error should have no kind")
	}
}

func TestTransportStripsURL(t *testing.T) {
	cause := errors.New("connection refused")
	ue := &url.Error{Op: "Get", URL: "https://sme.example.com/api/?token=secret", Err: cause}

	err := Transport("getFileURL", ue)
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("transport error leaks token: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("transport error should unwrap to the network cause")
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(Validation("type parameter must be set")); got != "type parameter must be set" {
		t.Errorf("validation message = %q", got)
	}
	got := PublicMessage(Parse("getFilemetadata", errors.New("XML syntax error on line 1")))
	if got != "getFilemetadata: unexpected upstream response" {
		t.Errorf("parse message = %q", got)
	}
	if got := PublicMessage(Upstream("getAllTags", "")); !strings.Contains(got, "error status") {
		t.Errorf("empty upstream message = %q", got)
	}
}
