package oracle_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tomoya-namekawa/tf-style-check/internal/oracle"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/safety"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func registryStub(t *testing.T, hits *int32, versions ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != "/v1/providers/hashicorp/aws/versions" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"versions":[`)
		for i, v := range versions {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"version":%q}`, v)
		}
		fmt.Fprint(w, `]}`)
	}))
}

func TestIsVersionValid(t *testing.T) {
	srv := registryStub(t, nil, "2.70.0", "3.0.0", "3.38.0", "4.0.0", "5.31.0")
	defer srv.Close()

	client := oracle.New(oracle.WithBaseURL(srv.URL), oracle.WithLogger(quietLogger()))

	tests := []struct {
		constraint string
		want       safety.Verdict
	}{
		{">= 3.0, < 5.0", safety.VerdictValid},
		{"~> 4.0", safety.VerdictValid},
		{">= 1.0", safety.VerdictTooPermissive},
		{"> 99.0", safety.VerdictTooRestrictive},
		{"= 3.5.7", safety.VerdictTooRestrictive},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			got, err := client.IsVersionValid("aws", tt.constraint)
			if err != nil {
				t.Fatalf("IsVersionValid() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsVersionValid(%q) = %s, want %s", tt.constraint, got, tt.want)
			}
		})
	}
}

func TestIsVersionValidInvalidConstraint(t *testing.T) {
	client := oracle.New(oracle.WithBaseURL("http://127.0.0.1:0"), oracle.WithLogger(quietLogger()))

	got, err := client.IsVersionValid("aws", "not a constraint")
	if err == nil {
		t.Fatal("expected error for malformed constraint")
	}
	if got != safety.VerdictUnresolvable {
		t.Errorf("verdict = %s, want unresolvable", got)
	}
}

func TestIsVersionValidCachesPerProvider(t *testing.T) {
	var hits int32
	srv := registryStub(t, &hits, "3.0.0", "4.0.0")
	defer srv.Close()

	client := oracle.New(oracle.WithBaseURL(srv.URL), oracle.WithLogger(quietLogger()))

	for i := 0; i < 3; i++ {
		if _, err := client.IsVersionValid("aws", ">= 3.0, < 4.0"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("registry hit %d times, want 1", got)
	}
}

func TestIsVersionValidRetriesThenFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := oracle.New(
		oracle.WithBaseURL(srv.URL),
		oracle.WithLogger(quietLogger()),
		oracle.WithRetries(2, 0),
	)

	got, err := client.IsVersionValid("aws", ">= 1.0")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if got != safety.VerdictUnresolvable {
		t.Errorf("verdict = %s, want unresolvable", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Errorf("registry hit %d times, want 3 (1 + 2 retries)", hits)
	}
}

func TestIsVersionValidEmptyHistory(t *testing.T) {
	srv := registryStub(t, nil)
	defer srv.Close()

	client := oracle.New(oracle.WithBaseURL(srv.URL), oracle.WithLogger(quietLogger()))

	got, err := client.IsVersionValid("aws", ">= 1.0")
	if err == nil {
		t.Fatal("expected error for empty release history")
	}
	if got != safety.VerdictUnresolvable {
		t.Errorf("verdict = %s, want unresolvable", got)
	}
}
