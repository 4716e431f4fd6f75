package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trezcool/shule/core/org"
	"github.com/trezcool/shule/core/transfer"
	testutil "github.com/trezcool/shule/tests"
)

func setupServer(t *testing.T) (*testutil.Fixture, Server) {
	f := testutil.NewFixture(t)
	srv := NewServer(&Options{
		Address:        "localhost:0",
		DisableReqLogs: true,
		Logger:         testutil.Logger{T: t},
		TransferSvc:    f.NewTransferService(t, new(testutil.EventRecorder)),
		MemberRepo:     f.Members(),
		SignalShutdown: func() { t.Error("unexpected shutdown signal") },
	})
	return f, srv
}

func request(t *testing.T, srv Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body failed: %v", err)
		}
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, actor org.Actor) string {
	token, err := GenerateToken(NewActorClaims(actor, actor.ID))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}

func TestServer(t *testing.T) {
	supervisor := org.Actor{ID: "sup1", Role: org.RoleSupervisor}
	coordPrimM := org.Actor{ID: "actor-prim-m", Role: org.RoleCoordinator}

	t.Run("home", func(t *testing.T) {
		_, srv := setupServer(t)
		rec := request(t, srv, http.MethodGet, "/", "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d; want 200", rec.Code)
		}
	})

	t.Run("auth required", func(t *testing.T) {
		f, srv := setupServer(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		rec := request(t, srv, http.MethodGet, "/v1/members/"+s.ID, "", nil)
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d; want 400 or 401 without a token", rec.Code)
		}

		rec = request(t, srv, http.MethodGet, "/v1/members/"+s.ID, tokenFor(t, supervisor), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want 200; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("transfer workflow over HTTP", func(t *testing.T) {
		f, srv := setupServer(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)
		supToken := tokenFor(t, supervisor)

		rec := request(t, srv, http.MethodPost, "/v1/transfers/class", supToken, map[string]string{
			"member_id":       s.ID,
			"to_classroom_id": f.RoomP6MB.ID,
			"reason":          "seat change",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var created transfer.ClassTransfer
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshaling response failed: %v", err)
		}
		if created.Status != transfer.StatusPending {
			t.Errorf("Status = %q; want pending", created.Status)
		}

		rec = request(t, srv, http.MethodGet, "/v1/transfers/class/"+created.ID+"/steps", supToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("steps: code = %d; body: %s", rec.Code, rec.Body.String())
		}

		// the supervisor is not the routed coordinator
		rec = request(t, srv, http.MethodPost, "/v1/transfers/class/"+created.ID+"/approve", supToken, map[string]string{"comment": "ok"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("approve by supervisor: code = %d; want 403", rec.Code)
		}

		rec = request(t, srv, http.MethodPost, "/v1/transfers/class/"+created.ID+"/approve", tokenFor(t, coordPrimM), map[string]string{"comment": "ok"})
		if rec.Code != http.StatusOK {
			t.Fatalf("approve: code = %d; body: %s", rec.Code, rec.Body.String())
		}

		// terminal now
		rec = request(t, srv, http.MethodPost, "/v1/transfers/class/"+created.ID+"/cancel", supToken, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("cancel after approval: code = %d; want 409", rec.Code)
		}

		rec = request(t, srv, http.MethodGet, "/v1/transfers/class/unknown-id", supToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("get unknown: code = %d; want 404", rec.Code)
		}
		rec = request(t, srv, http.MethodGet, "/v1/transfers/bogus/some-id", supToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("unknown kind: code = %d; want 404", rec.Code)
		}
	})

	t.Run("identifier preview", func(t *testing.T) {
		f, srv := setupServer(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)
		token := tokenFor(t, supervisor)

		rec := request(t, srv, http.MethodPost, "/v1/identifiers/preview", token, map[string]string{
			"member_id":   s.ID,
			"campus_code": "C02",
			"shift_code":  "A",
			"year_code":   "24",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
		}
		var preview struct {
			OldID string                     `json:"old_id"`
			NewID string                     `json:"new_id"`
			Diff  map[string]json.RawMessage `json:"diff"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
			t.Fatalf("unmarshaling response failed: %v", err)
		}
		if preview.NewID != "C02-A-24-0007" {
			t.Errorf("NewID = %q; want C02-A-24-0007", preview.NewID)
		}
		if len(preview.Diff) != 2 { // campus + shift
			t.Errorf("Diff = %v; want 2 entries", preview.Diff)
		}

		// neither member_id nor code
		rec = request(t, srv, http.MethodPost, "/v1/identifiers/preview", token, map[string]string{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400", rec.Code)
		}

		// malformed code
		rec = request(t, srv, http.MethodPost, "/v1/identifiers/preview", token, map[string]string{
			"code": "oops", "campus_code": "C02",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d; want 400", rec.Code)
		}

		rec = request(t, srv, http.MethodGet, fmt.Sprintf("/v1/members/%s/history", s.ID), token, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("history: code = %d; body: %s", rec.Code, rec.Body.String())
		}
	})
}
