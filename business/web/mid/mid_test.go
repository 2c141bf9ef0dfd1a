package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ledgerd/powchain/business/sys/validate"
	"github.com/ledgerd/powchain/business/web/errs"
	"github.com/ledgerd/powchain/business/web/mid"
	"github.com/ledgerd/powchain/foundation/web"
	"go.uber.org/zap"
)

func Test_Errors(t *testing.T) {
	log := zap.NewNop().Sugar()

	type table struct {
		name   string
		err    error
		status int
		msg    string
		fields bool
	}

	tt := []table{
		{name: "trusted", err: errs.NewTrusted(errors.New("no pending transactions"), http.StatusBadRequest), status: http.StatusBadRequest, msg: "no pending transactions"},
		{name: "conflict", err: errs.NewTrusted(errors.New("chain forked"), http.StatusConflict), status: http.StatusConflict, msg: "chain forked"},
		{name: "fields", err: validate.FieldErrors{{Field: "amount", Error: "amount must be greater than 0"}}, status: http.StatusBadRequest, msg: "data validation error", fields: true},
		{name: "untrusted", err: errors.New("disk on fire"), status: http.StatusInternalServerError, msg: http.StatusText(http.StatusInternalServerError)},
		{name: "panic", status: http.StatusInternalServerError, msg: http.StatusText(http.StatusInternalServerError)},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				if tst.err == nil {
					panic("boom")
				}
				return tst.err
			}
			app.Handle(http.MethodGet, "v1", "/fail", h)

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/fail", nil))

			if w.Code != tst.status {
				t.Fatalf("Test %s:\tShould get status %d, got %d", tst.name, tst.status, w.Code)
			}

			var resp errs.Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Test %s:\tShould decode the error response: %v", tst.name, err)
			}

			if resp.Error != tst.msg {
				t.Fatalf("Test %s:\tShould get message %q, got %q", tst.name, tst.msg, resp.Error)
			}

			if tst.fields && resp.Fields["amount"] == "" {
				t.Fatalf("Test %s:\tShould get back the field errors, got %v", tst.name, resp.Fields)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Cors(t *testing.T) {
	app := web.NewApp(make(chan os.Signal, 1), mid.Cors("*"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
	app.Handle(http.MethodGet, "v1", "/ping", h)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("Should get status %d, got %d", http.StatusNoContent, w.Code)
	}

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Should set the allowed origin, got %q", got)
	}
}
