package parkes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) Handler {
		return func(c *Context, next Next) error {
			order = append(order, name+">")
			err := next()
			order = append(order, "<"+name)
			return err
		}
	}
	h := Chain(zerolog.Nop(), mk("a"), mk("b"), func(c *Context, next Next) error {
		c.JSON(0, map[string]int{"n": 1})
		return next()
	})
	rr := do(t, h, "GET", "/")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"n":1}` {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
	if got := strings.Join(order, " "); got != "a> b> <b <a" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestNextCalledTwice(t *testing.T) {
	var second error
	h := Chain(zerolog.Nop(), func(c *Context, next Next) error {
		if err := next(); err != nil {
			return err
		}
		second = next()
		return nil
	}, func(c *Context, next Next) error {
		c.SetBody("ok")
		return next()
	})
	do(t, h, "GET", "/")
	if !errors.Is(second, ErrNextCalledTwice) {
		t.Fatalf("expected ErrNextCalledTwice, got %v", second)
	}
}

func TestHeadersSetAfterNextReachClient(t *testing.T) {
	h := Chain(zerolog.Nop(), func(c *Context, next Next) error {
		err := next()
		c.SetHeader("X-After", "yes")
		return err
	}, func(c *Context, next Next) error {
		c.W.WriteHeader(http.StatusTeapot)
		_, _ = c.W.Write([]byte("short and stout"))
		return next()
	})
	rr := do(t, h, "GET", "/")
	if rr.Code != http.StatusTeapot || rr.Body.String() != "short and stout" {
		t.Fatalf("raw writes not flushed: %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-After") != "yes" {
		t.Fatalf("header set after next was lost")
	}
}

func TestStatusWithoutBody(t *testing.T) {
	h := Chain(zerolog.Nop(), func(c *Context, next Next) error {
		c.Status(http.StatusNoContent)
		return next()
	})
	if rr := do(t, h, "DELETE", "/"); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestUnencodableBodyIs500(t *testing.T) {
	h := Chain(zerolog.Nop(), func(c *Context, next Next) error {
		c.SetBody(map[string]any{"ch": make(chan int)})
		return next()
	})
	if rr := do(t, h, "GET", "/"); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"http error", NewHTTPError(http.StatusConflict, "taken"), http.StatusConflict, "taken"},
		{"wrapped http error", errors.Join(errors.New("ctx"), NotFound("post", 3)), http.StatusNotFound, "post 3 not found"},
		{"plain error", errors.New("secret detail"), http.StatusInternalServerError, "Internal Server Error"},
		{"status only", &HTTPError{Status: http.StatusUnauthorized}, http.StatusUnauthorized, "Unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Chain(zerolog.Nop(), func(c *Context, next Next) error { return tc.err })
			rr := do(t, h, "GET", "/")
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var body map[string]string
			decode(t, rr, &body)
			if body["error"] != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, body["error"])
			}
		})
	}
}

func TestContextParamInt(t *testing.T) {
	r := NewRouter(Options{})
	r.Get("/items/:item", func(c *Context, next Next) error {
		id, err := c.ParamInt("item")
		if err != nil {
			return err
		}
		c.SetBody(id)
		return next()
	})
	if rr := do(t, r, "GET", "/items/12"); strings.TrimSpace(rr.Body.String()) != "12" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if rr := do(t, r, "GET", "/items/abc"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestContextBindJSON(t *testing.T) {
	h := Chain(zerolog.Nop(), func(c *Context, next Next) error {
		var in struct {
			Name string `json:"name"`
		}
		if err := c.BindJSON(&in); err != nil {
			return err
		}
		c.JSON(http.StatusCreated, map[string]string{"name": in.Name})
		return next()
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ada"}`)))
	if rr.Code != http.StatusCreated || !strings.Contains(rr.Body.String(), "ada") {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(`{`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}
}

func TestContextStateAndFromRequest(t *testing.T) {
	h := Chain(zerolog.Nop(), func(c *Context, next Next) error {
		c.Set("user", "ada")
		return next()
	}, func(c *Context, next Next) error {
		same, ok := FromRequest(c.R)
		if !ok || same != c {
			t.Fatalf("expected the request to carry the Context")
		}
		v, _ := c.Get("user")
		c.SetBody(v)
		return next()
	})
	if rr := do(t, h, "GET", "/"); strings.TrimSpace(rr.Body.String()) != `"ada"` {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestParseAction(t *testing.T) {
	for _, a := range AllActions {
		got, err := ParseAction(a.String())
		if err != nil || got != a {
			t.Fatalf("ParseAction(%s) = %v, %v", a, got, err)
		}
	}
	if _, err := ParseAction("edit"); err == nil || !strings.Contains(err.Error(), "valid actions are index, show, create, update, destroy") {
		t.Fatalf("unexpected error %v", err)
	}
	if Action(0).Valid() || Action(9).Valid() {
		t.Fatalf("expected out-of-range actions to be invalid")
	}
}
