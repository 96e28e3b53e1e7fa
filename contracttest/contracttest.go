// Package contracttest asserts that a service's responses conform to its
// OpenAPI definition and reports which documented responses a test run
// never exercised.
//
// A typical suite shares one Checker:
//
//	var checker *contracttest.Checker
//
//	func TestMain(m *testing.M) {
//	    def, err := definition.Load("openapi.yaml")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    checker, err = contracttest.New(def)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    os.Exit(m.Run())
//	}
//
//	func TestGetUser(t *testing.T) {
//	    rec := checker.Serve(t, app, httptest.NewRequest("GET", "/users/1", nil))
//	    assert.Equal(t, http.StatusOK, rec.Code)
//	}
//
// Failures are reported through assert.TestingT, so they show up as test
// failures rather than Go errors.
package contracttest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/erraggy/oasguard/coverage"
	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/stretchr/testify/assert"
)

type tHelper interface {
	Helper()
}

// Checker validates responses and tracks coverage across a test run.
// It is safe for concurrent use by parallel tests.
type Checker struct {
	v       *httpvalidator.Validator
	tracker *coverage.Tracker
}

// New creates a Checker for def. Options configure the underlying
// validator; raise mode is always disabled.
func New(def *definition.Definition, opts ...httpvalidator.Option) (*Checker, error) {
	opts = append(opts, httpvalidator.WithRaiseError(false))
	v, err := httpvalidator.New(def, nil, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithValidator(v), nil
}

// NewWithValidator creates a Checker around an existing validator.
func NewWithValidator(v *httpvalidator.Validator) *Checker {
	return &Checker{v: v, tracker: coverage.New(v.Definition())}
}

// Tracker returns the coverage tracker the Checker records into.
func (c *Checker) Tracker() *coverage.Tracker {
	return c.tracker
}

// Validator returns the underlying validator.
func (c *Checker) Validator() *httpvalidator.Validator {
	return c.v
}

// AssertResponse asserts that resp conforms to the operation matched by
// req. The response is recorded for coverage whether or not it conforms.
// resp.Body stays readable.
func (c *Checker) AssertResponse(t assert.TestingT, req *http.Request, resp *http.Response, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	result, err := c.v.ValidateResponse(req, resp)
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("cannot validate response: %v", err), msgAndArgs...)
	}
	return c.check(t, result, msgAndArgs...)
}

// AssertOperation asserts that a response with the given status, headers
// and body conforms to the operation with the given id.
func (c *Checker) AssertOperation(t assert.TestingT, operationID string, status int, header http.Header, body []byte, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	op, ok := c.v.Definition().Operation(operationID)
	if !ok {
		return assert.Fail(t, fmt.Sprintf("operation %q is not documented", operationID), msgAndArgs...)
	}
	result, err := c.v.ValidateResponseData(op, status, header, body)
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("cannot validate response: %v", err), msgAndArgs...)
	}
	return c.check(t, result, msgAndArgs...)
}

// Serve runs req through h, asserts that the recorded response conforms
// and returns the recorder.
func (c *Checker) Serve(t assert.TestingT, h http.Handler, req *http.Request, msgAndArgs ...any) *httptest.ResponseRecorder {
	if th, ok := t.(tHelper); ok {
		th.Helper()
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	c.AssertResponse(t, req, rec.Result(), msgAndArgs...)
	return rec
}

func (c *Checker) check(t assert.TestingT, result *httpvalidator.ResponseResult, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	c.tracker.RecordResponse(result)
	if result.Valid() {
		return true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "response %d of %s does not conform:", result.StatusCode, result.Operation.ID)
	for _, f := range result.Failures {
		b.WriteString("\n\t")
		b.WriteString(f.String())
	}
	return assert.Fail(t, b.String(), msgAndArgs...)
}

// AssertCovered asserts that every documented response was exercised.
func (c *Checker) AssertCovered(t assert.TestingT, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	missing := c.tracker.Unexercised()
	if len(missing) == 0 {
		return true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d documented responses were never exercised:", len(missing))
	for _, p := range missing {
		b.WriteString("\n\t")
		b.WriteString(p.String())
	}
	return assert.Fail(t, b.String(), msgAndArgs...)
}

// AssertExercised asserts that the response status of one operation was
// exercised at least once.
func (c *Checker) AssertExercised(t assert.TestingT, operationID, status string, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if c.tracker.Count(operationID, status) > 0 {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("%s %s was never exercised", operationID, status), msgAndArgs...)
}

// Report returns the coverage report of the run so far.
func (c *Checker) Report() coverage.Report {
	return c.tracker.Report()
}

// Reset clears recorded coverage for a new run.
func (c *Checker) Reset() {
	c.tracker.Reset()
}
