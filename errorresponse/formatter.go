package errorresponse

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/erraggy/oasguard/httpvalidator"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind tags a formatter variant.
type Kind int

// Kind constants.
const (
	KindDefault Kind = iota
	KindJSONAPI
	KindCustom
)

// String returns the registry name of built-in kinds.
func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindJSONAPI:
		return "jsonapi"
	default:
		return "custom"
	}
}

// Media types of the built-in formatters.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeJSONAPI = "application/vnd.api+json"
)

// Rendered is a complete error response.
type Rendered struct {
	Status      int
	ContentType string
	Body        []byte
}

// Write sends the rendered response.
func (r Rendered) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", r.ContentType)
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// Formatter turns failures into an error response with the given status.
type Formatter interface {
	Kind() Kind
	Render(status int, failures []httpvalidator.Failure) (Rendered, error)
}

// Entry is one element of the "errors" array.
type Entry struct {
	Status string            `json:"status"`
	Source map[string]string `json:"source,omitempty"`
	Title  string            `json:"title"`
}

// Document is the error body.
type Document struct {
	Errors []Entry `json:"errors"`
}

// Default renders failures as application/json. Source keys derive from
// each failure's kind.
type Default struct{}

// Kind returns KindDefault.
func (Default) Kind() Kind { return KindDefault }

// Render implements Formatter.
func (Default) Render(status int, failures []httpvalidator.Failure) (Rendered, error) {
	return render(status, ContentTypeJSON, failures, func(f httpvalidator.Failure) string {
		switch f.Kind {
		case httpvalidator.KindInvalidBody, httpvalidator.KindInvalidResponse:
			return "pointer"
		case httpvalidator.KindInvalidPath, httpvalidator.KindInvalidQuery:
			return "parameter"
		case httpvalidator.KindInvalidHeader:
			return "header"
		case httpvalidator.KindInvalidCookie:
			return "cookie"
		default:
			return ""
		}
	})
}

// JSONAPI renders failures as application/vnd.api+json. Source keys derive
// from each failure's location, so response header failures are keyed
// "header".
type JSONAPI struct{}

// Kind returns KindJSONAPI.
func (JSONAPI) Kind() Kind { return KindJSONAPI }

// Render implements Formatter.
func (JSONAPI) Render(status int, failures []httpvalidator.Failure) (Rendered, error) {
	return render(status, ContentTypeJSONAPI, failures, func(f httpvalidator.Failure) string {
		if f.Kind == httpvalidator.KindRouteNotFound {
			return ""
		}
		switch f.Location {
		case httpvalidator.LocationBody:
			return "pointer"
		case httpvalidator.LocationPath, httpvalidator.LocationQuery:
			return "parameter"
		case httpvalidator.LocationHeader:
			return "header"
		case httpvalidator.LocationCookie:
			return "cookie"
		default:
			return ""
		}
	})
}

// Entries builds the "errors" array. sourceKey returns "" for failures
// that carry no source. A summary message that accompanies located errors
// follows them as an entry without a source.
func Entries(status int, failures []httpvalidator.Failure, sourceKey func(httpvalidator.Failure) string) []Entry {
	code := strconv.Itoa(status)
	var entries []Entry
	for _, f := range failures {
		key := sourceKey(f)
		if f.Result == nil || len(f.Result.Errors()) == 0 || key == "" {
			entries = append(entries, Entry{Status: code, Title: summary(f)})
			continue
		}
		for _, d := range f.Result.Errors() {
			value := d.InstanceLocation
			if key != "pointer" {
				value = strings.TrimPrefix(value, "/")
			}
			entries = append(entries, Entry{
				Status: code,
				Source: map[string]string{key: value},
				Title:  d.Message,
			})
		}
		if msg := f.Result.RawOutput().Message; msg != "" {
			entries = append(entries, Entry{Status: code, Title: msg})
		}
	}
	if len(entries) == 0 {
		entries = append(entries, Entry{Status: code, Title: http.StatusText(status)})
	}
	return entries
}

// summary is the title of a failure without located errors.
func summary(f httpvalidator.Failure) string {
	if f.Result != nil {
		if msg := f.Result.ErrorMessage(); msg != "" {
			return msg
		}
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return cases.Title(language.English).String(strings.ReplaceAll(f.Kind.String(), "_", " "))
}

func render(status int, contentType string, failures []httpvalidator.Failure, sourceKey func(httpvalidator.Failure) string) (Rendered, error) {
	body, err := json.Marshal(Document{Errors: Entries(status, failures, sourceKey)})
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Status: status, ContentType: contentType, Body: body}, nil
}
