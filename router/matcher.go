package router

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// pathMatcher matches request paths against one path template.
type pathMatcher struct {
	template   string
	regex      *regexp.Regexp
	paramNames []string

	// wildcards counts the segments holding at least one parameter.
	wildcards int
}

// newPathMatcher compiles a template like "/pets/{petId}" or
// "/files/{name}.{ext}". Each parameter matches one or more characters of
// a single segment. Literal text is matched in its escaped form, since
// request paths arrive escaped.
func newPathMatcher(template string) (*pathMatcher, error) {
	if template == "" {
		return nil, fmt.Errorf("path template cannot be empty")
	}

	var regexBuf strings.Builder
	regexBuf.WriteString("^")
	var paramNames []string

	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			end := strings.IndexByte(template[i:], '}')
			if end == -1 {
				return nil, fmt.Errorf("unclosed path parameter at position %d in template %q", i, template)
			}
			name := template[i+1 : i+end]
			if name == "" {
				return nil, fmt.Errorf("empty path parameter at position %d in template %q", i, template)
			}
			for _, existing := range paramNames {
				if existing == name {
					return nil, fmt.Errorf("duplicate path parameter %q in template %q", name, template)
				}
			}
			paramNames = append(paramNames, name)
			regexBuf.WriteString("([^/]+?)")
			i += end + 1
		case '}':
			return nil, fmt.Errorf("unexpected '}' at position %d in template %q", i, template)
		default:
			end := strings.IndexAny(template[i:], "{}")
			if end == -1 {
				end = len(template) - i
			}
			lit := (&url.URL{Path: template[i : i+end]}).EscapedPath()
			regexBuf.WriteString(regexp.QuoteMeta(lit))
			i += end
		}
	}
	regexBuf.WriteString("$")

	regex, err := regexp.Compile(regexBuf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile path pattern for template %q: %w", template, err)
	}
	wildcards := 0
	for _, seg := range strings.Split(template, "/") {
		if strings.Contains(seg, "{") {
			wildcards++
		}
	}
	return &pathMatcher{template: template, regex: regex, paramNames: paramNames, wildcards: wildcards}, nil
}

// match reports whether path matches and extracts the unescaped parameter
// values. path is expected in its escaped form.
func (pm *pathMatcher) match(path string) (map[string]string, bool) {
	matches := pm.regex.FindStringSubmatch(path)
	if matches == nil || len(matches) != len(pm.paramNames)+1 {
		return nil, false
	}
	params := make(map[string]string, len(pm.paramNames))
	for i, name := range pm.paramNames {
		value, err := url.PathUnescape(matches[i+1])
		if err != nil {
			return nil, false
		}
		params[name] = value
	}
	return params, true
}
