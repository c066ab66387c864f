package graph

import (
	"net/url"
	"regexp"
	"strings"
)

// encodedSeq matches a percent-encoded byte. Used to detect filter values
// the caller has already encoded.
var encodedSeq = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// BuildQueryString serialises query parameters for a Graph request.
//
// The $filter parameter is assembled separately from the generic
// serialiser: OData filter expressions carry quotes and comparison
// operators that must survive exactly one level of percent-encoding,
// and callers sometimes hand over values they encoded themselves.
func BuildQueryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	values := url.Values{}
	var filter string
	var hasFilter bool
	for k, v := range params {
		if k == "$filter" {
			filter = v
			hasFilter = true
			continue
		}
		values.Set(k, v)
	}

	query := values.Encode()
	if hasFilter {
		if query != "" {
			query += "&"
		}
		query += "$filter=" + EncodeFilter(filter)
	}
	if query == "" {
		return ""
	}
	return "?" + query
}

// EncodeFilter percent-encodes an OData filter expression exactly once.
// Values containing percent-encoded sequences pass through verbatim so a
// pre-encoded filter is never double-encoded.
func EncodeFilter(value string) string {
	if encodedSeq.MatchString(value) {
		return value
	}
	// QueryEscape uses '+' for spaces; Graph expects %20 inside $filter.
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
