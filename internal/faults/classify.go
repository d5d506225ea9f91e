// Package faults maps any failure - browser faults, network faults, or error
// markers on a rendered page - into a fixed, human-readable taxonomy. Every
// entry point is total: no input can make classification raise, and no raw
// stack trace ever reaches a report.
package faults

import (
	"context"
	"strings"
)

// Category is one entry of the fixed error taxonomy.
type Category string

const (
	NotFound404                Category = "NotFound404"
	Forbidden403               Category = "Forbidden403"
	Unauthorized401            Category = "Unauthorized401"
	ServerError500             Category = "ServerError500"
	BadGateway502              Category = "BadGateway502"
	ServiceUnavailable503      Category = "ServiceUnavailable503"
	GatewayTimeout504          Category = "GatewayTimeout504"
	ConnectionRefused          Category = "ConnectionRefused"
	Timeout                    Category = "Timeout"
	DNSError                   Category = "DnsError"
	SecurityTokenMismatch      Category = "SecurityTokenMismatch"
	ValidationError            Category = "ValidationError"
	RateLimited                Category = "RateLimited"
	MaintenanceMode            Category = "MaintenanceMode"
	UnexpectedApplicationError Category = "UnexpectedApplicationError"
)

// messages is the category -> report message table. The report carries these
// strings, never the underlying technical fault.
var messages = map[Category]string{
	NotFound404:           "Page Not Found (404)",
	Forbidden403:          "Access Forbidden (403)",
	Unauthorized401:       "Authentication Required (401)",
	ServerError500:        "Server Error (500)",
	BadGateway502:         "Bad Gateway (502)",
	ServiceUnavailable503: "Service Unavailable (503)",
	GatewayTimeout504:     "Gateway Timeout (504)",
	ConnectionRefused:     "Connection Refused - Server may be down",
	Timeout:               "Connection Timeout - Server taking too long to respond",
	DNSError:              "DNS Error - Cannot resolve website address",
	SecurityTokenMismatch: "Security Token Error (CSRF)",
	ValidationError:       "Form Validation Error",
	RateLimited:           "Too Many Requests (Rate Limited)",
	MaintenanceMode:       "Site Under Maintenance",
}

// Message returns the report message for a category.
func (c Category) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return string(c)
}

// faultRule matches structured signals in an error string. Status-like
// substrings are checked before free-text phrases so an incidental word on a
// legitimate page cannot shadow a real status code.
type faultRule struct {
	needles  []string
	category Category
}

var faultRules = []faultRule{
	{[]string{"404", "not found"}, NotFound404},
	{[]string{"403", "forbidden"}, Forbidden403},
	{[]string{"401", "unauthorized"}, Unauthorized401},
	{[]string{"500", "internal server error"}, ServerError500},
	{[]string{"502", "bad gateway"}, BadGateway502},
	{[]string{"503", "service unavailable"}, ServiceUnavailable503},
	{[]string{"504", "gateway timeout"}, GatewayTimeout504},
	{[]string{"connection refused", "net::err_connection_refused"}, ConnectionRefused},
	{[]string{"timeout", "deadline exceeded", "net::err_timed_out"}, Timeout},
	{[]string{"net::err_name_not_resolved", "dns", "no such host"}, DNSError},
	{[]string{"csrf"}, SecurityTokenMismatch},
	{[]string{"validation"}, ValidationError},
	{[]string{"too many requests", "rate limit"}, RateLimited},
	{[]string{"maintenance mode"}, MaintenanceMode},
}

// Classify maps any fault to a category. Total: a nil error or an
// unrecognized shape degrades to UnexpectedApplicationError.
func Classify(err error) Category {
	if err == nil {
		return UnexpectedApplicationError
	}
	if err == context.DeadlineExceeded || strings.Contains(err.Error(), context.DeadlineExceeded.Error()) {
		return Timeout
	}
	lower := strings.ToLower(err.Error())
	for _, rule := range faultRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.category
			}
		}
	}
	return UnexpectedApplicationError
}

// Describe classifies a fault and returns the message for the report. For the
// catch-all category only the first line of the original message survives,
// keeping reports scannable.
func Describe(err error) (Category, string) {
	cat := Classify(err)
	if cat != UnexpectedApplicationError {
		return cat, cat.Message()
	}
	return cat, firstLine(err)
}

func firstLine(err error) string {
	if err == nil {
		return "Unexpected application error occurred"
	}
	line := err.Error()
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 200 ||
		strings.Contains(strings.ToLower(line), "stack") ||
		strings.Contains(strings.ToLower(line), "traceback") {
		return "Unexpected application error occurred"
	}
	return line
}

// titleRule matches error markers in a page title. Titles are the structured
// half of page inspection and take precedence over body text.
var titleRules = []faultRule{
	{[]string{"404", "not found"}, NotFound404},
	{[]string{"403", "forbidden", "access denied"}, Forbidden403},
	{[]string{"401", "unauthorized"}, Unauthorized401},
	{[]string{"500", "server error"}, ServerError500},
	{[]string{"502", "bad gateway"}, BadGateway502},
	{[]string{"503", "service unavailable"}, ServiceUnavailable503},
	{[]string{"504", "gateway timeout"}, GatewayTimeout504},
}

// bodyRules match known application error phrases in body text. These are the
// free-text fallback and are deliberately narrow phrases, not single words.
var bodyRules = []faultRule{
	{[]string{"csrf token mismatch", "page expired"}, SecurityTokenMismatch},
	{[]string{"the given data was invalid", "validation error"}, ValidationError},
	{[]string{"too many requests"}, RateLimited},
	{[]string{"maintenance mode", "be right back"}, MaintenanceMode},
	{[]string{"service unavailable"}, ServiceUnavailable503},
	{[]string{"gateway timeout"}, GatewayTimeout504},
	{[]string{"connection refused"}, ConnectionRefused},
	{[]string{"whoops, looks like something went wrong"}, ServerError500},
}

// InspectPage scans a rendered page for error markers. It returns the
// category, the report message, and whether any marker was found. Absence of
// markers is how index pages are judged healthy, since their content varies
// too widely to assert positively.
func InspectPage(htmlSrc string) (Category, string, bool) {
	title, body := PageText(htmlSrc)
	titleLower := strings.ToLower(title)
	for _, rule := range titleRules {
		for _, needle := range rule.needles {
			if strings.Contains(titleLower, needle) {
				return rule.category, rule.category.Message(), true
			}
		}
	}
	bodyLower := strings.ToLower(body)
	for _, rule := range bodyRules {
		for _, needle := range rule.needles {
			if strings.Contains(bodyLower, needle) {
				return rule.category, rule.category.Message(), true
			}
		}
	}
	return "", "", false
}
