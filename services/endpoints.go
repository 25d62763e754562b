package services

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
)

// Endpoint maps one logical operation to an HTTP call.
type Endpoint struct {
	Group  string
	Name   string
	Method string
	// Path is relative to the API base URL; "{name}" segments are path parameters.
	Path string
	// Filters reports whether the operation accepts optional query filters.
	Filters bool
	// Body reports whether the operation sends a JSON body.
	Body bool
}

var paramPattern = regexp.MustCompile(`\{(\w+)\}`)

// Op returns the "group.name" key of the endpoint.
func (e Endpoint) Op() string {
	return e.Group + "." + e.Name
}

// Params returns the path parameter names in template order.
func (e Endpoint) Params() []string {
	matches := paramPattern.FindAllStringSubmatch(e.Path, -1)
	params := make([]string, 0, len(matches))
	for _, m := range matches {
		params = append(params, m[1])
	}
	return params
}

const (
	GroupAuth         = "auth"
	GroupChat         = "chat"
	GroupDoctors      = "doctors"
	GroupAppointments = "appointments"
	GroupRecords      = "records"
	GroupDashboard    = "dashboard"
	GroupSymptoms     = "symptoms"
	GroupDiagnostics  = "diagnostics"
	GroupTreatments   = "treatments"
	GroupInsights     = "insights"
	GroupReminders    = "reminders"
	GroupEmergency    = "emergency"
)

func get(group, name, path string) Endpoint {
	return Endpoint{Group: group, Name: name, Method: http.MethodGet, Path: path}
}

func list(group, name, path string) Endpoint {
	return Endpoint{Group: group, Name: name, Method: http.MethodGet, Path: path, Filters: true}
}

func send(group, name, method, path string) Endpoint {
	return Endpoint{Group: group, Name: name, Method: method, Path: path, Body: true}
}

func action(group, name, method, path string) Endpoint {
	return Endpoint{Group: group, Name: name, Method: method, Path: path}
}

var endpointTable = []Endpoint{
	send(GroupAuth, "login", http.MethodPost, "/auth/login/"),
	send(GroupAuth, "register", http.MethodPost, "/auth/register/"),
	get(GroupAuth, "profile", "/auth/profile/"),
	send(GroupAuth, "update_profile", http.MethodPatch, "/auth/profile/"),

	send(GroupChat, "send", http.MethodPost, "/chat/chat/"),
	get(GroupChat, "history", "/chat/history/"),
	get(GroupChat, "user_symptoms", "/symptoms/user-symptoms/"),
	get(GroupChat, "recent_checks", "/symptoms/checks/recent/"),

	list(GroupDoctors, "list", "/doctors/"),
	get(GroupDoctors, "get", "/doctors/{id}/"),
	send(GroupDoctors, "update_profile", http.MethodPatch, "/doctors/profile/"),
	get(GroupDoctors, "reviews", "/doctors/{doctorId}/reviews/"),
	send(GroupDoctors, "create_review", http.MethodPost, "/doctors/{doctorId}/reviews/create/"),

	list(GroupAppointments, "list", "/appointments/"),
	get(GroupAppointments, "get", "/appointments/{id}/"),
	send(GroupAppointments, "create", http.MethodPost, "/appointments/"),
	send(GroupAppointments, "update", http.MethodPut, "/appointments/{id}/"),
	send(GroupAppointments, "cancel", http.MethodPatch, "/appointments/{id}/"),
	send(GroupAppointments, "add_notes", http.MethodPost, "/appointments/{id}/add_notes/"),
	send(GroupAppointments, "update_status", http.MethodPost, "/appointments/{id}/update_status/"),

	list(GroupRecords, "list", "/records/"),
	get(GroupRecords, "get", "/records/{id}/"),
	send(GroupRecords, "create", http.MethodPost, "/records/"),
	send(GroupRecords, "update", http.MethodPut, "/records/{id}/"),
	action(GroupRecords, "delete", http.MethodDelete, "/records/{id}/"),

	get(GroupDashboard, "get", "/dashboard/"),

	list(GroupSymptoms, "predefined", "/symptoms/predefined/"),
	list(GroupSymptoms, "user_symptoms", "/symptoms/user-symptoms/"),
	get(GroupSymptoms, "active", "/symptoms/user-symptoms/active/"),
	send(GroupSymptoms, "create", http.MethodPost, "/symptoms/user-symptoms/"),
	send(GroupSymptoms, "update", http.MethodPatch, "/symptoms/user-symptoms/{id}/"),
	action(GroupSymptoms, "delete", http.MethodDelete, "/symptoms/user-symptoms/{id}/"),
	send(GroupSymptoms, "create_check", http.MethodPost, "/symptoms/checks/"),
	get(GroupSymptoms, "checks", "/symptoms/checks/"),
	get(GroupSymptoms, "recent_check", "/symptoms/checks/recent/"),

	list(GroupDiagnostics, "list", "/diagnostics/diagnoses/"),
	get(GroupDiagnostics, "get", "/diagnostics/diagnoses/{id}/"),
	send(GroupDiagnostics, "create", http.MethodPost, "/diagnostics/diagnoses/"),
	send(GroupDiagnostics, "update", http.MethodPatch, "/diagnostics/diagnoses/{id}/"),
	action(GroupDiagnostics, "delete", http.MethodDelete, "/diagnostics/diagnoses/{id}/"),
	action(GroupDiagnostics, "resolve", http.MethodPost, "/diagnostics/diagnoses/{id}/resolve/"),
	action(GroupDiagnostics, "mark_chronic", http.MethodPost, "/diagnostics/diagnoses/{id}/mark_chronic/"),
	action(GroupDiagnostics, "generate_treatment", http.MethodPost, "/diagnostics/diagnoses/{id}/generate_treatment/"),
	send(GroupDiagnostics, "from_symptom_check", http.MethodPost, "/diagnostics/diagnoses/from_symptom_check/"),

	list(GroupTreatments, "list", "/diagnostics/treatments/"),
	get(GroupTreatments, "get", "/diagnostics/treatments/{id}/"),
	send(GroupTreatments, "create", http.MethodPost, "/diagnostics/treatments/"),
	send(GroupTreatments, "update", http.MethodPatch, "/diagnostics/treatments/{id}/"),
	action(GroupTreatments, "delete", http.MethodDelete, "/diagnostics/treatments/{id}/"),
	action(GroupTreatments, "complete", http.MethodPost, "/diagnostics/treatments/{id}/complete/"),
	action(GroupTreatments, "discontinue", http.MethodPost, "/diagnostics/treatments/{id}/discontinue/"),
	send(GroupTreatments, "rate", http.MethodPost, "/diagnostics/treatments/{id}/rate/"),

	list(GroupInsights, "list", "/health-insights/insights/"),
	action(GroupInsights, "generate", http.MethodPost, "/health-insights/insights/generate/"),
	action(GroupInsights, "mark_read", http.MethodPost, "/health-insights/insights/{id}/mark_as_read/"),
	list(GroupInsights, "goals", "/health-insights/goals/"),
	get(GroupInsights, "active_goals", "/health-insights/goals/active/"),
	send(GroupInsights, "create_goal", http.MethodPost, "/health-insights/goals/"),
	send(GroupInsights, "update_goal", http.MethodPatch, "/health-insights/goals/{id}/"),
	action(GroupInsights, "complete_goal", http.MethodPost, "/health-insights/goals/{id}/complete/"),
	action(GroupInsights, "abandon_goal", http.MethodPost, "/health-insights/goals/{id}/abandon/"),
	list(GroupInsights, "metrics", "/health-insights/metrics/"),
	get(GroupInsights, "latest_metrics", "/health-insights/metrics/latest/"),
	send(GroupInsights, "create_metric", http.MethodPost, "/health-insights/metrics/"),
	list(GroupInsights, "recommendations", "/health-insights/recommendations/"),
	action(GroupInsights, "complete_recommendation", http.MethodPost, "/health-insights/recommendations/{id}/complete/"),
	action(GroupInsights, "dismiss_recommendation", http.MethodPost, "/health-insights/recommendations/{id}/dismiss/"),

	list(GroupReminders, "list", "/reminders/"),
	get(GroupReminders, "today", "/reminders/today/"),
	get(GroupReminders, "medications", "/reminders/medications/"),
	send(GroupReminders, "create", http.MethodPost, "/reminders/"),
	send(GroupReminders, "update", http.MethodPatch, "/reminders/{id}/"),
	action(GroupReminders, "delete", http.MethodDelete, "/reminders/{id}/"),
	get(GroupReminders, "logs", "/reminders/logs/"),
	send(GroupReminders, "update_log_status", http.MethodPatch, "/reminders/logs/{id}/update_status/"),

	get(GroupEmergency, "contacts", "/emergency/contacts/"),
	get(GroupEmergency, "primary_contact", "/emergency/contacts/primary/"),
	send(GroupEmergency, "create_contact", http.MethodPost, "/emergency/contacts/"),
	send(GroupEmergency, "update_contact", http.MethodPatch, "/emergency/contacts/{id}/"),
	action(GroupEmergency, "delete_contact", http.MethodDelete, "/emergency/contacts/{id}/"),
	get(GroupEmergency, "alerts", "/emergency/alerts/"),
	get(GroupEmergency, "active_alerts", "/emergency/alerts/active/"),
	send(GroupEmergency, "create_alert", http.MethodPost, "/emergency/alerts/"),
	action(GroupEmergency, "resolve_alert", http.MethodPost, "/emergency/alerts/{id}/resolve/"),
	action(GroupEmergency, "false_alarm", http.MethodPost, "/emergency/alerts/{id}/false_alarm/"),
}

var endpointsByOp = func() map[string]Endpoint {
	m := make(map[string]Endpoint, len(endpointTable))
	for _, e := range endpointTable {
		if _, dup := m[e.Op()]; dup {
			panic("services: duplicate operation " + e.Op())
		}
		m[e.Op()] = e
	}
	return m
}()

// Endpoints returns every operation sorted by key.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(endpointTable))
	copy(out, endpointTable)
	sort.Slice(out, func(i, j int) bool { return out[i].Op() < out[j].Op() })
	return out
}

// Lookup finds the endpoint for a "group.name" operation key.
func Lookup(op string) (Endpoint, error) {
	e, ok := endpointsByOp[op]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownOperation, op)
	}
	return e, nil
}

// Expand substitutes path parameters into the endpoint template. Values are
// path-escaped; a missing or empty parameter is an error.
func Expand(e Endpoint, params map[string]string) (string, error) {
	var missing []string
	path := paramPattern.ReplaceAllStringFunc(e.Path, func(seg string) string {
		name := seg[1 : len(seg)-1]
		v := params[name]
		if v == "" {
			missing = append(missing, name)
			return seg
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s requires %s", apperrors.ErrMissingParam, e.Op(), strings.Join(missing, ", "))
	}
	return path, nil
}
