// Package services maps MedAssist operations onto API calls.
//
// Every operation is a row in the endpoint table. Facade.Call dispatches by
// "group.name" key; the typed group services are thin wrappers over Call and
// add nothing but fixed request bodies. Pipeline errors are returned unchanged.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jrsteele09/medassist-client/apiclient"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
)

// Doer sends a request through the authenticated pipeline. *apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// Args carries the variable parts of a call.
type Args struct {
	// Params fills the "{name}" segments of the path template.
	Params map[string]string
	// Filters become the query string; only list operations accept them.
	Filters url.Values
	// Body is JSON encoded when non-nil.
	Body any
}

// Facade groups the MedAssist operations by resource.
type Facade struct {
	api Doer

	Auth         AuthService
	Chat         ChatService
	Doctors      DoctorService
	Appointments AppointmentService
	Records      RecordService
	Dashboard    DashboardService
	Symptoms     SymptomService
	Diagnostics  DiagnosticService
	Treatments   TreatmentService
	Insights     InsightService
	Reminders    ReminderService
	Emergency    EmergencyService
}

func New(api Doer) *Facade {
	f := &Facade{api: api}
	f.Auth = AuthService{f: f}
	f.Chat = ChatService{f: f}
	f.Doctors = DoctorService{f: f}
	f.Appointments = AppointmentService{f: f}
	f.Records = RecordService{f: f}
	f.Dashboard = DashboardService{f: f}
	f.Symptoms = SymptomService{f: f}
	f.Diagnostics = DiagnosticService{f: f}
	f.Treatments = TreatmentService{f: f}
	f.Insights = InsightService{f: f}
	f.Reminders = ReminderService{f: f}
	f.Emergency = EmergencyService{f: f}
	return f
}

// Request builds the pipeline request for op without sending it.
func Request(op string, args Args) (apiclient.Request, error) {
	e, err := Lookup(op)
	if err != nil {
		return apiclient.Request{}, err
	}
	path, err := Expand(e, args.Params)
	if err != nil {
		return apiclient.Request{}, err
	}
	if len(args.Filters) > 0 && !e.Filters {
		return apiclient.Request{}, fmt.Errorf("%w: %s", apperrors.ErrFiltersNotSupported, op)
	}

	req := apiclient.Request{Method: e.Method, Path: path, Body: args.Body}
	if len(args.Filters) > 0 {
		req = req.WithQuery(args.Filters)
	}
	return req, nil
}

// Call sends op and returns the raw response body.
func (f *Facade) Call(ctx context.Context, op string, args Args) (json.RawMessage, error) {
	req, err := Request(op, args)
	if err != nil {
		return nil, err
	}
	resp, err := f.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// CallInto sends op and decodes the response body into out.
func (f *Facade) CallInto(ctx context.Context, op string, args Args, out any) error {
	body, err := f.Call(ctx, op, args)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("[services %s] failed to decode response: %w", op, err)
	}
	return nil
}

func idParam(id string) map[string]string {
	return map[string]string{"id": id}
}
