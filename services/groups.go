package services

import (
	"context"
	"encoding/json"
	"net/url"
)

func (f *Facade) fetch(ctx context.Context, op string) (json.RawMessage, error) {
	return f.Call(ctx, op, Args{})
}

func (f *Facade) list(ctx context.Context, op string, filters url.Values) (json.RawMessage, error) {
	return f.Call(ctx, op, Args{Filters: filters})
}

func (f *Facade) byID(ctx context.Context, op, id string) (json.RawMessage, error) {
	return f.Call(ctx, op, Args{Params: idParam(id)})
}

func (f *Facade) create(ctx context.Context, op string, body any) (json.RawMessage, error) {
	return f.Call(ctx, op, Args{Body: body})
}

func (f *Facade) update(ctx context.Context, op, id string, body any) (json.RawMessage, error) {
	return f.Call(ctx, op, Args{Params: idParam(id), Body: body})
}

type ChatService struct{ f *Facade }

func (s ChatService) SendMessage(ctx context.Context, message string) (json.RawMessage, error) {
	return s.f.create(ctx, "chat.send", map[string]string{"message": message})
}

func (s ChatService) History(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "chat.history")
}

func (s ChatService) UserSymptoms(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "chat.user_symptoms")
}

func (s ChatService) RecentSymptomChecks(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "chat.recent_checks")
}

type DoctorService struct{ f *Facade }

func (s DoctorService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "doctors.list", filters)
}

func (s DoctorService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "doctors.get", id)
}

// UpdateProfile patches the calling doctor's own profile.
func (s DoctorService) UpdateProfile(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "doctors.update_profile", data)
}

func (s DoctorService) Reviews(ctx context.Context, doctorID string) (json.RawMessage, error) {
	return s.f.Call(ctx, "doctors.reviews", Args{Params: map[string]string{"doctorId": doctorID}})
}

func (s DoctorService) CreateReview(ctx context.Context, doctorID string, review any) (json.RawMessage, error) {
	return s.f.Call(ctx, "doctors.create_review", Args{Params: map[string]string{"doctorId": doctorID}, Body: review})
}

type AppointmentService struct{ f *Facade }

func (s AppointmentService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "appointments.list", filters)
}

func (s AppointmentService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "appointments.get", id)
}

func (s AppointmentService) Create(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "appointments.create", data)
}

func (s AppointmentService) Update(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "appointments.update", id, data)
}

// Cancel is a partial update setting the status to "cancelled".
func (s AppointmentService) Cancel(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.update(ctx, "appointments.cancel", id, map[string]string{"status": "cancelled"})
}

func (s AppointmentService) AddNotes(ctx context.Context, id, notes string) (json.RawMessage, error) {
	return s.f.update(ctx, "appointments.add_notes", id, map[string]string{"notes": notes})
}

func (s AppointmentService) UpdateStatus(ctx context.Context, id, status string) (json.RawMessage, error) {
	return s.f.update(ctx, "appointments.update_status", id, map[string]string{"status": status})
}

type RecordService struct{ f *Facade }

func (s RecordService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "records.list", filters)
}

func (s RecordService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "records.get", id)
}

func (s RecordService) Create(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "records.create", data)
}

func (s RecordService) Update(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "records.update", id, data)
}

func (s RecordService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "records.delete", id)
}

type DashboardService struct{ f *Facade }

func (s DashboardService) Get(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "dashboard.get")
}

type SymptomService struct{ f *Facade }

func (s SymptomService) Predefined(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "symptoms.predefined", filters)
}

func (s SymptomService) UserSymptoms(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "symptoms.user_symptoms", filters)
}

func (s SymptomService) Active(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "symptoms.active")
}

func (s SymptomService) Create(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "symptoms.create", data)
}

func (s SymptomService) Update(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "symptoms.update", id, data)
}

func (s SymptomService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "symptoms.delete", id)
}

func (s SymptomService) CreateCheck(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "symptoms.create_check", data)
}

func (s SymptomService) Checks(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "symptoms.checks")
}

func (s SymptomService) RecentCheck(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "symptoms.recent_check")
}

type DiagnosticService struct{ f *Facade }

func (s DiagnosticService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "diagnostics.list", filters)
}

func (s DiagnosticService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "diagnostics.get", id)
}

func (s DiagnosticService) Create(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "diagnostics.create", data)
}

func (s DiagnosticService) Update(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "diagnostics.update", id, data)
}

func (s DiagnosticService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "diagnostics.delete", id)
}

func (s DiagnosticService) Resolve(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "diagnostics.resolve", id)
}

func (s DiagnosticService) MarkChronic(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "diagnostics.mark_chronic", id)
}

func (s DiagnosticService) GenerateTreatment(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "diagnostics.generate_treatment", id)
}

func (s DiagnosticService) FromSymptomCheck(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "diagnostics.from_symptom_check", data)
}

type TreatmentService struct{ f *Facade }

func (s TreatmentService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "treatments.list", filters)
}

func (s TreatmentService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "treatments.get", id)
}

func (s TreatmentService) Create(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "treatments.create", data)
}

func (s TreatmentService) Update(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "treatments.update", id, data)
}

func (s TreatmentService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "treatments.delete", id)
}

func (s TreatmentService) Complete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "treatments.complete", id)
}

func (s TreatmentService) Discontinue(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "treatments.discontinue", id)
}

func (s TreatmentService) Rate(ctx context.Context, id string, rating any) (json.RawMessage, error) {
	return s.f.update(ctx, "treatments.rate", id, rating)
}

type InsightService struct{ f *Facade }

func (s InsightService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "insights.list", filters)
}

func (s InsightService) Generate(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "insights.generate")
}

func (s InsightService) MarkRead(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "insights.mark_read", id)
}

func (s InsightService) Goals(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "insights.goals", filters)
}

func (s InsightService) ActiveGoals(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "insights.active_goals")
}

func (s InsightService) CreateGoal(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "insights.create_goal", data)
}

func (s InsightService) UpdateGoal(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "insights.update_goal", id, data)
}

func (s InsightService) CompleteGoal(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "insights.complete_goal", id)
}

func (s InsightService) AbandonGoal(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "insights.abandon_goal", id)
}

func (s InsightService) Metrics(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "insights.metrics", filters)
}

func (s InsightService) LatestMetrics(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "insights.latest_metrics")
}

func (s InsightService) CreateMetric(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "insights.create_metric", data)
}

func (s InsightService) Recommendations(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "insights.recommendations", filters)
}

func (s InsightService) CompleteRecommendation(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "insights.complete_recommendation", id)
}

func (s InsightService) DismissRecommendation(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "insights.dismiss_recommendation", id)
}

type ReminderService struct{ f *Facade }

func (s ReminderService) List(ctx context.Context, filters url.Values) (json.RawMessage, error) {
	return s.f.list(ctx, "reminders.list", filters)
}

func (s ReminderService) Today(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "reminders.today")
}

func (s ReminderService) Medications(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "reminders.medications")
}

func (s ReminderService) Create(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "reminders.create", data)
}

func (s ReminderService) Update(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "reminders.update", id, data)
}

func (s ReminderService) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "reminders.delete", id)
}

func (s ReminderService) Logs(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "reminders.logs")
}

func (s ReminderService) UpdateLogStatus(ctx context.Context, id, status string) (json.RawMessage, error) {
	return s.f.update(ctx, "reminders.update_log_status", id, map[string]string{"status": status})
}

type EmergencyService struct{ f *Facade }

func (s EmergencyService) Contacts(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "emergency.contacts")
}

func (s EmergencyService) PrimaryContact(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "emergency.primary_contact")
}

func (s EmergencyService) CreateContact(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "emergency.create_contact", data)
}

func (s EmergencyService) UpdateContact(ctx context.Context, id string, data any) (json.RawMessage, error) {
	return s.f.update(ctx, "emergency.update_contact", id, data)
}

func (s EmergencyService) DeleteContact(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "emergency.delete_contact", id)
}

func (s EmergencyService) Alerts(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "emergency.alerts")
}

func (s EmergencyService) ActiveAlerts(ctx context.Context) (json.RawMessage, error) {
	return s.f.fetch(ctx, "emergency.active_alerts")
}

func (s EmergencyService) CreateAlert(ctx context.Context, data any) (json.RawMessage, error) {
	return s.f.create(ctx, "emergency.create_alert", data)
}

func (s EmergencyService) ResolveAlert(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "emergency.resolve_alert", id)
}

func (s EmergencyService) MarkFalseAlarm(ctx context.Context, id string) (json.RawMessage, error) {
	return s.f.byID(ctx, "emergency.false_alarm", id)
}
