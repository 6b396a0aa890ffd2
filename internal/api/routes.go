package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/middleware"
)

// RouteLimiters wraps the login and public endpoints. A nil limiter leaves
// the route unthrottled.
type RouteLimiters struct {
	Login  func(http.Handler) http.Handler
	Public func(http.Handler) http.Handler
}

func limited(mw func(http.Handler) http.Handler, fn http.HandlerFunc) http.Handler {
	if mw == nil {
		return fn
	}
	return mw(fn)
}

func can(res auth.Resource, act auth.Action, fn http.HandlerFunc) http.Handler {
	return middleware.RequirePermission(res, act)(fn)
}

// Register mounts every /api route on r.
func (h *Handler) Register(r *mux.Router, lim RouteLimiters) {
	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/auth/login", limited(lim.Login, h.Login)).Methods(http.MethodPost)
	api.Handle("/public/register", limited(lim.Public, h.PublicRegister)).Methods(http.MethodPost)
	api.Handle("/public/medical-form/{token}", limited(lim.Public, h.GetPublicMedicalForm)).Methods(http.MethodGet)
	api.Handle("/public/medical-form/{token}", limited(lim.Public, h.SubmitPublicMedicalForm)).Methods(http.MethodPost)
	api.Handle("/errors/frontend", limited(lim.Public, middleware.OptionalAuth(h.Cfg.JWTSecret)(http.HandlerFunc(h.IngestFrontendError)).ServeHTTP)).Methods(http.MethodPost)

	p := r.PathPrefix("/api").Subrouter()
	p.Use(middleware.RequireAuthMiddleware(h.Cfg.JWTSecret))
	lookup := h.LookupAccount
	if lookup == nil {
		lookup = h.lookupAccount
	}
	p.Use(middleware.RequireActiveAccount(lookup, h.Accounts))

	p.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	p.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	p.HandleFunc("/me/password", h.ChangeMyPassword).Methods(http.MethodPut)
	p.HandleFunc("/me/totp/setup", h.SetupTOTP).Methods(http.MethodPost)
	p.HandleFunc("/me/totp/enable", h.EnableTOTP).Methods(http.MethodPost)
	p.HandleFunc("/me/totp/disable", h.DisableTOTP).Methods(http.MethodPost)

	p.Handle("/users", middleware.RequireAdmin(http.HandlerFunc(h.ListUsers))).Methods(http.MethodGet)
	p.Handle("/users", middleware.RequireAdmin(http.HandlerFunc(h.CreateUser))).Methods(http.MethodPost)
	p.Handle("/users/{id}", middleware.RequireAdmin(http.HandlerFunc(h.GetUser))).Methods(http.MethodGet)
	p.Handle("/users/{id}", middleware.RequireAdmin(http.HandlerFunc(h.UpdateUser))).Methods(http.MethodPut)
	p.Handle("/users/{id}/toggle-active", middleware.RequireAdmin(http.HandlerFunc(h.ToggleUserActive))).Methods(http.MethodPost)

	// patients
	p.Handle("/patients", can(auth.ResPatient, auth.ActView, h.ListPatients)).Methods(http.MethodGet)
	p.Handle("/patients", can(auth.ResPatient, auth.ActAdd, h.CreatePatient)).Methods(http.MethodPost)
	p.Handle("/patients/birthdays", can(auth.ResPatient, auth.ActView, h.UpcomingBirthdays)).Methods(http.MethodGet)
	p.Handle("/patients/{patientId}", can(auth.ResPatient, auth.ActView, h.GetPatient)).Methods(http.MethodGet)
	p.Handle("/patients/{patientId}", can(auth.ResPatient, auth.ActChange, h.UpdatePatient)).Methods(http.MethodPut)
	p.Handle("/patients/{patientId}", can(auth.ResPatient, auth.ActDelete, h.DeletePatient)).Methods(http.MethodDelete)
	p.Handle("/patients/{patientId}/medical-form-links", can(auth.ResPatient, auth.ActView, h.ListMedicalFormLinks)).Methods(http.MethodGet)
	p.Handle("/patients/{patientId}/medical-form-links", can(auth.ResPatient, auth.ActChange, h.CreateMedicalFormLink)).Methods(http.MethodPost)
	p.Handle("/patients/{patientId}/medical-form", can(auth.ResPatient, auth.ActView, h.GetPatientMedicalForm)).Methods(http.MethodGet)
	for _, k := range []patientFormKind{healthProgramForm, functionalEvaluationForm} {
		path := "/patients/{patientId}/" + k.route
		p.Handle(path, can(auth.ResPatient, auth.ActView, h.GetPatientForm(k))).Methods(http.MethodGet)
		p.Handle(path, can(auth.ResPatient, auth.ActChange, h.SavePatientForm(k))).Methods(http.MethodPut)
		p.Handle(path+"/pdf", can(auth.ResPatient, auth.ActView, h.PatientFormPDF(k))).Methods(http.MethodGet)
	}
	p.Handle("/patients/{patientId}/treatments", can(auth.ResTreatment, auth.ActView, h.ListPatientTreatments)).Methods(http.MethodGet)

	// clinical history
	p.Handle("/patients/{patientId}/histories", can(auth.ResHistory, auth.ActView, h.ListHistories)).Methods(http.MethodGet)
	p.Handle("/patients/{patientId}/histories", can(auth.ResHistory, auth.ActAdd, h.CreateHistory)).Methods(http.MethodPost)
	p.Handle("/histories/{id}", can(auth.ResHistory, auth.ActView, h.GetHistory)).Methods(http.MethodGet)
	p.Handle("/histories/{id}", can(auth.ResHistory, auth.ActChange, h.UpdateHistory)).Methods(http.MethodPut)
	p.Handle("/histories/{id}", can(auth.ResHistory, auth.ActDelete, h.DeleteHistory)).Methods(http.MethodDelete)
	p.Handle("/histories/{id}/images", can(auth.ResHistory, auth.ActChange, h.AddHistoryImage)).Methods(http.MethodPost)
	p.Handle("/histories/{id}/images/{imageId}", can(auth.ResHistory, auth.ActChange, h.DeleteHistoryImage)).Methods(http.MethodDelete)

	// odontogram
	p.Handle("/patients/{patientId}/odontogram", can(auth.ResOdontogram, auth.ActView, h.GetOdontogram)).Methods(http.MethodGet)
	p.Handle("/patients/{patientId}/odontogram", can(auth.ResOdontogram, auth.ActChange, h.SaveToothState)).Methods(http.MethodPost)
	p.Handle("/patients/{patientId}/odontogram/history", can(auth.ResOdontogramHistory, auth.ActView, h.OdontogramHistory)).Methods(http.MethodGet)
	p.Handle("/patients/{patientId}/odontogram.pdf", can(auth.ResOdontogram, auth.ActView, h.OdontogramPDF)).Methods(http.MethodGet)

	// treatments & payments
	p.Handle("/treatments", can(auth.ResTreatment, auth.ActView, h.ListTreatments)).Methods(http.MethodGet)
	p.Handle("/treatments", can(auth.ResTreatment, auth.ActAdd, h.CreateTreatment)).Methods(http.MethodPost)
	p.Handle("/treatments/{id}", can(auth.ResTreatment, auth.ActView, h.GetTreatment)).Methods(http.MethodGet)
	p.Handle("/treatments/{id}", can(auth.ResTreatment, auth.ActChange, h.UpdateTreatment)).Methods(http.MethodPut)
	p.Handle("/treatments/{id}", can(auth.ResTreatment, auth.ActDelete, h.DeleteTreatment)).Methods(http.MethodDelete)
	p.Handle("/treatments/{id}/statement.pdf", can(auth.ResTreatment, auth.ActView, h.TreatmentStatementPDF)).Methods(http.MethodGet)
	p.Handle("/payments", can(auth.ResPayment, auth.ActView, h.ListPayments)).Methods(http.MethodGet)
	p.Handle("/payments", can(auth.ResPayment, auth.ActAdd, h.CreatePayment)).Methods(http.MethodPost)
	p.Handle("/payments/{id}", can(auth.ResPayment, auth.ActView, h.GetPayment)).Methods(http.MethodGet)
	p.Handle("/payments/{id}", can(auth.ResPayment, auth.ActChange, h.UpdatePayment)).Methods(http.MethodPut)
	p.Handle("/payments/{id}", can(auth.ResPayment, auth.ActDelete, h.DeletePayment)).Methods(http.MethodDelete)

	// notes
	p.Handle("/notes", can(auth.ResNote, auth.ActView, h.ListNotes)).Methods(http.MethodGet)
	p.Handle("/notes", can(auth.ResNote, auth.ActAdd, h.CreateNote)).Methods(http.MethodPost)
	p.Handle("/notes/{id}", can(auth.ResNote, auth.ActView, h.GetNote)).Methods(http.MethodGet)
	p.Handle("/notes/{id}", can(auth.ResNote, auth.ActChange, h.UpdateNote)).Methods(http.MethodPut)
	p.Handle("/notes/{id}", can(auth.ResNote, auth.ActDelete, h.DeleteNote)).Methods(http.MethodDelete)
	p.Handle("/notes/{id}/images", can(auth.ResNote, auth.ActChange, h.AddNoteImage)).Methods(http.MethodPost)
	p.Handle("/notes/{id}/images/{imageId}", can(auth.ResNote, auth.ActChange, h.DeleteNoteImage)).Methods(http.MethodDelete)

	p.HandleFunc("/clinic-config", h.GetClinicConfig).Methods(http.MethodGet)
	p.Handle("/clinic-config", can(auth.ResClinicConfig, auth.ActChange, h.UpdateClinicConfig)).Methods(http.MethodPut)

	p.HandleFunc("/calendar/events", h.CalendarEvents).Methods(http.MethodGet)
	p.HandleFunc("/calendar/today", h.CalendarToday).Methods(http.MethodGet)
	p.HandleFunc("/dashboard", h.DashboardSummary).Methods(http.MethodGet)
	p.HandleFunc("/dashboard/statistics", h.DashboardStatistics).Methods(http.MethodGet)
	p.HandleFunc("/reports", h.Reports).Methods(http.MethodGet)
	p.HandleFunc("/reports/debts", h.DebtReport).Methods(http.MethodGet)
	p.HandleFunc("/search", h.GlobalSearch).Methods(http.MethodGet)

	// admin
	p.Handle("/audit-logs", middleware.RequireAdmin(http.HandlerFunc(h.ListAuditLogs))).Methods(http.MethodGet)
	p.Handle("/audit-logs/stats", middleware.RequireAdmin(http.HandlerFunc(h.AuditStats))).Methods(http.MethodGet)
	p.Handle("/audit-logs/errors", middleware.RequireAdmin(http.HandlerFunc(h.ListErrorEvents))).Methods(http.MethodGet)
	p.Handle("/audit-logs/{id}", middleware.RequireAdmin(http.HandlerFunc(h.GetAuditLog))).Methods(http.MethodGet)
	p.Handle("/admin/reminders/trigger", middleware.RequireAdmin(http.HandlerFunc(h.TriggerBirthdayReminders))).Methods(http.MethodPost)
}
