package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/auth"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/lookup"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/pending"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/registration"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/staff"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/systemuser"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport/middleware"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	RBAC         *auth.RBACAuthorization
	Lookup       *lookup.Handler
	Staff        *staff.Handler
	SystemUser   *systemuser.Handler
	Pending      *pending.Handler
	Registration *registration.Handler
	Metrics      http.Handler
	MetricsPath  string
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	if h.Metrics != nil {
		path := h.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, h.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Everything below needs a valid token. Pending applicants have
		// no profile yet and therefore no app access, but they still own
		// their registration flow, so the app-access gate is applied per
		// subtree instead of globally.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			pr.Get("/auth/me", h.Auth.Me)

			// Code lists back the registration forms, so applicants may
			// read them too.
			pr.Get("/schools", h.Lookup.GetSchools)
			pr.Get("/lookups/{type}", h.Lookup.GetLookups)

			pr.Route("/registrations", func(rr chi.Router) {
				rr.Post("/", h.Registration.CreateRegistration)
				rr.Get("/mine", h.Registration.ListMine)
				rr.Get("/{id}", h.Registration.GetRegistration)
				rr.Patch("/{id}", h.Registration.UpdateRegistration)
				rr.Post("/{id}/submit", h.Registration.Submit)
				rr.Get("/{id}/change-log", h.Registration.ChangeLog)

				rr.Post("/{id}/education", h.Registration.AddEducationRecord)
				rr.Delete("/{id}/education/{rid}", h.Registration.DeleteEducationRecord)
				rr.Post("/{id}/training", h.Registration.AddTrainingRecord)
				rr.Delete("/{id}/training/{rid}", h.Registration.DeleteTrainingRecord)
				rr.Post("/{id}/appointments", h.Registration.AddClaimedAppointment)
				rr.Delete("/{id}/appointments/{aid}", h.Registration.DeleteClaimedAppointment)

				rr.Post("/{id}/documents", h.Registration.UploadDocument)
				rr.Get("/{id}/documents/{did}", h.Registration.DownloadDocument)
				rr.Delete("/{id}/documents/{did}", h.Registration.DeleteDocument)

				// Review endpoints, reviewers only.
				rr.Group(func(mr chi.Router) {
					mr.Use(h.RBAC.RequirePendingUserManager())
					mr.Get("/", h.Registration.ListRegistrations)
					mr.Delete("/{id}", h.Registration.DeleteRegistration)
					mr.Get("/{id}/review", h.Registration.OpenReview)
					mr.Post("/{id}/start-review", h.Registration.StartReview)
					mr.Post("/{id}/approve", h.Registration.Approve)
					mr.Post("/{id}/reject", h.Registration.Reject)
				})
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(h.RBAC.RequireAppAccess())

				ar.Route("/staff", func(sr chi.Router) {
					sr.Get("/", h.Staff.ListStaff)
					sr.Get("/{id}", h.Staff.GetStaff)
					sr.Patch("/{id}", h.Staff.UpdateStaff)
					sr.Delete("/{id}", h.Staff.DeleteStaff)
					sr.Post("/{id}/assignments", h.Staff.CreateAssignment)
					sr.Patch("/{id}/assignments/{aid}", h.Staff.UpdateAssignment)
					sr.Delete("/{id}/assignments/{aid}", h.Staff.DeleteAssignment)
				})
			})

			pr.Group(func(sr chi.Router) {
				sr.Use(h.RBAC.RequireSystemUserAccess())
				sr.Route("/system-users", func(su chi.Router) {
					su.Get("/", h.SystemUser.ListSystemUsers)
					su.Get("/{id}", h.SystemUser.GetSystemUser)
					su.Patch("/{id}", h.SystemUser.UpdateSystemUser)
					su.Delete("/{id}", h.SystemUser.DeleteSystemUser)
				})
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(h.RBAC.RequirePendingUserManager())
				mr.Route("/pending-users", func(pu chi.Router) {
					pu.Get("/", h.Pending.ListPending)
					pu.Post("/{id}/assign-staff", h.Pending.AssignAsStaff)
					pu.Post("/{id}/assign-system-user", h.Pending.AssignAsSystemUser)
					pu.Delete("/{id}", h.Pending.DeleteUser)
				})
			})
		})
	})
}
