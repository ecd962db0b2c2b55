package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"trusthaven/internal/models"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	optionalMiddleware := standardMiddleware.Append(app.optionalAuth)
	authMiddleware := standardMiddleware.Append(app.authenticate(models.RoleExplorer))
	pioneerMiddleware := standardMiddleware.Append(app.authenticate(models.RolePioneer))
	guardianMiddleware := standardMiddleware.Append(app.authenticate(models.RoleGuardian))

	mux := pat.New()

	// Auth
	mux.Post("/api/v1/signup", standardMiddleware.ThenFunc(app.authHandler.SignUp))
	mux.Post("/api/v1/auth/signin", standardMiddleware.ThenFunc(app.authHandler.SignIn))
	mux.Post("/api/v1/auth/google", standardMiddleware.ThenFunc(app.authHandler.GoogleSignIn))
	mux.Post("/api/v1/auth/phone/send", standardMiddleware.ThenFunc(app.authHandler.SendPhoneCode))
	mux.Post("/api/v1/auth/phone/verify", standardMiddleware.ThenFunc(app.authHandler.VerifyPhoneCode))
	mux.Post("/api/v1/auth/refresh", standardMiddleware.ThenFunc(app.authHandler.Refresh))
	mux.Post("/api/v1/auth/logout", authMiddleware.ThenFunc(app.authHandler.Logout))

	// Current user
	mux.Get("/api/v1/me", authMiddleware.ThenFunc(app.userHandler.Me))
	mux.Put("/api/v1/me", authMiddleware.ThenFunc(app.userHandler.UpdateMe))
	mux.Post("/api/v1/me/upgrade", authMiddleware.ThenFunc(app.userHandler.Upgrade))
	mux.Get("/api/v1/me/listings", authMiddleware.ThenFunc(app.listingHandler.Mine))
	mux.Get("/api/v1/me/saved", authMiddleware.ThenFunc(app.favoriteHandler.List))
	mux.Get("/api/v1/me/inquiries/received", authMiddleware.ThenFunc(app.inquiryHandler.Received))
	mux.Get("/api/v1/me/inquiries", authMiddleware.ThenFunc(app.inquiryHandler.Sent))
	mux.Get("/api/v1/dashboard", authMiddleware.ThenFunc(app.dashboardHandler.Dashboard))

	// Catalog
	mux.Get("/api/v1/categories", standardMiddleware.ThenFunc(app.categoryHandler.GetAllCategories))
	mux.Get("/api/v1/listings", standardMiddleware.ThenFunc(app.listingHandler.Search))
	mux.Get("/api/v1/listings/featured", standardMiddleware.ThenFunc(app.listingHandler.Featured))
	mux.Post("/api/v1/listings", pioneerMiddleware.ThenFunc(app.listingHandler.Create))
	mux.Get("/api/v1/listings/:id", optionalMiddleware.ThenFunc(app.listingHandler.Get))
	mux.Put("/api/v1/listings/:id", authMiddleware.ThenFunc(app.listingHandler.Update))
	mux.Del("/api/v1/listings/:id", authMiddleware.ThenFunc(app.listingHandler.Delete))
	mux.Post("/api/v1/listings/:id/images", authMiddleware.ThenFunc(app.listingHandler.UploadImages))

	// Reviews
	mux.Get("/api/v1/listings/:id/reviews", optionalMiddleware.ThenFunc(app.reviewHandler.GetReviewsByListingID))
	mux.Post("/api/v1/listings/:id/reviews", authMiddleware.ThenFunc(app.reviewHandler.CreateReview))
	mux.Put("/api/v1/reviews/:id", authMiddleware.ThenFunc(app.reviewHandler.UpdateReview))
	mux.Del("/api/v1/reviews/:id", authMiddleware.ThenFunc(app.reviewHandler.DeleteReview))

	// Saved listings
	mux.Post("/api/v1/listings/:id/save", authMiddleware.ThenFunc(app.favoriteHandler.Save))
	mux.Del("/api/v1/listings/:id/save", authMiddleware.ThenFunc(app.favoriteHandler.Remove))

	// Inquiries
	mux.Post("/api/v1/contact", optionalMiddleware.ThenFunc(app.inquiryHandler.Contact))
	mux.Post("/api/v1/listings/:id/inquiries", authMiddleware.ThenFunc(app.inquiryHandler.AskAboutListing))

	// Guardian
	mux.Get("/api/v1/admin/users", guardianMiddleware.ThenFunc(app.userHandler.ListUsers))
	mux.Put("/api/v1/admin/users/:id/role", guardianMiddleware.ThenFunc(app.userHandler.ChangeRole))
	mux.Put("/api/v1/admin/users/:id/status", guardianMiddleware.ThenFunc(app.userHandler.ChangeStatus))
	mux.Get("/api/v1/admin/listings", guardianMiddleware.ThenFunc(app.listingHandler.Pending))
	mux.Put("/api/v1/admin/listings/:id/moderate", guardianMiddleware.ThenFunc(app.listingHandler.Moderate))
	mux.Get("/api/v1/admin/contact", guardianMiddleware.ThenFunc(app.inquiryHandler.ContactMessages))

	// Notifications
	mux.Post("/api/v1/notify_tokens", authMiddleware.ThenFunc(app.notifyTokenHandler.Register))
	mux.Del("/api/v1/notify_tokens/:token", authMiddleware.ThenFunc(app.notifyTokenHandler.Remove))
	mux.Get("/api/v1/ws", alice.New(app.recoverPanic, app.logRequest, websocketToken, app.authenticate(models.RoleExplorer)).ThenFunc(app.hub.ServeWS))

	return mux
}
