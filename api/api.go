package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/studynotion/backend/api/background"
	"github.com/studynotion/backend/api/middleware"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/config"
	"github.com/studynotion/backend/core/admin"
	"github.com/studynotion/backend/core/auth"
	"github.com/studynotion/backend/core/cart"
	"github.com/studynotion/backend/core/category"
	"github.com/studynotion/backend/core/course"
	"github.com/studynotion/backend/core/enrollment"
	"github.com/studynotion/backend/core/lecture"
	"github.com/studynotion/backend/core/order"
	"github.com/studynotion/backend/core/review"
	"github.com/studynotion/backend/core/token"
	"github.com/studynotion/backend/core/user"
	"github.com/studynotion/backend/core/wishlist"
	"github.com/studynotion/backend/rate"
)

type APIConfig struct {
	CorsOrigin         string
	Log                logrus.FieldLogger
	DB                 *sqlx.DB
	Session            *scs.SessionManager
	Mailer             token.Mailer
	DecisionMailer     course.DecisionMailer
	TokenTimeout       time.Duration
	Background         *background.Background
	Limiter            *rate.Limiter
	Paypal             *paypal.Client
	Stripe             *stripecl.API
	StripeCfg          config.Stripe
	Providers          map[string]auth.Provider
	LoginRedirectURL   string
	ActivationRequired bool
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	instructor := auth.Instructor(cfg.Session)
	admn := auth.Admin(cfg.Session)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session, cfg.ActivationRequired))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodPost, "/tokens", token.HandleToken(cfg.DB, cfg.Mailer, cfg.TokenTimeout, cfg.Background))
	a.Handle(http.MethodPost, "/tokens/activate", token.HandleActivation(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/tokens/recover", token.HandleRecovery(cfg.DB))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodPut, "/users/current", user.HandleUpdateCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/{id}", user.HandleShow(cfg.DB), authen)

	a.Handle(http.MethodGet, "/categories", category.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/categories", category.HandleCreate(cfg.DB), admn)

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.DB), instructor)
	a.Handle(http.MethodGet, "/courses/enrolled", course.HandleListEnrolled(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{course_id}/lectures", lecture.HandleListByCourse(cfg.DB))
	a.Handle(http.MethodGet, "/courses/{course_id}/progress", enrollment.HandleProgress(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{id}/reviews", review.HandleListByCourse(cfg.DB))
	a.Handle(http.MethodPost, "/courses/{id}/reviews", review.HandleCreate(cfg.DB), authen)
	a.Handle(http.MethodPost, "/courses/{id}/enroll", enrollment.HandleEnroll(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{id}/enrollment-status", enrollment.HandleStatus(cfg.DB), authen)
	a.Handle(http.MethodPost, "/courses/{id}/resubmit", course.HandleResubmit(cfg.DB), instructor)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), instructor)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB), instructor)

	a.Handle(http.MethodGet, "/lectures/{id}", lecture.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/lectures", lecture.HandleCreate(cfg.DB), instructor)
	a.Handle(http.MethodPut, "/lectures/{id}/complete", lecture.HandleComplete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/lectures/{id}", lecture.HandleUpdate(cfg.DB), instructor)

	a.Handle(http.MethodGet, "/admin/pending-courses", course.HandleListPending(cfg.DB), admn)
	a.Handle(http.MethodGet, "/admin/all-courses", course.HandleListAll(cfg.DB), admn)
	a.Handle(http.MethodPost, "/admin/approve-course/{id}", course.HandleApprove(cfg.DB, cfg.DecisionMailer, cfg.Background), admn)
	a.Handle(http.MethodPost, "/admin/reject-course/{id}", course.HandleReject(cfg.DB, cfg.DecisionMailer, cfg.Background), admn)
	a.Handle(http.MethodPost, "/admin/request-revision/{id}", course.HandleRequestRevision(cfg.DB, cfg.DecisionMailer, cfg.Background), admn)
	a.Handle(http.MethodPut, "/admin/update-course-price/{id}", course.HandleUpdatePrice(cfg.DB), admn)
	a.Handle(http.MethodPut, "/admin/feature-course/{id}", course.HandleFeature(cfg.DB), admn)
	a.Handle(http.MethodDelete, "/admin/delete-course/{id}", course.HandleDelete(cfg.DB), admn)
	a.Handle(http.MethodGet, "/admin/instructors", user.HandleListInstructors(cfg.DB), admn)
	a.Handle(http.MethodGet, "/admin/dashboard", admin.HandleDashboard(cfg.DB), admn)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/items/{course_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodGet, "/wishlist", wishlist.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPut, "/wishlist/items", wishlist.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/wishlist/items/{course_id}", wishlist.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.StripeCfg))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
