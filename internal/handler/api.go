package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/signup"
)

// Authenticator signs users in and validates their session tokens
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, *models.Account, error)
	ParseToken(token string) (string, error)
}

// Signups runs the combined signup and RSVP flow
type Signups interface {
	SignupWithRSVP(ctx context.Context, data signup.SignupData) signup.SignupResult
}

// RSVPs records and reads RSVPs
type RSVPs interface {
	Upsert(ctx context.Context, data rsvp.RSVPData) (*models.RSVP, error)
	SubmitPrimary(ctx context.Context, data rsvp.RSVPData) (*models.RSVP, error)
	SubmitSimple(ctx context.Context, userID, eventID string, attendance models.Attendance) (*models.RSVP, error)
	Get(ctx context.Context, userID, eventID string) (*models.RSVP, error)
	ListForEvent(ctx context.Context, eventID string) ([]models.RSVP, error)
	Summary(ctx context.Context, eventID string) (*models.RSVPSummary, error)
}

// Prompts decides and answers the daily RSVP reminder
type Prompts interface {
	ShouldPrompt(ctx context.Context, userID string, now time.Time) (bool, error)
	QuickRespond(ctx context.Context, userID string, status models.RSVPStatus) (*models.RSVP, error)
}

// GuestList reads the guest list for admins
type GuestList interface {
	GetAllGuests(ctx context.Context) ([]models.Guest, error)
	GetGuestsByStatus(ctx context.Context, status models.RSVPStatus) ([]models.Guest, error)
}

// APIDeps are the services behind the HTTP API
type APIDeps struct {
	Auth       Authenticator
	Signups    Signups
	RSVPs      RSVPs
	Prompts    Prompts
	Guests     GuestList
	Metrics    *metrics.Metrics
	AdminToken string
	// AuthRateLimit is requests per second per client IP on signup and
	// signin; 0 disables limiting
	AuthRateLimit float64
	Log           zerolog.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// API serves the guest and admin endpoints
type API struct {
	auth       Authenticator
	signups    Signups
	rsvps      RSVPs
	prompts    Prompts
	guests     GuestList
	metrics    *metrics.Metrics
	adminToken string
	limiter    *limiter.Limiter
	log        zerolog.Logger
	now        func() time.Time
}

// NewAPI creates the HTTP API from its services
func NewAPI(deps APIDeps) *API {
	a := &API{
		auth:       deps.Auth,
		signups:    deps.Signups,
		rsvps:      deps.RSVPs,
		prompts:    deps.Prompts,
		guests:     deps.Guests,
		metrics:    deps.Metrics,
		adminToken: deps.AdminToken,
		log:        deps.Log,
		now:        deps.Now,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if deps.AuthRateLimit > 0 {
		a.limiter = tollbooth.NewLimiter(deps.AuthRateLimit, nil)
		a.limiter.SetMessageContentType("application/json")
		a.limiter.SetMessage(`{"success":false,"error":"too many requests, please slow down"}`)
	}
	return a
}

// Router registers every route
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.logRequests)

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/signup", a.limited(a.signup)).Methods(http.MethodPost)
	api.Handle("/signin", a.limited(a.signin)).Methods(http.MethodPost)

	user := api.NewRoute().Subrouter()
	user.Use(a.requireUser)
	user.HandleFunc("/rsvp", a.getRSVP).Methods(http.MethodGet)
	user.HandleFunc("/rsvp", a.putRSVP).Methods(http.MethodPut)
	user.HandleFunc("/rsvp/simple", a.simpleRSVP).Methods(http.MethodPost)
	user.HandleFunc("/prompt", a.prompt).Methods(http.MethodGet)
	user.HandleFunc("/prompt/respond", a.promptRespond).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(a.requireAdmin)
	admin.HandleFunc("/rsvps", a.listRSVPs).Methods(http.MethodGet)
	admin.HandleFunc("/rsvps/summary", a.summary).Methods(http.MethodGet)
	admin.HandleFunc("/guests", a.listGuests).Methods(http.MethodGet)

	return r
}

// limited applies the per-IP rate limit of the credential endpoints
func (a *API) limited(h http.HandlerFunc) http.Handler {
	if a.limiter == nil {
		return h
	}
	return tollbooth.LimitHandler(a.limiter, h)
}

// Handler wraps the router with CORS
func (a *API) Handler(allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Admin-Token"},
		AllowCredentials: true,
	}).Handler(a.Router())
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	ev := a.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = a.log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	writeError(w, status, message)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var data signup.SignupData
	if err := decode(w, r, &data); err != nil {
		a.fail(w, r, err)
		return
	}
	res := a.signups.SignupWithRSVP(r.Context(), data)
	if !res.Success {
		status, _ := statusFor(res.Err)
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
}

func (a *API) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	token, account, err := a.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signinResponse{Success: true, Token: token, UserID: account.ID})
}

type rsvpResponse struct {
	Success bool         `json:"success"`
	RSVP    *models.RSVP `json:"rsvp"`
	// UIStatus is the form value of RSVP.Status
	UIStatus models.UIStatus `json:"ui_status"`
}

func writeRSVP(w http.ResponseWriter, status int, r *models.RSVP) {
	writeJSON(w, status, rsvpResponse{Success: true, RSVP: r, UIStatus: models.MapDatabaseToUI(string(r.Status))})
}

func (a *API) getRSVP(w http.ResponseWriter, r *http.Request) {
	res, err := a.rsvps.Get(r.Context(), UserID(r.Context()), r.URL.Query().Get("event_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeRSVP(w, http.StatusOK, res)
}

func (a *API) putRSVP(w http.ResponseWriter, r *http.Request) {
	var data rsvp.RSVPData
	if err := decode(w, r, &data); err != nil {
		a.fail(w, r, err)
		return
	}
	// the token decides whose RSVP this is
	data.UserID = UserID(r.Context())

	var (
		res *models.RSVP
		err error
	)
	if data.EventID == "" {
		res, err = a.rsvps.SubmitPrimary(r.Context(), data)
	} else {
		res, err = a.rsvps.Upsert(r.Context(), data)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeRSVP(w, http.StatusOK, res)
}

type simpleRequest struct {
	Attendance models.Attendance `json:"attendance"`
	EventID    string            `json:"event_id"`
}

func (a *API) simpleRSVP(w http.ResponseWriter, r *http.Request) {
	var req simpleRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.rsvps.SubmitSimple(r.Context(), UserID(r.Context()), req.EventID, req.Attendance)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeRSVP(w, http.StatusOK, res)
}

type promptResponse struct {
	Success bool `json:"success"`
	Show    bool `json:"show"`
}

func (a *API) prompt(w http.ResponseWriter, r *http.Request) {
	show, err := a.prompts.ShouldPrompt(r.Context(), UserID(r.Context()), a.now())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Success: true, Show: show})
}

type promptRespondRequest struct {
	Status string `json:"status"`
}

func (a *API) promptRespond(w http.ResponseWriter, r *http.Request) {
	var req promptRespondRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	status, ok := models.LookupStatus(req.Status)
	if !ok {
		a.fail(w, r, &rsvp.ValidationError{Message: "quick response must be attending or not_attending"})
		return
	}
	res, err := a.prompts.QuickRespond(r.Context(), UserID(r.Context()), status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeRSVP(w, http.StatusOK, res)
}

// statusBadge is one status row of the admin dashboard
type statusBadge struct {
	Status  models.RSVPStatus `json:"status"`
	Label   string            `json:"label"`
	Classes string            `json:"classes"`
	Count   int64             `json:"count"`
}

type summaryResponse struct {
	Success  bool                `json:"success"`
	Summary  *models.RSVPSummary `json:"summary"`
	Statuses []statusBadge       `json:"statuses"`
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.rsvps.Summary(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	badges := make([]statusBadge, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		badges = append(badges, statusBadge{
			Status:  st,
			Label:   models.StatusDisplayText(st),
			Classes: models.StatusColorClasses(st),
			Count:   sum.Counts[st],
		})
	}
	writeJSON(w, http.StatusOK, summaryResponse{Success: true, Summary: sum, Statuses: badges})
}

type rsvpListResponse struct {
	Success bool          `json:"success"`
	RSVPs   []models.RSVP `json:"rsvps"`
}

func (a *API) listRSVPs(w http.ResponseWriter, r *http.Request) {
	rsvps, err := a.rsvps.ListForEvent(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if rsvps == nil {
		rsvps = []models.RSVP{}
	}
	writeJSON(w, http.StatusOK, rsvpListResponse{Success: true, RSVPs: rsvps})
}

type guestsResponse struct {
	Success bool           `json:"success"`
	Guests  []models.Guest `json:"guests"`
}

func (a *API) listGuests(w http.ResponseWriter, r *http.Request) {
	var (
		guests []models.Guest
		err    error
	)
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := models.LookupStatus(s)
		if !ok {
			a.fail(w, r, &rsvp.ValidationError{Message: "unknown status filter"})
			return
		}
		guests, err = a.guests.GetGuestsByStatus(r.Context(), status)
	} else {
		guests, err = a.guests.GetAllGuests(r.Context())
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if guests == nil {
		guests = []models.Guest{}
	}
	writeJSON(w, http.StatusOK, guestsResponse{Success: true, Guests: guests})
}
