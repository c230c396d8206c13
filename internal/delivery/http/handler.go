package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bluebuff/storefront/internal/catalog"
	"github.com/bluebuff/storefront/internal/service"
	"github.com/bluebuff/storefront/internal/session"
)

// Handler handles HTTP requests for the storefront.
type Handler struct {
	storefront *service.StorefrontService
	checkout   *service.CheckoutService
	projection *service.ProjectionService
	listings   *service.ListingService
	sessions   *session.Manager
	cookie     CookieConfig
}

// CookieConfig names the session cookie and how long it lives.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func NewHandler(
	storefront *service.StorefrontService,
	checkout *service.CheckoutService,
	projection *service.ProjectionService,
	listings *service.ListingService,
	sessions *session.Manager,
	cookie CookieConfig,
) *Handler {
	return &Handler{
		storefront: storefront,
		checkout:   checkout,
		projection: projection,
		listings:   listings,
		sessions:   sessions,
		cookie:     cookie,
	}
}

// Router builds the instrumented route tree.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/storefront", func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/banners", h.handleBanners)
		r.Get("/games", h.handleGames)
		r.Get("/games/{slug}", h.handleGame)
		r.Get("/ids", h.handleListings)
		r.Get("/ids/{slug}", h.handleListing)

		r.Get("/session", h.handleSession)
		r.Put("/session", h.handleLogin)
		r.Delete("/session", h.handleLogout)
		r.Get("/me", h.handleMe)
		r.Get("/orders", h.handleOrders)

		r.Post("/checkout", h.handleStartCheckout)
		r.Route("/checkout/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetCheckout)
			r.Post("/payment-method", h.handleChoosePaymentMethod)
			r.Post("/proceed", h.handleProceed)
			r.Get("/qr", h.handlePaymentCode)
			r.Post("/acknowledge", h.handleAcknowledge)
		})

		r.Get("/gateway-orders", h.handleGatewayOrders)
		r.Get("/gateway-orders/{orderId}", h.handleGatewayOrder)
	})

	return otelhttp.NewHandler(r, "storefront")
}

func (h *Handler) handleBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.storefront.Banners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, banners)
}

func (h *Handler) handleGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, err := catalog.ParseSortOrder(q.Get("sort"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	hide, _ := strconv.ParseBool(q.Get("hideOutOfStock"))

	view, err := h.storefront.Browse(r.Context(), catalog.Filter{Search: q.Get("search"), Sort: sort, HideOutOfStock: hide})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (h *Handler) handleGame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := catalog.ParseViewMode(q.Get("view"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	page := queryInt(q.Get("page"), 1)

	game, err := h.storefront.Game(r.Context(), sessionFrom(r), chi.URLParam(r, "slug"), q.Get("item"), view, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, game)
}

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rentOnly, _ := strconv.ParseBool(q.Get("rentOnly"))
	globalOnly, _ := strconv.ParseBool(q.Get("globalOnly"))
	writeData(w, http.StatusOK, h.listings.Browse(catalog.ListingFilter{
		Search:     q.Get("search"),
		RentOnly:   rentOnly,
		GlobalOnly: globalOnly,
	}))
}

func (h *Handler) handleListing(w http.ResponseWriter, r *http.Request) {
	card, err := h.listings.Listing(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, card)
}

type sessionResponse struct {
	LoggedIn       bool   `json:"loggedIn"`
	Phone          string `json:"phone,omitempty"`
	PendingOrderID string `json:"pendingOrderId,omitempty"`
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	token, err := sess.Token(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	phone, err := sess.Phone(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	pending, err := sess.PendingOrder(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sessionResponse{LoggedIn: token != "", Phone: phone, PendingOrderID: pending})
}

type loginRequest struct {
	Token  string `json:"token"`
	Phone  string `json:"phone"`
	UserID string `json:"userId"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		writeMessage(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := sessionFrom(r).Login(r.Context(), req.Token, req.Phone, req.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.storefront.Me(r.Context(), sessionFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, me)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.storefront.Orders(r.Context(), sessionFrom(r), queryInt(q.Get("page"), 1), q.Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

func (h *Handler) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	var in service.StartInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	agg, err := h.checkout.Start(r.Context(), sessionFrom(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, newCheckoutView(agg))
}

func (h *Handler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	agg, err := h.checkout.Get(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newCheckoutView(agg))
}

type paymentMethodRequest struct {
	Method string `json:"method"`
}

func (h *Handler) handleChoosePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	agg, err := h.checkout.ChoosePaymentMethod(r.Context(), sessionFrom(r), chi.URLParam(r, "id"), req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newCheckoutView(agg))
}

type proceedResponse struct {
	RedirectURL string       `json:"redirectUrl"`
	OrderID     string       `json:"orderId"`
	Checkout    checkoutView `json:"checkout"`
}

func (h *Handler) handleProceed(w http.ResponseWriter, r *http.Request) {
	agg, err := h.checkout.Proceed(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, proceedResponse{
		RedirectURL: agg.Order.PaymentURL,
		OrderID:     agg.Order.OrderID,
		Checkout:    newCheckoutView(agg),
	})
}

func (h *Handler) handlePaymentCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.checkout.PaymentCode(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		slog.Debug("Failed to write payment code", "err", err)
	}
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	agg, err := h.checkout.Acknowledge(r.Context(), sessionFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, newCheckoutView(agg))
}

func (h *Handler) handleGatewayOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.projection.RecentGatewayOrders(r.Context(), sessionFrom(r), queryInt(r.URL.Query().Get("limit"), 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, orders)
}

func (h *Handler) handleGatewayOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.projection.GatewayOrder(r.Context(), sessionFrom(r), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

func queryInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
