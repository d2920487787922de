package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/auth"
	"github.com/iurnickita/clarsix/internal/gzip"
	"github.com/iurnickita/clarsix/internal/handler/config"
	"github.com/iurnickita/clarsix/internal/lifecycle"
	"github.com/iurnickita/clarsix/internal/logger"
	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/service"
	"github.com/iurnickita/clarsix/internal/service/apiclient"
	"github.com/iurnickita/clarsix/internal/store"
)

const defaultShutdownTimeout = 10 * time.Second

// Serve обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func Serve(ctx context.Context, cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zaplog.Info("server started", zap.String("addr", cfg.ServerAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type handler struct {
	auth    auth.Auth
	service service.Service
	zaplog  *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, zaplog *zap.Logger) *handler {
	return &handler{
		auth:    auth,
		service: service,
		zaplog:  zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", h.public(h.auth.Register))
	mux.HandleFunc("POST /api/login", h.public(h.auth.Login))
	mux.HandleFunc("POST /api/logout", h.public(h.auth.Logout))

	mux.HandleFunc("GET /api/dashboard", h.private(h.GetDashboard))
	mux.HandleFunc("GET /api/orders", h.private(h.GetOrders))
	mux.HandleFunc("POST /api/orders", h.private(h.PostOrder))
	mux.HandleFunc("GET /api/orders/{orderId}", h.private(h.GetOrder))
	mux.HandleFunc("POST /api/orders/{orderId}/actions/{action}", h.private(h.PostAction))
	mux.HandleFunc("POST /api/orders/{orderId}/error/dismiss", h.private(h.PostDismissError))
	mux.HandleFunc("POST /api/orders/{orderId}/dialog/dismiss", h.private(h.PostDismissDialog))
	mux.HandleFunc("GET /api/orders/{orderId}/preview", h.private(h.GetOrderPreview))
	mux.HandleFunc("POST /api/orders/{orderId}/join", h.private(h.PostJoin))
	mux.HandleFunc("POST /api/orders/{orderId}/payment", h.private(h.PostPayment))
	mux.HandleFunc("GET /api/payment-code/{code}", h.private(h.GetPaymentCode))
	mux.HandleFunc("POST /api/payment-code/{code}/assign", h.private(h.PostAssign))
	mux.HandleFunc("GET /api/payment/callback", h.private(h.GetPaymentCallback))
	mux.HandleFunc("GET /api/users", h.private(h.GetUsers))
	mux.HandleFunc("POST /api/users/{userId}/rating", h.private(h.PostRating))
	mux.HandleFunc("GET /api/marketplace", h.private(h.GetMarketplace))
	mux.HandleFunc("GET /api/profile", h.private(h.GetProfile))
	mux.HandleFunc("PUT /api/profile", h.private(h.PutProfile))
	mux.HandleFunc("GET /api/accounts", h.private(h.GetAccounts))

	return mux
}

func (h *handler) public(fn http.HandlerFunc) http.HandlerFunc {
	return gzip.GzipMiddleware(logger.RequestLogMdlw(fn, h.zaplog))
}

func (h *handler) private(fn http.HandlerFunc) http.HandlerFunc {
	return gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(fn), h.zaplog))
}

func session(r *http.Request) store.Session {
	sess, _ := auth.SessionFromContext(r.Context())
	return sess
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type ErrorJSONResponse struct {
	Error string              `json:"error"`
	View  *lifecycle.Snapshot `json:"view,omitempty"`
}

// errorStatus сопоставляет ошибку с HTTP-кодом и текстом для пользователя.
func errorStatus(err error) (int, string) {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, lifecycle.ErrBusy),
		errors.Is(err, lifecycle.ErrDialogOpen),
		errors.Is(err, lifecycle.ErrAwaitDelivery),
		errors.Is(err, service.ErrNotPayable),
		errors.Is(err, service.ErrReceiverAssigned):
		return http.StatusConflict, err.Error()
	case errors.Is(err, lifecycle.ErrActionUnavailable):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrInsufficientData),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrNotAgreed),
		errors.Is(err, service.ErrSelfRating),
		errors.Is(err, model.ErrRatingOutOfRange),
		errors.Is(err, model.ErrUnknownStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &apiErr):
		return apiErr.StatusCode, apiErr.Detail
	case errors.Is(err, apiclient.ErrTransport):
		return http.StatusBadGateway, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	h.writeViewError(w, err, nil)
}

func (h *handler) writeViewError(w http.ResponseWriter, err error, view *lifecycle.Snapshot) {
	if errors.Is(err, service.ErrUnauthorized) {
		auth.Unauthorized(w)
		return
	}
	code, msg := errorStatus(err)
	if code >= http.StatusInternalServerError {
		h.zaplog.Error("request failed", zap.Error(err))
	}
	writeJSON(w, code, ErrorJSONResponse{Error: msg, View: view})
}

func (h *handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context(), session(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	filter := service.OrderFilter{Query: r.URL.Query().Get("q")}
	if status := r.URL.Query().Get("status"); status != "" && !strings.EqualFold(status, "all") {
		parsed, err := model.ParseOrderStatus(status)
		if err != nil {
			h.writeError(w, err)
			return
		}
		filter.Status = parsed
	}

	orders, err := h.service.Orders(r.Context(), session(r), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

type PostOrderJSONRequest struct {
	ProductTitle   string          `json:"product_title"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Role           lifecycle.Role  `json:"role"`
	CounterpartyID model.ID        `json:"counterparty_id"`
}

func (h *handler) PostOrder(w http.ResponseWriter, r *http.Request) {
	var req PostOrderJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorJSONResponse{Error: err.Error()})
		return
	}

	order, err := h.service.CreateOrder(r.Context(), session(r), service.NewOrder{
		ProductTitle:   req.ProductTitle,
		Description:    req.Description,
		Amount:         req.Amount,
		Role:           req.Role,
		CounterpartyID: req.CounterpartyID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.OpenOrder(r.Context(), session(r), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) PostAction(w http.ResponseWriter, r *http.Request) {
	kind, ok := lifecycle.ParseActionKind(r.PathValue("action"))
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorJSONResponse{Error: "unknown action"})
		return
	}

	snapshot, err := h.service.ExecuteAction(r.Context(), session(r), r.PathValue("orderId"), kind)
	if err != nil {
		if snapshot.Order.OrderID == "" {
			h.writeError(w, err)
			return
		}
		h.writeViewError(w, err, &snapshot)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) PostDismissError(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.DismissError(r.Context(), session(r), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) PostDismissDialog(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.DismissDialog(r.Context(), session(r), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) GetOrderPreview(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.PreviewOrder(r.Context(), session(r), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type PostJoinJSONRequest struct {
	Agreed bool `json:"agreed"`
}

func (h *handler) PostJoin(w http.ResponseWriter, r *http.Request) {
	var req PostJoinJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorJSONResponse{Error: err.Error()})
		return
	}

	orderID := r.PathValue("orderId")
	if err := h.service.JoinOrder(r.Context(), session(r), orderID, req.Agreed); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/orders/" + orderID})
}

type PaymentJSONResponse struct {
	PaymentURL string `json:"payment_url"`
}

func (h *handler) PostPayment(w http.ResponseWriter, r *http.Request) {
	paymentURL, err := h.service.InitiatePayment(r.Context(), session(r), r.PathValue("orderId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentJSONResponse{PaymentURL: paymentURL})
}

func (h *handler) GetPaymentCode(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.PaymentCode(r.Context(), session(r), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *handler) PostAssign(w http.ResponseWriter, r *http.Request) {
	assigned, err := h.service.AssignSelf(r.Context(), session(r), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assigned)
}

func (h *handler) GetPaymentCallback(w http.ResponseWriter, r *http.Request) {
	// платежная страница возвращает reference или trxref
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}
	result, err := h.service.PaymentCallback(r.Context(), session(r), reference)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Users(r.Context(), session(r), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type PostRatingJSONRequest struct {
	Rating int `json:"rating"`
}

func (h *handler) PostRating(w http.ResponseWriter, r *http.Request) {
	var req PostRatingJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorJSONResponse{Error: err.Error()})
		return
	}

	user, err := h.service.RateUser(r.Context(), session(r), model.NormalizeID(r.PathValue("userId")), req.Rating)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) GetMarketplace(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	market, err := h.service.Marketplace(r.Context(), session(r), query.Get("q"), query.Get("category"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, market)
}

func (h *handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(r.Context(), session(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var update apiclient.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorJSONResponse{Error: err.Error()})
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), session(r), update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.Accounts(r.Context(), session(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}
