// Package apitest - поддельный удаленный API для тестов клиента.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/clarsix/internal/model"
)

type failure struct {
	code   int
	detail string
}

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[model.ID]model.User
	passwords map[string]model.ID
	orders    map[string]model.Order
	accounts  []model.Account
	revoked   map[string]bool
	calls     map[string]int
	failNext  *failure
	nextID    int64
}

// NewServer поднимает сервер с двумя пользователями:
// 1 (ama@example.com) и 2 (kofi@example.com), пароль "secret".
func NewServer() *Server {
	s := &Server{
		users:     make(map[model.ID]model.User),
		passwords: make(map[string]model.ID),
		orders:    make(map[string]model.Order),
		revoked:   make(map[string]bool),
		calls:     make(map[string]int),
		nextID:    100,
	}
	s.AddUser(model.User{ID: model.NewID(1), Name: "Ama", Email: "ama@example.com"})
	s.AddUser(model.User{ID: model.NewID(2), Name: "Kofi", Email: "kofi@example.com",
		IsBusiness: true, BusinessCategory: "Electronics & Gadgets", Rating: 4, TotalRatings: 3, Location: "Accra"})
	s.accounts = []model.Account{
		{ID: model.NewID(1), UserID: model.NewID(1), Type: model.AccountTypeBank, Name: "Stanbic Bank", Number: "1234567890", ServiceProvider: "Stanbic"},
		{ID: model.NewID(2), UserID: model.NewID(1), Type: model.AccountTypeMomo, Name: "MTN Mobile Money", Number: "0244000000", ServiceProvider: "MTN"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", s.login)
	mux.HandleFunc("POST /auth/create-user", s.register)
	mux.HandleFunc("GET /auth/users/me", s.auth(s.me))
	mux.HandleFunc("PUT /auth/update-user", s.auth(s.updateUser))
	mux.HandleFunc("GET /auth/users", s.auth(s.listUsers(false)))
	mux.HandleFunc("GET /auth/business-users", s.auth(s.listUsers(true)))
	mux.HandleFunc("POST /auth/rate-user/{userId}", s.auth(s.rateUser))
	mux.HandleFunc("GET /orders/{$}", s.auth(s.listOrders))
	mux.HandleFunc("GET /orders/{orderId}", s.auth(s.getOrder))
	mux.HandleFunc("POST /orders/create", s.auth(s.createOrder))
	mux.HandleFunc("POST /orders/join", s.auth(s.joinOrder))
	mux.HandleFunc("GET /orders/payment-code/{code}", s.auth(s.orderByCode))
	mux.HandleFunc("PATCH /orders/{orderId}/status", s.auth(s.updateStatus))
	mux.HandleFunc("PATCH /orders/{id}/assign-receiver", s.auth(s.assignReceiver))
	mux.HandleFunc("PUT /orders/{verb}/{orderId}", s.auth(s.transition))
	mux.HandleFunc("GET /payment/initiate-payment/{orderId}", s.auth(s.initiatePayment))
	mux.HandleFunc("POST /payment/payment-callback", s.auth(s.paymentCallback))
	mux.HandleFunc("GET /accounts/{$}", s.auth(s.listAccounts))

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		pattern := r.Method + " " + r.URL.Path
		s.calls[pattern]++
		fail := s.failNext
		s.failNext = nil
		s.mu.Unlock()

		if fail != nil {
			writeJSON(w, fail.code, map[string]string{"detail": fail.detail})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	return s
}

func (s *Server) AddUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.passwords[user.Email] = user.ID
}

func (s *Server) AddOrder(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
}

func (s *Server) Order(orderID string) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID]
}

func (s *Server) User(id model.ID) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// Calls - сколько раз вызывался "METHOD /path".
func (s *Server) Calls(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[pattern]
}

// FailNext заставляет следующий запрос вернуть code с текстом detail.
func (s *Server) FailNext(code int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = &failure{code: code, detail: detail}
}

// Revoke делает токен недействительным: дальше сервер отвечает 401.
func (s *Server) Revoke(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[accessToken] = true
}

func TokenFor(id model.ID) string {
	return "token-" + id.String()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, viewer model.ID)

func (s *Server) auth(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		revoked := s.revoked[access]
		s.mu.Unlock()
		if !strings.HasPrefix(access, "token-") || revoked {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		h(w, r, model.NormalizeID(strings.TrimPrefix(access, "token-")))
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		detail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	id, ok := s.passwords[r.PostForm.Get("username")]
	s.mu.Unlock()
	if !ok || r.PostForm.Get("password") != "secret" {
		detail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": TokenFor(id), "token_type": "bearer"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var user model.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	if _, exists := s.passwords[user.Email]; exists {
		s.mu.Unlock()
		detail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	s.nextID++
	user.ID = model.NewID(s.nextID)
	s.mu.Unlock()
	s.AddUser(user)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, viewer model.ID) {
	writeJSON(w, http.StatusOK, s.User(viewer))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, viewer model.ID) {
	user := s.User(viewer)
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	user.ID = viewer
	s.AddUser(user)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(businessOnly bool) authedHandler {
	return func(w http.ResponseWriter, _ *http.Request, _ model.ID) {
		s.mu.Lock()
		users := make([]model.User, 0, len(s.users))
		for i := int64(1); i <= s.nextID; i++ {
			if user, ok := s.users[model.NewID(i)]; ok && (!businessOnly || user.IsBusiness) {
				users = append(users, user)
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, users)
	}
}

func (s *Server) rateUser(w http.ResponseWriter, r *http.Request, viewer model.ID) {
	var req struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	id := model.NormalizeID(r.PathValue("userId"))
	if id.Equal(viewer) {
		detail(w, http.StatusBadRequest, "You cannot rate yourself")
		return
	}
	user := s.User(id)
	rated, err := user.WithRating(req.Rating)
	if err != nil {
		detail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.AddUser(rated)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User rated successfully"})
}

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request, viewer model.ID) {
	s.mu.Lock()
	orders := make([]model.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if viewer.Equal(order.SenderID) || viewer.Equal(order.ReceiverID) {
			orders = append(orders, order)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, _ model.ID) {
	s.mu.Lock()
	order, ok := s.orders[r.PathValue("orderId")]
	s.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, _ model.ID) {
	var req struct {
		ProductTitle string          `json:"product_title"`
		Description  string          `json:"description"`
		Amount       decimal.Decimal `json:"amount"`
		SenderID     model.ID        `json:"sender_id"`
		ReceiverID   model.ID        `json:"receiver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.SenderID.IsSet() && req.SenderID.Equal(req.ReceiverID) {
		detail(w, http.StatusBadRequest, "Sender and receiver must differ")
		return
	}
	s.mu.Lock()
	s.nextID++
	order := model.Order{
		ID:           model.NewID(s.nextID),
		OrderID:      fmt.Sprintf("ORD-%03d", s.nextID),
		ProductTitle: req.ProductTitle,
		Description:  req.Description,
		Amount:       req.Amount,
		SenderID:     req.SenderID,
		ReceiverID:   req.ReceiverID,
		Status:       model.OrderStatusPending,
		PaymentCode:  fmt.Sprintf("PAY%05d", s.nextID),
	}
	s.orders[order.OrderID] = order
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) joinOrder(w http.ResponseWriter, r *http.Request, viewer model.ID) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[req.OrderID]
	if !ok {
		detail(w, http.StatusNotFound, "Order not found")
		return
	}
	switch {
	case !order.SenderID.IsSet() && !viewer.Equal(order.ReceiverID):
		order.SenderID = viewer
	case !order.ReceiverID.IsSet() && !viewer.Equal(order.SenderID):
		order.ReceiverID = viewer
	default:
		detail(w, http.StatusBadRequest, "Order already has both parties")
		return
	}
	s.orders[order.OrderID] = order
	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined order"})
}

func (s *Server) orderByCode(w http.ResponseWriter, r *http.Request, _ model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.PaymentCode == r.PathValue("code") {
			writeJSON(w, http.StatusOK, order)
			return
		}
	}
	detail(w, http.StatusNotFound, "Order not found")
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, _ model.ID) {
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[r.PathValue("orderId")]
	if !ok {
		detail(w, http.StatusNotFound, "Order not found")
		return
	}
	order.Status = req.Status
	s.orders[order.OrderID] = order
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) assignReceiver(w http.ResponseWriter, r *http.Request, _ model.ID) {
	var req struct {
		ReceiverID model.ID `json:"receiver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, order := range s.orders {
		if order.ID.Equal(model.NormalizeID(r.PathValue("id"))) {
			order.ReceiverID = req.ReceiverID
			s.orders[key] = order
			writeJSON(w, http.StatusOK, map[string]string{"message": "Receiver assigned"})
			return
		}
	}
	detail(w, http.StatusNotFound, "Order not found")
}

// допустимые переходы по PUT /orders/{verb}/{orderId}
var verbs = map[string]struct {
	from model.OrderStatus
	to   model.OrderStatus
}{
	"cancel":     {model.OrderStatusPending, model.OrderStatusCancelled},
	"restore":    {model.OrderStatusCancelled, model.OrderStatusPending},
	"in-transit": {model.OrderStatusPaid, model.OrderStatusInTransit},
	"deliver":    {model.OrderStatusInTransit, model.OrderStatusDelivered},
	"receive":    {model.OrderStatusDelivered, model.OrderStatusCompleted},
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, _ model.ID) {
	verb, ok := verbs[r.PathValue("verb")]
	if !ok {
		detail(w, http.StatusNotFound, "Not Found")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[r.PathValue("orderId")]
	if !ok {
		detail(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.Status != verb.from {
		detail(w, http.StatusBadRequest, fmt.Sprintf("Order is %s", order.Status))
		return
	}
	order.Status = verb.to
	s.orders[order.OrderID] = order
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order updated"})
}

func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request, _ model.ID) {
	order := s.Order(r.PathValue("orderId"))
	if order.OrderID == "" {
		detail(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, "https://checkout.example.com/"+order.PaymentCode)
}

func (s *Server) paymentCallback(w http.ResponseWriter, r *http.Request, _ model.ID) {
	var req struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !strings.HasPrefix(req.Reference, "ref-") {
		detail(w, http.StatusBadRequest, "Payment verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment verified"})
}

func (s *Server) listAccounts(w http.ResponseWriter, _ *http.Request, _ model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.accounts)
}
