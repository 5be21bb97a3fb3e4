package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"kantin-be/internal/logger"
	"kantin-be/internal/menu"
	"kantin-be/internal/order"
	"kantin-be/internal/report"
	"kantin-be/internal/user"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler wires the HTTP surface to the domain services. Authentication
// state comes from middleware; role checks happen inside the services
// against the stored role.
type Handler struct {
	users   user.Service
	menus   menu.Service
	orders  order.Service
	reports *report.Service
}

func NewHandler(users user.Service, menus menu.Service, orders order.Service, reports *report.Service) *Handler {
	return &Handler{
		users:   users,
		menus:   menus,
		orders:  orders,
		reports: reports,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps service errors onto HTTP statuses. Unknown errors
// become opaque 500s; the detail stays in the logs.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *menu.InsufficientStockError

	switch {
	case errors.Is(err, order.ErrOrderNotFound), errors.Is(err, menu.ErrMenuItemNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrUnauthorized):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, struct {
			Error     string               `json:"error"`
			Shortages []menu.StockShortage `json:"shortages"`
		}{Error: "insufficient stock", Shortages: stockErr.Shortages})
	case errors.Is(err, order.ErrWindowExpired):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidMethod),
		errors.Is(err, order.ErrNameRequired),
		errors.Is(err, menu.ErrInvalidCategory),
		errors.Is(err, menu.ErrNameRequired),
		errors.Is(err, menu.ErrInvalidPrice),
		errors.Is(err, menu.ErrInvalidStock):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func orderIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// --- Auth ---

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, u, err := h.users.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeDomainError(w, r, err)
		return
	}

	setAuthCookie(w, token)
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(u)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.writeDomainError(w, r, err)
		return
	}

	setAuthCookie(w, token)
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(u)})
}

// --- Menu ---

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	var category *menu.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := menu.Category(raw)
		if !c.Valid() {
			respondError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = &c
	}

	items, err := h.menus.List(r.Context(), category)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu id")
		return
	}

	item, err := h.menus.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyStaff(r.Context()); err != nil {
		respondError(w, http.StatusForbidden, "staff privilege required")
		return
	}

	var input menu.CreateMenuItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.menus.Create(r.Context(), input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyStaff(r.Context()); err != nil {
		respondError(w, http.StatusForbidden, "staff privilege required")
		return
	}

	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu id")
		return
	}

	var input menu.UpdateMenuItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.menus.Update(r.Context(), id, input)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyStaff(r.Context()); err != nil {
		respondError(w, http.StatusForbidden, "staff privilege required")
		return
	}

	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid menu id")
		return
	}

	if err := h.menus.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Orders ---

type placeOrderRequest struct {
	CustomerName  string          `json:"customerName"`
	Items         []lineItemInput `json:"items"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
}

type lineItemInput struct {
	MenuID   uint `json:"menuId"`
	Quantity int  `json:"quantity"`
}

func toItemInputs(items []lineItemInput) []order.ItemInput {
	out := make([]order.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, order.ItemInput{MenuID: it.MenuID, Quantity: it.Quantity})
	}
	return out
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderInput{
		CustomerName:  req.CustomerName,
		Items:         toItemInputs(req.Items),
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handler) CreateManualOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.CreateManualOrder(r.Context(), order.ManualOrderInput{
		CustomerName:  req.CustomerName,
		Items:         toItemInputs(req.Items),
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, limit, page, err := parseOrderListQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), filter, limit, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func parseOrderListQuery(r *http.Request) (*order.OrderFilterInput, *int32, *int32, error) {
	q := r.URL.Query()
	filter := &order.OrderFilterInput{}

	if raw := q.Get("status"); raw != "" {
		s := order.Status(raw)
		switch s {
		case order.StatusAwaitingPayment, order.StatusPending, order.StatusCompleted, order.StatusCancelled:
			filter.Status = &s
		default:
			return nil, nil, nil, errors.New("unknown status filter")
		}
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, nil, errors.New("from must be RFC3339")
		}
		filter.DateFrom = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, nil, errors.New("to must be RFC3339")
		}
		filter.DateTo = &t
	}

	var limit, page *int32
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 {
			return nil, nil, nil, errors.New("limit must be a positive integer")
		}
		v := int32(n)
		limit = &v
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 {
			return nil, nil, nil, errors.New("page must be a positive integer")
		}
		v := int32(n)
		page = &v
	}

	return filter, limit, page, nil
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orders.CancelOrder(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orders.ConfirmPaymentAndQueue(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orders.CompleteOrder(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentProofRequest struct {
	ProofURL string `json:"proofUrl"`
}

func (h *Handler) SubmitPaymentProof(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req paymentProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProofURL == "" {
		respondError(w, http.StatusBadRequest, "proofUrl is required")
		return
	}

	if err := h.orders.SubmitPaymentProof(r.Context(), id, req.ProofURL); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Admin / reports ---

// SweepExpired triggers one ad-hoc sweep outside the timer.
func (h *Handler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyStaff(r.Context()); err != nil {
		respondError(w, http.StatusForbidden, "staff privilege required")
		return
	}

	count, err := h.orders.SweepExpired(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Cancelled int `json:"cancelled"`
	}{Cancelled: count})
}

func (h *Handler) ExportOrdersCSV(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyStaff(r.Context()); err != nil {
		respondError(w, http.StatusForbidden, "staff privilege required")
		return
	}

	filter, _, _, err := parseOrderListQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	if err := h.reports.WriteOrdersCSV(r.Context(), w, filter); err != nil {
		// Headers may already be on the wire; log and give up on the body.
		logger.FromCtx(r.Context()).Error("csv export failed", zap.Error(err))
	}
}
