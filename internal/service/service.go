package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/events"
	"github.com/iurnickita/clarsix/internal/lifecycle"
	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/service/apiclient"
	"github.com/iurnickita/clarsix/internal/service/config"
	"github.com/iurnickita/clarsix/internal/store"
)

type Service interface {
	// Сессии
	Login(ctx context.Context, username, password string) (store.Session, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (model.User, error)
	Logout(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (store.Session, error)

	// Заказы
	Dashboard(ctx context.Context, sess store.Session) (Dashboard, error)
	Orders(ctx context.Context, sess store.Session, filter OrderFilter) ([]model.Order, error)
	CreateOrder(ctx context.Context, sess store.Session, order NewOrder) (model.Order, error)
	PreviewOrder(ctx context.Context, sess store.Session, orderID string) (model.Order, error)
	JoinOrder(ctx context.Context, sess store.Session, orderID string, agreed bool) error

	// Представление заказа
	OpenOrder(ctx context.Context, sess store.Session, orderID string) (lifecycle.Snapshot, error)
	ExecuteAction(ctx context.Context, sess store.Session, orderID string, kind lifecycle.ActionKind) (lifecycle.Snapshot, error)
	DismissError(ctx context.Context, sess store.Session, orderID string) (lifecycle.Snapshot, error)
	DismissDialog(ctx context.Context, sess store.Session, orderID string) (lifecycle.Snapshot, error)

	// Оплата
	PaymentCode(ctx context.Context, sess store.Session, code string) (PaymentCodeView, error)
	AssignSelf(ctx context.Context, sess store.Session, code string) (PaymentCodeView, error)
	InitiatePayment(ctx context.Context, sess store.Session, orderID string) (string, error)
	PaymentCallback(ctx context.Context, sess store.Session, reference string) (CallbackResult, error)

	// Пользователи
	Users(ctx context.Context, sess store.Session, query string) ([]model.User, error)
	RateUser(ctx context.Context, sess store.Session, userID model.ID, rating int) (model.User, error)
	Marketplace(ctx context.Context, sess store.Session, query, category string) (Marketplace, error)
	Profile(ctx context.Context, sess store.Session) (model.User, error)
	UpdateProfile(ctx context.Context, sess store.Session, update apiclient.ProfileUpdate) (model.User, error)
	Accounts(ctx context.Context, sess store.Session) (Accounts, error)
}

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidRole      = errors.New("role must be sender or receiver")
	ErrNotAgreed        = errors.New("terms must be accepted to join the order")
	ErrNotPayable       = errors.New("order is not awaiting payment")
	ErrSelfRating       = errors.New("you cannot rate yourself")
	ErrUserNotFound     = errors.New("user not found")
)

type service struct {
	cfg       config.Config
	store     store.Store
	client    apiclient.Client
	publisher events.Publisher
	views     *views
	zaplog    *zap.Logger
	now       func() time.Time
}

func NewService(cfg config.Config, store store.Store, publisher events.Publisher, zaplog *zap.Logger) (Service, error) {
	if cfg.APIAddr == "" {
		return nil, fmt.Errorf("%w: api address", ErrInsufficientData)
	}
	client := apiclient.NewClient(cfg, zaplog)
	return newService(cfg, client, store, publisher, zaplog), nil
}

func newService(cfg config.Config, client apiclient.Client, store store.Store, publisher events.Publisher, zaplog *zap.Logger) *service {
	return &service{
		cfg:       cfg,
		store:     store,
		client:    client,
		publisher: publisher,
		views:     newViews(),
		zaplog:    zaplog,
		now:       time.Now,
	}
}

func (service *service) Login(ctx context.Context, username, password string) (store.Session, error) {
	if username == "" || password == "" {
		return store.Session{}, ErrInsufficientData
	}

	tokens, err := service.client.Login(ctx, username, password)
	if err != nil {
		return store.Session{}, err
	}
	// id зрителя нужен для определения роли в заказах
	viewer, err := service.client.CurrentUser(ctx, tokens.AccessToken)
	if err != nil {
		return store.Session{}, err
	}

	session := store.Session{
		ID:     uuid.NewString(),
		Tokens: tokens,
		Viewer: viewer.ID,
	}
	if err := service.store.SessionPut(ctx, session); err != nil {
		return store.Session{}, err
	}
	return session, nil
}

func (service *service) Register(ctx context.Context, req apiclient.RegisterRequest) (model.User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return model.User{}, ErrInsufficientData
	}
	if !req.IsBusiness {
		req.BusinessCategory = ""
		req.SocialMediaLinks = nil
	}
	return service.client.Register(ctx, req)
}

func (service *service) Logout(ctx context.Context, sessionID string) error {
	service.views.dropSession(sessionID)
	err := service.store.SessionDelete(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNoRows) {
		return err
	}
	return nil
}

// Session загружает сессию. Просроченный токен означает выход из системы
// еще до обращения к удаленному сервису.
func (service *service) Session(ctx context.Context, sessionID string) (store.Session, error) {
	if sessionID == "" {
		return store.Session{}, ErrUnauthorized
	}
	session, err := service.store.SessionGet(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return store.Session{}, ErrUnauthorized
		}
		return store.Session{}, err
	}
	if session.Tokens.Expired(service.now()) {
		if err := service.Logout(ctx, sessionID); err != nil {
			service.zaplog.Warn("expired session cleanup failed", zap.String("session", sessionID), zap.Error(err))
		}
		return store.Session{}, ErrUnauthorized
	}
	return session, nil
}

// check переводит отказ в авторизации удаленным сервисом в выход из системы.
func (service *service) check(ctx context.Context, sess store.Session, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apiclient.ErrUnauthorized) {
		if logoutErr := service.Logout(ctx, sess.ID); logoutErr != nil {
			service.zaplog.Warn("session cleanup failed", zap.String("session", sess.ID), zap.Error(logoutErr))
		}
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}
