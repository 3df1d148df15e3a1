package services

import (
	"context"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
)

// stubEngineClient implements engine.Client with overridable behaviour per test.
type stubEngineClient struct {
	loginFn             func(ctx context.Context, storeID, username, password string) (engine.LoginResult, error)
	loginByCustomerIDFn func(ctx context.Context, storeID string, customerID int) (engine.LoginResult, error)
	logoutFn            func(ctx context.Context, storeID, sessionToken string) error
	basketItemsFn       func(ctx context.Context, storeID, sessionToken string) ([]domain.BasketLine, error)
	refreshStockFn      func(ctx context.Context, storeID string, lines []domain.BasketLine) ([]domain.BasketLine, error)
	createOrderFn       func(ctx context.Context, storeID, sessionToken string, lines []domain.BasketLine, opts domain.CreateOrderOptions, languageID int) (*domain.EphemeralOrder, error)
	shippingQuotesFn    func(ctx context.Context, storeID string, order *domain.EphemeralOrder) ([]domain.ShippingQuote, error)
	recomputeTotalsFn   func(ctx context.Context, storeID string, order *domain.EphemeralOrder) error
	customerForIDFn     func(ctx context.Context, customerID int) (*domain.AdminCustomer, error)

	logoutCalls int
}

func (s *stubEngineClient) Login(ctx context.Context, storeID, username, password string) (engine.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, storeID, username, password)
	}
	return engine.LoginResult{SessionToken: "token", CustomerID: 42}, nil
}

func (s *stubEngineClient) LoginByCustomerID(ctx context.Context, storeID string, customerID int) (engine.LoginResult, error) {
	if s.loginByCustomerIDFn != nil {
		return s.loginByCustomerIDFn(ctx, storeID, customerID)
	}
	return engine.LoginResult{SessionToken: "token", CustomerID: customerID}, nil
}

func (s *stubEngineClient) Logout(ctx context.Context, storeID, sessionToken string) error {
	s.logoutCalls++
	if s.logoutFn != nil {
		return s.logoutFn(ctx, storeID, sessionToken)
	}
	return nil
}

func (s *stubEngineClient) BasketItems(ctx context.Context, storeID, sessionToken string) ([]domain.BasketLine, error) {
	if s.basketItemsFn != nil {
		return s.basketItemsFn(ctx, storeID, sessionToken)
	}
	return nil, nil
}

func (s *stubEngineClient) AddBasketItem(ctx context.Context, storeID, sessionToken string, productID string, quantity int, options []*domain.Option) ([]domain.BasketLine, error) {
	return nil, nil
}

func (s *stubEngineClient) UpdateBasketItem(ctx context.Context, storeID, sessionToken, lineID string, quantity int) ([]domain.BasketLine, error) {
	return nil, nil
}

func (s *stubEngineClient) RemoveBasketItem(ctx context.Context, storeID, sessionToken, lineID string) ([]domain.BasketLine, error) {
	return nil, nil
}

func (s *stubEngineClient) RefreshBasketStock(ctx context.Context, storeID string, lines []domain.BasketLine) ([]domain.BasketLine, error) {
	if s.refreshStockFn != nil {
		return s.refreshStockFn(ctx, storeID, lines)
	}
	return lines, nil
}

func (s *stubEngineClient) CreateOrder(ctx context.Context, storeID, sessionToken string, lines []domain.BasketLine, opts domain.CreateOrderOptions, languageID int) (*domain.EphemeralOrder, error) {
	if s.createOrderFn != nil {
		return s.createOrderFn(ctx, storeID, sessionToken, lines, opts, languageID)
	}
	return &domain.EphemeralOrder{ID: "order-1", Lines: lines}, nil
}

func (s *stubEngineClient) ShippingQuotes(ctx context.Context, storeID string, order *domain.EphemeralOrder) ([]domain.ShippingQuote, error) {
	if s.shippingQuotesFn != nil {
		return s.shippingQuotesFn(ctx, storeID, order)
	}
	return nil, nil
}

func (s *stubEngineClient) RecomputeTotals(ctx context.Context, storeID string, order *domain.EphemeralOrder) error {
	if s.recomputeTotalsFn != nil {
		return s.recomputeTotalsFn(ctx, storeID, order)
	}
	return nil
}

func (s *stubEngineClient) CustomerForID(ctx context.Context, customerID int) (*domain.AdminCustomer, error) {
	if s.customerForIDFn != nil {
		return s.customerForIDFn(ctx, customerID)
	}
	return &domain.AdminCustomer{ID: customerID, GroupID: 1}, nil
}

var _ engine.Client = (*stubEngineClient)(nil)
