package handlers

import (
	"context"

	domain "github.com/forgecart/storefront/internal/domain"
	"github.com/forgecart/storefront/internal/engine"
)

type stubEngineClient struct {
	loginFn       func(ctx context.Context, storeID, username, password string) (engine.LoginResult, error)
	basketItemsFn func(ctx context.Context, storeID, sessionToken string) ([]domain.BasketLine, error)
	addItemFn     func(ctx context.Context, storeID, sessionToken string, productID string, quantity int, options []*domain.Option) ([]domain.BasketLine, error)
	updateItemFn  func(ctx context.Context, storeID, sessionToken, lineID string, quantity int) ([]domain.BasketLine, error)
	removeItemFn  func(ctx context.Context, storeID, sessionToken, lineID string) ([]domain.BasketLine, error)
	createOrderFn func(ctx context.Context, storeID, sessionToken string, lines []domain.BasketLine, opts domain.CreateOrderOptions, languageID int) (*domain.EphemeralOrder, error)
}

func (s *stubEngineClient) Login(ctx context.Context, storeID, username, password string) (engine.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, storeID, username, password)
	}
	return engine.LoginResult{SessionToken: "token", CustomerID: 42}, nil
}

func (s *stubEngineClient) LoginByCustomerID(ctx context.Context, storeID string, customerID int) (engine.LoginResult, error) {
	return engine.LoginResult{SessionToken: "token", CustomerID: customerID}, nil
}

func (s *stubEngineClient) Logout(ctx context.Context, storeID, sessionToken string) error {
	return nil
}

func (s *stubEngineClient) BasketItems(ctx context.Context, storeID, sessionToken string) ([]domain.BasketLine, error) {
	if s.basketItemsFn != nil {
		return s.basketItemsFn(ctx, storeID, sessionToken)
	}
	return nil, nil
}

func (s *stubEngineClient) AddBasketItem(ctx context.Context, storeID, sessionToken string, productID string, quantity int, options []*domain.Option) ([]domain.BasketLine, error) {
	if s.addItemFn != nil {
		return s.addItemFn(ctx, storeID, sessionToken, productID, quantity, options)
	}
	return nil, nil
}

func (s *stubEngineClient) UpdateBasketItem(ctx context.Context, storeID, sessionToken, lineID string, quantity int) ([]domain.BasketLine, error) {
	if s.updateItemFn != nil {
		return s.updateItemFn(ctx, storeID, sessionToken, lineID, quantity)
	}
	return nil, nil
}

func (s *stubEngineClient) RemoveBasketItem(ctx context.Context, storeID, sessionToken, lineID string) ([]domain.BasketLine, error) {
	if s.removeItemFn != nil {
		return s.removeItemFn(ctx, storeID, sessionToken, lineID)
	}
	return nil, nil
}

func (s *stubEngineClient) RefreshBasketStock(ctx context.Context, storeID string, lines []domain.BasketLine) ([]domain.BasketLine, error) {
	return lines, nil
}

func (s *stubEngineClient) CreateOrder(ctx context.Context, storeID, sessionToken string, lines []domain.BasketLine, opts domain.CreateOrderOptions, languageID int) (*domain.EphemeralOrder, error) {
	if s.createOrderFn != nil {
		return s.createOrderFn(ctx, storeID, sessionToken, lines, opts, languageID)
	}
	return &domain.EphemeralOrder{ID: "order-1", Lines: lines}, nil
}

func (s *stubEngineClient) ShippingQuotes(ctx context.Context, storeID string, order *domain.EphemeralOrder) ([]domain.ShippingQuote, error) {
	return nil, nil
}

func (s *stubEngineClient) RecomputeTotals(ctx context.Context, storeID string, order *domain.EphemeralOrder) error {
	order.Totals = domain.OrderTotals{Subtotal: 20, Tax: 2, Total: 22}
	return nil
}

func (s *stubEngineClient) CustomerForID(ctx context.Context, customerID int) (*domain.AdminCustomer, error) {
	return &domain.AdminCustomer{ID: customerID, GroupID: 1}, nil
}

var _ engine.Client = (*stubEngineClient)(nil)
