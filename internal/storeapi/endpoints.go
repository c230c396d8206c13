package storeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bluebuff/storefront/internal/entity"
)

type imageRef struct {
	Image string `json:"image"`
}

type tagDTO struct {
	TagName       string `json:"tagName"`
	TagColor      string `json:"tagColor"`
	TagBackground string `json:"tagBackground"`
}

type gameDTO struct {
	GameName    string    `json:"gameName"`
	GameSlug    string    `json:"gameSlug"`
	GameFrom    string    `json:"gameFrom"`
	GameImageID *imageRef `json:"gameImageId"`
	TagID       *tagDTO   `json:"tagId"`
}

func (g gameDTO) toEntity() entity.Game {
	game := entity.Game{GameSlug: g.GameSlug, GameName: g.GameName, GameFrom: g.GameFrom}
	if g.GameImageID != nil {
		game.GameImage = g.GameImageID.Image
	}
	if g.TagID != nil {
		game.Tag = &entity.GameTag{Name: g.TagID.TagName, Color: g.TagID.TagColor, Background: g.TagID.TagBackground}
	}
	return game
}

type itemDTO struct {
	ItemSlug     string    `json:"itemSlug"`
	ItemName     string    `json:"itemName"`
	SellingPrice float64   `json:"sellingPrice"`
	DummyPrice   *float64  `json:"dummyPrice"`
	ItemImageID  *imageRef `json:"itemImageId"`
	Image        string    `json:"image"`
}

func (i itemDTO) toEntity() entity.CatalogItem {
	item := entity.CatalogItem{
		ItemSlug:     i.ItemSlug,
		ItemName:     i.ItemName,
		SellingPrice: i.SellingPrice,
		DummyPrice:   i.DummyPrice,
		ItemImage:    i.Image,
	}
	if i.ItemImageID != nil && i.ItemImageID.Image != "" {
		item.ItemImage = i.ItemImageID.Image
	}
	return item
}

type userDTO struct {
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Wallet              float64    `json:"wallet"`
	Order               int        `json:"order"`
	UserType            string     `json:"userType"`
	MembershipExpiresAt *time.Time `json:"membershipExpiresAt"`
}

type meResponse struct {
	User userDTO `json:"user"`
	// Older deployments put these next to user.
	UserType            string     `json:"userType"`
	MembershipExpiresAt *time.Time `json:"membershipExpiresAt"`
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*entity.UserProfile, error) {
	var resp meResponse
	if err := c.do(ctx, "auth/me", http.MethodGet, "/api/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	u := resp.User
	profile := &entity.UserProfile{
		Name:                u.Name,
		Email:               u.Email,
		Phone:               u.Phone,
		Wallet:              u.Wallet,
		OrderCount:          u.Order,
		UserType:            u.UserType,
		MembershipExpiresAt: u.MembershipExpiresAt,
	}
	if profile.UserType == "" {
		profile.UserType = resp.UserType
	}
	if profile.MembershipExpiresAt == nil {
		profile.MembershipExpiresAt = resp.MembershipExpiresAt
	}
	return profile, nil
}

// Listing is the games page payload.
type Listing struct {
	Categories []entity.Category
	Games      []entity.Game
}

type gamesResponse struct {
	Data struct {
		Category []struct {
			CategoryTitle string    `json:"categoryTitle"`
			GameID        []gameDTO `json:"gameId"`
		} `json:"category"`
		Games []gameDTO `json:"games"`
	} `json:"data"`
}

// Games returns the categorised game listing.
func (c *Client) Games(ctx context.Context) (*Listing, error) {
	var resp gamesResponse
	if err := c.do(ctx, "games", http.MethodGet, "/api/games", "", nil, &resp); err != nil {
		return nil, err
	}
	listing := &Listing{}
	for _, cat := range resp.Data.Category {
		category := entity.Category{Title: cat.CategoryTitle}
		for _, g := range cat.GameID {
			category.Games = append(category.Games, g.toEntity())
		}
		listing.Categories = append(listing.Categories, category)
	}
	for _, g := range resp.Data.Games {
		listing.Games = append(listing.Games, g.toEntity())
	}
	return listing, nil
}

type gameResponse struct {
	Data struct {
		gameDTO
		ItemID []itemDTO `json:"itemId"`
	} `json:"data"`
}

// Game returns a game and its packages. The token is optional; member
// tiers may see different prices.
func (c *Client) Game(ctx context.Context, slug, token string) (*entity.GameDetail, error) {
	var resp gameResponse
	if err := c.do(ctx, "games/"+slug, http.MethodGet, "/api/games/"+url.PathEscape(slug), token, nil, &resp); err != nil {
		return nil, err
	}
	detail := &entity.GameDetail{Game: resp.Data.gameDTO.toEntity()}
	if detail.GameSlug == "" {
		detail.GameSlug = slug
	}
	detail.Items = make([]entity.CatalogItem, 0, len(resp.Data.ItemID))
	for _, it := range resp.Data.ItemID {
		detail.Items = append(detail.Items, it.toEntity())
	}
	return detail, nil
}

type userOrdersRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search"`
}

type userOrdersResponse struct {
	Orders []entity.Order `json:"orders"`
}

// UserOrders returns one page of the token owner's orders.
func (c *Client) UserOrders(ctx context.Context, token string, page, limit int, search string) ([]entity.Order, error) {
	var resp userOrdersResponse
	body := userOrdersRequest{Page: page, Limit: limit, Search: search}
	if err := c.do(ctx, "order/user", http.MethodPost, "/api/order/user", token, body, &resp); err != nil {
		return nil, err
	}
	if resp.Orders == nil {
		return []entity.Order{}, nil
	}
	return resp.Orders, nil
}

type bannersResponse struct {
	Data []struct {
		BannerTitle       string `json:"bannerTitle"`
		BannerDescription string `json:"bannerDescription"`
		BannerImage       string `json:"bannerImage"`
	} `json:"data"`
}

// Banners returns the home page carousel.
func (c *Client) Banners(ctx context.Context) ([]entity.Banner, error) {
	var resp bannersResponse
	if err := c.do(ctx, "game-banners", http.MethodGet, "/api/game-banners", "", nil, &resp); err != nil {
		return nil, err
	}
	banners := make([]entity.Banner, 0, len(resp.Data))
	for _, b := range resp.Data {
		banners = append(banners, entity.Banner{Title: b.BannerTitle, Description: b.BannerDescription, Image: b.BannerImage})
	}
	return banners, nil
}

type gatewayOrderResponse struct {
	Success    *bool  `json:"success"`
	Message    string `json:"message"`
	OrderID    string `json:"orderId"`
	PaymentURL string `json:"paymentUrl"`
}

// CreateGatewayOrder issues exactly one order creation request. It does not
// retry and gives no exactly-once guarantee.
func (c *Client) CreateGatewayOrder(ctx context.Context, req entity.OrderRequest) (*entity.PendingOrder, error) {
	req.Currency = entity.Currency
	var resp gatewayOrderResponse
	if err := c.do(ctx, "order/create-gateway-order", http.MethodPost, "/api/order/create-gateway-order", "", req, &resp); err != nil {
		return nil, err
	}
	// Only an explicit success:true counts as a created order.
	if resp.Success == nil || !*resp.Success {
		return nil, &APIError{Op: "order/create-gateway-order", Status: http.StatusOK, Message: resp.Message}
	}
	if resp.OrderID == "" || resp.PaymentURL == "" {
		return nil, fmt.Errorf("%w: order/create-gateway-order: response without order id or payment url", ErrTransport)
	}
	return &entity.PendingOrder{OrderID: resp.OrderID, PaymentURL: resp.PaymentURL}, nil
}
