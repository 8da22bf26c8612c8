package handler

import (
	"time"

	"github.com/foodcourt/api/internal/app"
	"github.com/foodcourt/api/internal/model"
)

type lineItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	OrderNumber   string             `json:"order_number"`
	StudentID     string             `json:"student_id"`
	StudentName   string             `json:"student_name"`
	StoreID       string             `json:"store_id"`
	Items         []lineItemResponse `json:"items"`
	TotalAmount   string             `json:"total_amount"`
	Token         string             `json:"token"`
	PaymentStatus string             `json:"payment_status"`
	OrderStatus   string             `json:"order_status"`
	OrderDate     time.Time          `json:"order_date"`
}

type menuItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Calories    int    `json:"calories"`
	Carbs       string `json:"carbs"`
	Protein     string `json:"protein"`
	Fat         string `json:"fat"`
	Available   bool   `json:"available"`
}

type cartResponse struct {
	StoreID   string             `json:"store_id"`
	Items     []lineItemResponse `json:"items"`
	Total     string             `json:"total"`
	ItemCount int                `json:"item_count"`
	Order     *orderResponse     `json:"order,omitempty"`
	Warning   string             `json:"warning,omitempty"`
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	StudentID string `json:"student_id"`
}

func toLineItems(items []model.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(items))
	for i, it := range items {
		out[i] = lineItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price.StringFixed(2),
			Quantity: it.Quantity,
			Subtotal: it.Subtotal().StringFixed(2),
		}
	}
	return out
}

func toOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		StudentID:     o.StudentID,
		StudentName:   o.StudentName,
		StoreID:       o.StoreID,
		Items:         toLineItems(o.Items),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Token:         o.Token,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		OrderDate:     o.OrderDate,
	}
}

func toOrderResponses(orders []model.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

func toMenuItemResponse(it model.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Category:    it.Category,
		Price:       it.Price.StringFixed(2),
		Calories:    it.Calories,
		Carbs:       it.Carbs.StringFixed(1),
		Protein:     it.Protein.StringFixed(1),
		Fat:         it.Fat.StringFixed(1),
		Available:   it.Available,
	}
}

func toMenuItemResponses(items []model.MenuItem) []menuItemResponse {
	out := make([]menuItemResponse, len(items))
	for i, it := range items {
		out[i] = toMenuItemResponse(it)
	}
	return out
}

func toCartResponse(res app.Result) cartResponse {
	resp := cartResponse{
		StoreID:   res.StoreID,
		Items:     toLineItems(res.Items),
		Total:     res.Total.StringFixed(2),
		ItemCount: res.ItemCount,
		Warning:   res.Warning,
	}
	if res.Order != nil {
		o := toOrderResponse(*res.Order)
		resp.Order = &o
	}
	return resp
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		StudentID: u.StudentID,
	}
}
