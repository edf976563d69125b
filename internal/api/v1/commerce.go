package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/commerce"
	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/notice"
)

type CheckoutInput struct {
	Locale
	Body struct {
		CustomerID    *uuid.UUID            `json:"customer_id,omitempty" doc:"Customer earning loyalty points"`
		SellerID      *uuid.UUID            `json:"seller_id,omitempty" doc:"Seller earning commission; defaults to the caller"`
		Items         []domain.CheckoutItem `json:"items" minItems:"1" doc:"Products and quantities"`
		Discount      float64               `json:"discount,omitempty" minimum:"0" doc:"Discount off the item total"`
		PaymentMethod string                `json:"payment_method,omitempty" maxLength:"50" doc:"Defaults to dinheiro"`
	}
}

type CheckoutOutput struct {
	Body struct {
		Order   *domain.Order `json:"order"`
		Message string        `json:"message"`
	}
}

type CreateChargeInput struct {
	Locale
	Body struct {
		CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
		Description string     `json:"description,omitempty" maxLength:"500"`
		Amount      float64    `json:"amount" doc:"Amount, greater than zero"`
		DueDate     string     `json:"due_date" doc:"YYYY-MM-DD"`
	}
}

type ConnectGatewayInput struct {
	Locale
	Body struct {
		Provider    string            `json:"provider" doc:"asaas, mercadopago, pagseguro or stripe"`
		Credentials map[string]string `json:"credentials" doc:"Provider API credentials; stored encrypted"`
	}
}

type GatewayOutput struct {
	Body struct {
		Gateway *domain.PaymentGateway `json:"gateway"`
		Message string                 `json:"message"`
	}
}

type ListGatewaysInput struct {
	Locale
}

type ListGatewaysOutput struct {
	Body []*domain.PaymentGateway
}

// RegisterCommerceRoutes registers point-of-sale, billing and gateway routes.
func RegisterCommerceRoutes(api huma.API, svc CommerceService) {
	huma.Register(api, huma.Operation{
		OperationID:   "pdv-checkout",
		Method:        http.MethodPost,
		Path:          "/company/pdv/checkout",
		Summary:       "Complete a point-of-sale sale",
		Tags:          []string{"Commerce"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		order, err := svc.Checkout(ctx, scope, commerce.CheckoutInput{
			CustomerID:    input.Body.CustomerID,
			SellerID:      input.Body.SellerID,
			Items:         input.Body.Items,
			Discount:      input.Body.Discount,
			PaymentMethod: input.Body.PaymentMethod,
		})
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}

		out := &CheckoutOutput{}
		out.Body.Order = order
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.CheckoutDone)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-charge",
		Method:        http.MethodPost,
		Path:          "/company/billing/charges",
		Summary:       "Create a pending charge",
		Tags:          []string{"Commerce"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateChargeInput) (*RecordMutationOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		rec, err := svc.CreateCharge(ctx, scope, commerce.ChargeInput{
			CustomerID:  input.Body.CustomerID,
			Description: input.Body.Description,
			Amount:      input.Body.Amount,
			DueDate:     input.Body.DueDate,
		})
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}

		out := &RecordMutationOutput{}
		out.Body.Data = rec
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.RecordCreated)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "connect-gateway",
		Method:      http.MethodPost,
		Path:        "/company/gateways/connect",
		Summary:     "Store payment gateway credentials",
		Tags:        []string{"Commerce"},
	}, func(ctx context.Context, input *ConnectGatewayInput) (*GatewayOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireOwner(ctx, input.Locale); err != nil {
			return nil, err
		}

		gw, err := svc.Connect(ctx, scope, input.Body.Provider, input.Body.Credentials)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}

		out := &GatewayOutput{}
		out.Body.Gateway = gw
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.GatewayConnected, gw.Provider)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-gateways",
		Method:      http.MethodGet,
		Path:        "/company/gateways",
		Summary:     "List connected payment gateways",
		Tags:        []string{"Commerce"},
	}, func(ctx context.Context, input *ListGatewaysInput) (*ListGatewaysOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		list, err := svc.Gateways(ctx, scope.CompanyID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		if list == nil {
			list = []*domain.PaymentGateway{}
		}
		return &ListGatewaysOutput{Body: list}, nil
	})
}
