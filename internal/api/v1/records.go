package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/evolutech/platform/internal/domain"
	"github.com/evolutech/platform/internal/notice"
	"github.com/evolutech/platform/internal/query"
	"github.com/evolutech/platform/internal/records"
)

type ListRecordsInput struct {
	Locale
	Table    string `path:"table" doc:"Domain table, e.g. customers"`
	Page     int    `query:"page" minimum:"1" default:"1" doc:"1-based page number"`
	PageSize int    `query:"pageSize" minimum:"1" maximum:"100" default:"10" doc:"Rows per page"`
	Search   string `query:"search" maxLength:"200" doc:"Substring matched against the table's search fields"`
	Status   string `query:"status" maxLength:"50" doc:"Exact status"`
	Active   string `query:"active" enum:"true,false" doc:"Filter on is_active"`
	DateFrom string `query:"dateFrom" doc:"Created on or after (YYYY-MM-DD)"`
	DateTo   string `query:"dateTo" doc:"Created on or before (YYYY-MM-DD), inclusive"`
	OrderBy  string `query:"orderBy" maxLength:"63" doc:"Column to order by"`
	Order    string `query:"order" enum:"asc,desc" doc:"Sort direction, newest first when omitted"`
}

// ListQuery converts the query string into a query.ListQuery.
func (in *ListRecordsInput) ListQuery() (query.ListQuery, error) {
	q := query.ListQuery{
		Pagination: query.Pagination{Page: in.Page, PageSize: in.PageSize},
		Search:     in.Search,
		Status:     in.Status,
		OrderBy:    in.OrderBy,
		Ascending:  in.Order == "asc",
	}

	var err error
	if q.Active, err = query.ParseActive(in.Active); err != nil {
		return q, domain.Invalid("active", err.Error())
	}
	if q.DateFrom, err = query.ParseDay(in.DateFrom, false); err != nil {
		return q, domain.Invalid("dateFrom", err.Error())
	}
	if q.DateTo, err = query.ParseDay(in.DateTo, true); err != nil {
		return q, domain.Invalid("dateTo", err.Error())
	}
	return q, nil
}

type ListRecordsOutput struct {
	Body *records.Page
}

type RecordInput struct {
	Locale
	Table string    `path:"table" doc:"Domain table"`
	ID    uuid.UUID `path:"id" doc:"Record ID"`
}

type RecordOutput struct {
	Body domain.Record
}

type CreateRecordInput struct {
	Locale
	Table string `path:"table" doc:"Domain table"`
	Body  map[string]any
}

type UpdateRecordInput struct {
	Locale
	Table string    `path:"table" doc:"Domain table"`
	ID    uuid.UUID `path:"id" doc:"Record ID"`
	Body  map[string]any
}

type RecordMutationOutput struct {
	Body struct {
		Data    domain.Record `json:"data"`
		Message string        `json:"message"`
	}
}

type DeleteRecordOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// RegisterRecordRoutes registers the generic CRUD surface over the domain
// tables. Every call is scoped to the caller's company.
func RegisterRecordRoutes(api huma.API, svc RecordsService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-records",
		Method:      http.MethodGet,
		Path:        "/company/{table}",
		Summary:     "List records of a table",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *ListRecordsInput) (*ListRecordsOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		q, err := input.ListQuery()
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}

		page, err := svc.List(ctx, scope, input.Table, q)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		return &ListRecordsOutput{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        "/company/{table}/{id}",
		Summary:     "Get a record by ID",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *RecordInput) (*RecordOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		rec, err := svc.Get(ctx, scope, input.Table, input.ID)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordLoadFailed, err)
		}
		return &RecordOutput{Body: rec}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-record",
		Method:        http.MethodPost,
		Path:          "/company/{table}",
		Summary:       "Create a record",
		Tags:          []string{"Records"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateRecordInput) (*RecordMutationOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		rec, err := svc.Create(ctx, scope, input.Table, input.Body)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordCreateFailed, err)
		}

		out := &RecordMutationOutput{}
		out.Body.Data = rec
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.RecordCreated)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-record",
		Method:      http.MethodPut,
		Path:        "/company/{table}/{id}",
		Summary:     "Update a record",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *UpdateRecordInput) (*RecordMutationOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		rec, err := svc.Update(ctx, scope, input.Table, input.ID, input.Body)
		if err != nil {
			return nil, problem(input.Locale, notice.RecordUpdateFailed, err)
		}

		out := &RecordMutationOutput{}
		out.Body.Data = rec
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.RecordUpdated)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-record",
		Method:      http.MethodDelete,
		Path:        "/company/{table}/{id}",
		Summary:     "Delete a record",
		Description: "Referenced rows are not guarded: the database's foreign key error is returned as 409 with its own message.",
		Tags:        []string{"Records"},
	}, func(ctx context.Context, input *RecordInput) (*DeleteRecordOutput, error) {
		scope, err := companyScope(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.Remove(ctx, scope, input.Table, input.ID); err != nil {
			return nil, problem(input.Locale, notice.RecordDeleteFailed, err)
		}

		out := &DeleteRecordOutput{}
		out.Body.Message = notice.Localize(input.AcceptLanguage, notice.RecordDeleted)
		return out, nil
	})
}
