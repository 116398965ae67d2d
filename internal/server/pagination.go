package server

import (
	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/server/data"
)

const defaultPerPage = 100

func paginationFromRequest(r api.PaginationRequest) data.Pagination {
	page, perPage := r.Page, r.PerPage
	if perPage == 0 {
		perPage = defaultPerPage
	}
	if page == 0 {
		page = 1
	}
	return data.Pagination{Page: page, Limit: perPage}
}

func paginationToResponse(p data.Pagination) *api.Pagination {
	return &api.Pagination{
		Page:       p.Page,
		PerPage:    p.Limit,
		TotalCount: p.TotalCount,
	}
}
