package console

import (
	"context"

	"github.com/mealqr/console/internal/console/models"
	"github.com/mealqr/console/internal/console/resource"
)

// The fetch functions below are the per-kind configuration of the generic
// controller: each maps a canonical query onto its endpoint's parameters
// and the response onto a resource page. Pagination feedback flows back to
// the owning coordinator so page clamping always uses the latest counts.

func pageCountOrOne(pages int) int {
	if pages < 1 {
		return 1
	}
	return pages
}

func (a *App) fetchStats(ctx context.Context, _ resource.Query) (resource.Page[models.Stats], error) {
	stats, err := a.Client.DashboardStats(ctx)
	if err != nil {
		return resource.Page[models.Stats]{}, err
	}
	return resource.SinglePage(stats), nil
}

func (a *App) fetchUsers(ctx context.Context, q resource.Query) (resource.Page[models.User], error) {
	users, pg, err := a.Client.Users(ctx, q.Page, q.Limit, q.Filter("search"), q.Filter("role"))
	if err != nil {
		return resource.Page[models.User]{}, err
	}
	pages := pageCountOrOne(pg.Pages)
	a.UsersFilter.NotePageCount(pages)
	return resource.Page[models.User]{
		Items:       users,
		TotalCount:  pg.Total,
		PageCount:   pages,
		CurrentPage: pg.Page,
	}, nil
}

func (a *App) fetchQRLogs(ctx context.Context, q resource.Query) (resource.Page[models.QRLog], error) {
	logs, pg, err := a.Client.QRLogs(ctx, q.Page, q.Limit, q.Filter("date"), q.Filter("status"))
	if err != nil {
		return resource.Page[models.QRLog]{}, err
	}
	pages := pageCountOrOne(pg.Pages)
	a.QRLogsFilter.NotePageCount(pages)
	return resource.Page[models.QRLog]{
		Items:       logs,
		TotalCount:  pg.Total,
		PageCount:   pages,
		CurrentPage: pg.Page,
	}, nil
}

func (a *App) fetchValidation(ctx context.Context, q resource.Query) (resource.Page[models.ValidationRecord], error) {
	// The history endpoint is limit+date only, no server-side paging.
	records, err := a.Client.ValidationHistory(ctx, q.Limit, q.Filter("date"))
	if err != nil {
		return resource.Page[models.ValidationRecord]{}, err
	}
	return resource.Page[models.ValidationRecord]{
		Items:       records,
		TotalCount:  len(records),
		PageCount:   1,
		CurrentPage: 1,
	}, nil
}

func (a *App) fetchAudit(ctx context.Context, q resource.Query) (resource.Page[models.AuditLog], error) {
	logs, pg, err := a.Client.AuditLogs(ctx, q.Page, q.Limit, q.Filter("action"), q.Filter("date"))
	if err != nil {
		return resource.Page[models.AuditLog]{}, err
	}
	pages := pageCountOrOne(pg.Pages)
	a.AuditFilter.NotePageCount(pages)
	return resource.Page[models.AuditLog]{
		Items:       logs,
		TotalCount:  pg.Total,
		PageCount:   pages,
		CurrentPage: pg.Page,
	}, nil
}

func (a *App) fetchSettings(ctx context.Context, _ resource.Query) (resource.Page[models.Settings], error) {
	settings, err := a.Client.Settings(ctx)
	if err != nil {
		return resource.Page[models.Settings]{}, err
	}
	return resource.SinglePage(settings), nil
}
