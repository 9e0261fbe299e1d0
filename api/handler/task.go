package handler

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/pkg/httpcontext"
	taskUC "github.com/Pilar-d/pendientes/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc  *taskUC.UseCase
	now func() time.Time
}

func NewTaskHandler(uc *taskUC.UseCase, deps Deps) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(deps),
		uc:          uc,
		now:         time.Now,
	}
}

// Index lists the caller's tasks filtered by q and ordered by orden.
func (h *TaskHandler) Index(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	query := string(ctx.QueryArgs().Peek("q"))
	sort := domain.ParseSortOrder(string(ctx.QueryArgs().Peek("orden")))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	p := h.page(ctx, "Mis tareas")
	tasks, err := h.uc.List(stdCtx, identity.AccountID, query, sort)
	if err != nil {
		h.logFailure(stdCtx, err)
		p.Notices = append(p.Notices, Notice{Kind: NoticeError, Text: noticeFor(err)})
		status, _ := mapError(err)
		h.render(ctx, status, "index", indexPage{page: p, Query: query, Sorts: sortOptions(sort)})
		return
	}

	today := h.now()
	rows := make([]taskRow, 0, len(tasks))
	for i := range tasks {
		rows = append(rows, taskRow{Task: tasks[i], Overdue: tasks[i].IsOverdue(today)})
	}

	h.render(ctx, fasthttp.StatusOK, "index", indexPage{
		page:  p,
		Query: query,
		Sorts: sortOptions(sort),
		Tasks: rows,
		Today: today.Format(domain.DateLayout),
	})
}

func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Create(stdCtx, identity.AccountID, taskUC.Input{
		Title:       string(ctx.PostArgs().Peek("titulo")),
		Description: string(ctx.PostArgs().Peek("descripcion")),
		DueDate:     string(ctx.PostArgs().Peek("fecha_limite")),
		Category:    string(ctx.PostArgs().Peek("categoria")),
	})
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}

	h.log(stdCtx).Info("task created", zap.Int64("task_id", task.ID), zap.Int64("account_id", identity.AccountID))
	h.notify(ctx, NoticeSuccess, "Tarea creada.")
	h.redirect(ctx, "/")
}

func (h *TaskHandler) EditForm(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}
	task, err := h.uc.Get(stdCtx, identity.AccountID, id)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}

	h.render(ctx, fasthttp.StatusOK, "edit", editPage{page: h.page(ctx, "Editar tarea"), Task: task})
}

// Edit overwrites the fields present in the submitted form.
func (h *TaskHandler) Edit(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}

	args := ctx.PostArgs()
	patch := taskUC.Patch{
		Title:       formField(args, "titulo"),
		Description: formField(args, "descripcion"),
		DueDate:     formField(args, "fecha_limite"),
		Category:    formField(args, "categoria"),
	}

	if _, err := h.uc.Update(stdCtx, identity.AccountID, id, patch); err != nil {
		switch domain.CodeOf(err) {
		case domain.ErrCodeInvalid, domain.ErrCodeInvalidDate:
			h.fail(ctx, stdCtx, err, "/editar/"+strconv.FormatInt(id, 10))
		default:
			h.fail(ctx, stdCtx, err, "/")
		}
		return
	}

	h.notify(ctx, NoticeSuccess, "Tarea actualizada.")
	h.redirect(ctx, "/")
}

func (h *TaskHandler) Toggle(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}
	task, err := h.uc.ToggleCompletion(stdCtx, identity.AccountID, id)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}

	if task.Completed {
		h.notify(ctx, NoticeSuccess, "Tarea completada.")
	} else {
		h.notify(ctx, NoticeInfo, "Tarea marcada como pendiente.")
	}
	h.redirect(ctx, "/")
}

func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := pathID(ctx)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}
	if err := h.uc.Delete(stdCtx, identity.AccountID, id); err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}

	h.log(stdCtx).Info("task deleted", zap.Int64("task_id", id), zap.Int64("account_id", identity.AccountID))
	h.notify(ctx, NoticeSuccess, "Tarea eliminada.")
	h.redirect(ctx, "/")
}

// identity returns the authenticated caller or redirects to the login page.
func (h *TaskHandler) identity(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity, ok := httpcontext.IdentityFromRequest(ctx)
	if !ok {
		ctx.Redirect("/login", fasthttp.StatusFound)
	}
	return identity, ok
}

func formField(args *fasthttp.Args, name string) *string {
	if !args.Has(name) {
		return nil
	}
	value := string(args.Peek(name))
	return &value
}
