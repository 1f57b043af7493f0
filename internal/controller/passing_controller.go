package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/service"
	"lms_testing_backend/internal/util"
)

type PassingController struct {
	PassingService *service.PassingService
}

func NewPassingController(passingService *service.PassingService) *PassingController {
	return &PassingController{PassingService: passingService}
}

// PassingView is a passing enriched with the derived fields clients
// render: the human-readable score summary and the remaining retake
// cooldown of its task.
type PassingView struct {
	*model.Passing
	StatusText    string  `json:"statusText"`
	ResponseRate  string  `json:"responseRate"`
	RetakeSeconds float64 `json:"retakeSeconds"`
}

func (c *PassingController) view(p *model.Passing) (*PassingView, error) {
	rate, err := c.PassingService.ResponseRate(p)
	if err != nil {
		return nil, err
	}
	wait, err := c.PassingService.RetakeWait(p.TaskID, p.UserID)
	if err != nil {
		return nil, err
	}
	return &PassingView{
		Passing:       p,
		StatusText:    model.StatusText(p.SuccessPassed),
		ResponseRate:  rate,
		RetakeSeconds: wait,
	}, nil
}

// @Summary Start a test attempt
// @Tags passings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "taskId, isTrial"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response "admission refused"
// @Router /api/passings [post]
func (c *PassingController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var body struct {
		TaskID  uint `json:"taskId" binding:"required"`
		IsTrial bool `json:"isTrial"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	passing, err := c.PassingService.CreatePassing(claims.UserID, body.TaskID, body.IsTrial)
	if err != nil {
		var admission *util.AdmissionError
		if errors.As(err, &admission) {
			util.ErrorWithCode(ctx, http.StatusBadRequest, admission.Code, admission.Message, admission)
			return
		}
		if errors.Is(err, util.ErrTaskNotFound) || errors.Is(err, util.ErrTaskNotActive) {
			util.ErrorWithCode(ctx, http.StatusBadRequest, util.CodeInvalidData, err.Error(), nil)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, passing)
}

// @Summary List own attempts
// @Tags passings
// @Produce json
// @Security BearerAuth
// @Param taskId query int false "filter by task"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/passings [get]
func (c *PassingController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	taskID := util.MustParseUint(ctx.DefaultQuery("taskId", "0"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	passings, total, err := c.PassingService.ListPassings(claims.UserID, taskID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	views := make([]*PassingView, 0, len(passings))
	for i := range passings {
		v, err := c.view(&passings[i])
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		views = append(views, v)
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}

// @Summary Get one attempt
// @Tags passings
// @Produce json
// @Security BearerAuth
// @Param id path int true "passing ID"
// @Success 200 {object} util.Response
// @Router /api/passings/{id} [get]
func (c *PassingController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	passing, ok := c.ownPassing(ctx, claims.UserID)
	if !ok {
		return
	}
	v, err := c.view(passing)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary Finish an attempt and have it scored
// @Tags passings
// @Produce json
// @Security BearerAuth
// @Param id path int true "passing ID"
// @Success 200 {object} util.Response
// @Router /api/passings/{id}/finish [post]
func (c *PassingController) Finish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	passing, ok := c.ownPassing(ctx, claims.UserID)
	if !ok {
		return
	}

	if _, err := c.PassingService.Evaluate(passing.ID, true); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	updated, err := c.PassingService.GetPassing(passing.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	v, err := c.view(updated)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary Allow or revoke an interval-free retake of an attempt
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "passing ID"
// @Param body body object true "outOfTime"
// @Success 200 {object} util.Response
// @Router /api/moderation/passings/{id}/out-of-time [post]
func (c *PassingController) SetOutOfTime(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid passing id")
		return
	}
	var body struct {
		OutOfTime *bool `json:"outOfTime" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	passing, err := c.PassingService.SetOutOfTime(id, *body.OutOfTime)
	if err != nil {
		if errors.Is(err, util.ErrPassingNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, passing)
}

// @Summary Server clock for client countdowns
// @Tags passings
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/server-time [get]
func (c *PassingController) ServerTime(ctx *gin.Context) {
	util.Success(ctx, gin.H{"now": time.Now().UTC().Format(time.RFC3339Nano)})
}

func (c *PassingController) ownPassing(ctx *gin.Context, userID uint) (*model.Passing, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid passing id")
		return nil, false
	}
	passing, err := c.PassingService.GetPassing(id)
	if err != nil {
		if errors.Is(err, util.ErrPassingNotFound) {
			util.NotFound(ctx)
			return nil, false
		}
		util.LogInternalError(ctx, err)
		return nil, false
	}
	if passing.UserID != userID {
		util.Forbidden(ctx)
		return nil, false
	}
	return passing, true
}
