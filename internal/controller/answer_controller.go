package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lms_testing_backend/internal/model"
	"lms_testing_backend/internal/service"
	"lms_testing_backend/internal/util"
)

type AnswerController struct {
	AnswerService *service.AnswerService
}

func NewAnswerController(answerService *service.AnswerService) *AnswerController {
	return &AnswerController{AnswerService: answerService}
}

// @Summary Submit or replace an answer
// @Tags answers
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param body body object true "passingId, questionId, answerId | answerIds | text (+ file for free answers)"
// @Success 200 {object} util.Response
// @Router /api/answers [post]
func (c *AnswerController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var body struct {
		PassingID  uint   `json:"passingId" form:"passingId" binding:"required"`
		QuestionID uint   `json:"questionId" form:"questionId" binding:"required"`
		AnswerID   *uint  `json:"answerId" form:"answerId"`
		AnswerIDs  []uint `json:"answerIds" form:"answerIds"`
		Text       string `json:"text" form:"text"`
	}
	if err := ctx.ShouldBind(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	in := service.SubmitAnswerInput{
		PassingID:  body.PassingID,
		QuestionID: body.QuestionID,
		AnswerID:   body.AnswerID,
		AnswerIDs:  body.AnswerIDs,
		Text:       body.Text,
	}
	if file, err := ctx.FormFile("file"); err == nil {
		in.File = file
	}

	answer, err := c.AnswerService.SubmitAnswer(ctx.Request.Context(), claims.UserID, in)
	if err != nil {
		c.writeAnswerError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// @Summary Answers of an attempt
// @Tags answers
// @Produce json
// @Security BearerAuth
// @Param id path int true "passing ID"
// @Success 200 {object} util.Response
// @Router /api/passings/{id}/answers [get]
func (c *AnswerController) ListForPassing(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	passingID := util.MustParseUint(ctx.Param("id"))
	if passingID == 0 {
		util.BadRequest(ctx, "invalid passing id")
		return
	}

	moderator := claims.Role == model.Teacher || claims.Role == model.Admin
	answers, err := c.AnswerService.ListForPassing(claims.UserID, passingID, moderator)
	if err != nil {
		c.writeAnswerError(ctx, err)
		return
	}
	util.Success(ctx, answers)
}

// @Summary Free answers awaiting manual grading
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param taskId query int false "filter by task"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/moderation/answers [get]
func (c *AnswerController) ListUngraded(ctx *gin.Context) {
	taskID := util.MustParseUint(ctx.DefaultQuery("taskId", "0"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	answers, total, err := c.AnswerService.ListUngraded(taskID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: answers, Total: total, Page: page, Limit: limit})
}

// @Summary Grade a free answer
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "answer ID"
// @Param body body object true "points"
// @Success 200 {object} util.Response
// @Router /api/moderation/answers/{id}/grade [post]
func (c *AnswerController) Grade(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	answerID := util.MustParseUint(ctx.Param("id"))
	if answerID == 0 {
		util.BadRequest(ctx, "invalid answer id")
		return
	}
	var body struct {
		Points *int `json:"points" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.GradeAnswer(claims.UserID, answerID, *body.Points)
	if err != nil {
		c.writeAnswerError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

func (c *AnswerController) writeAnswerError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrPassingNotFound), errors.Is(err, util.ErrAnswerNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPassingNotOwn), errors.Is(err, util.ErrAnswerNotOwn):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrQuestionNotInTask),
		errors.Is(err, util.ErrOptionNotInQuestion),
		errors.Is(err, util.ErrPassingFinished),
		errors.Is(err, util.ErrNotFreeAnswer),
		errors.Is(err, util.ErrInvalidPoints):
		util.ErrorWithCode(ctx, http.StatusBadRequest, util.CodeInvalidData, err.Error(), nil)
	default:
		util.LogInternalError(ctx, err)
	}
}
