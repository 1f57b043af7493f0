package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lms_testing_backend/internal/service"
	"lms_testing_backend/internal/util"
)

type TaskController struct {
	TaskService *service.TaskService
}

func NewTaskController(taskService *service.TaskService) *TaskController {
	return &TaskController{TaskService: taskService}
}

// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/tasks [get]
func (c *TaskController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	tasks, total, err := c.TaskService.ListTasks(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: tasks, Total: total, Page: page, Limit: limit})
}

// @Summary Get a task with its questions
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "task ID"
// @Success 200 {object} util.Response
// @Router /api/tasks/{id} [get]
func (c *TaskController) Get(ctx *gin.Context) {
	task, err := c.TaskService.GetTask(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, task)
}

// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TaskInput true "task"
// @Success 201 {object} util.Response
// @Router /api/teacher/tasks [post]
func (c *TaskController) Create(ctx *gin.Context) {
	var in service.TaskInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	task, err := c.TaskService.CreateTask(in)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Created(ctx, task)
}

// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "task ID"
// @Param body body service.TaskInput true "task"
// @Success 200 {object} util.Response
// @Router /api/teacher/tasks/{id} [put]
func (c *TaskController) Update(ctx *gin.Context) {
	var in service.TaskInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	task, err := c.TaskService.UpdateTask(util.MustParseUint(ctx.Param("id")), in)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, task)
}

// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "task ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/tasks/{id} [delete]
func (c *TaskController) Delete(ctx *gin.Context) {
	if err := c.TaskService.DeleteTask(util.MustParseUint(ctx.Param("id"))); err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Create a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionInput true "question"
// @Success 201 {object} util.Response
// @Router /api/teacher/questions [post]
func (c *TaskController) CreateQuestion(ctx *gin.Context) {
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.TaskService.CreateQuestion(in)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary Update a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "question ID"
// @Param body body service.QuestionInput true "question"
// @Success 200 {object} util.Response
// @Router /api/teacher/questions/{id} [put]
func (c *TaskController) UpdateQuestion(ctx *gin.Context) {
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.TaskService.UpdateQuestion(util.MustParseUint(ctx.Param("id")), in)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary Delete a question
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "question ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/questions/{id} [delete]
func (c *TaskController) DeleteQuestion(ctx *gin.Context) {
	if err := c.TaskService.DeleteQuestion(util.MustParseUint(ctx.Param("id"))); err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Attach a question to a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "task ID"
// @Param questionId path int true "question ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/tasks/{id}/questions/{questionId} [post]
func (c *TaskController) AttachQuestion(ctx *gin.Context) {
	taskID := util.MustParseUint(ctx.Param("id"))
	questionID := util.MustParseUint(ctx.Param("questionId"))
	if err := c.TaskService.AttachQuestion(taskID, questionID); err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Detach a question from a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "task ID"
// @Param questionId path int true "question ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/tasks/{id}/questions/{questionId} [delete]
func (c *TaskController) DetachQuestion(ctx *gin.Context) {
	taskID := util.MustParseUint(ctx.Param("id"))
	questionID := util.MustParseUint(ctx.Param("questionId"))
	if err := c.TaskService.DetachQuestion(taskID, questionID); err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Create an answer option
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "question ID"
// @Param body body service.OptionInput true "option"
// @Success 201 {object} util.Response
// @Router /api/teacher/questions/{id}/options [post]
func (c *TaskController) CreateOption(ctx *gin.Context) {
	var in service.OptionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	opt, err := c.TaskService.CreateOption(util.MustParseUint(ctx.Param("id")), in)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Created(ctx, opt)
}

// @Summary Update an answer option
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "option ID"
// @Param body body service.OptionInput true "option"
// @Success 200 {object} util.Response
// @Router /api/teacher/options/{id} [put]
func (c *TaskController) UpdateOption(ctx *gin.Context) {
	var in service.OptionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	opt, err := c.TaskService.UpdateOption(util.MustParseUint(ctx.Param("id")), in)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, opt)
}

// @Summary Delete an answer option
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "option ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/options/{id} [delete]
func (c *TaskController) DeleteOption(ctx *gin.Context) {
	if err := c.TaskService.DeleteOption(util.MustParseUint(ctx.Param("id"))); err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Upload question media
// @Tags questions
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "question ID"
// @Param file formData file true "media file"
// @Success 200 {object} util.Response
// @Router /api/teacher/questions/{id}/media [post]
func (c *TaskController) UploadQuestionMedia(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "media file is required")
		return
	}
	question, err := c.TaskService.UploadQuestionMedia(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), file)
	if err != nil {
		c.writeTaskError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

func (c *TaskController) writeTaskError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrTaskNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrAnswerNotFound):
		util.NotFound(ctx)
	default:
		util.Error(ctx, http.StatusBadRequest, err.Error())
	}
}
