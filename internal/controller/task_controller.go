package controller

import (
	"classhub_backend/internal/service"
	"classhub_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskController struct {
	TaskService    *service.TaskService
	SessionService *service.TaskSessionService
}

func NewTaskController(taskService *service.TaskService, sessionService *service.TaskSessionService) *TaskController {
	return &TaskController{
		TaskService:    taskService,
		SessionService: sessionService,
	}
}

// Create godoc
// @Summary 布置任务
// @Description 任务引用的测验必须与课程属于同一科目
// @Tags 任务
// @Accept  json
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   body body service.TaskRequest true "任务信息"
// @Success 201 {object} util.Response{data=model.Task}
// @Failure 400 {object} util.Response "测验科目不匹配"
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks [post]
func (c *TaskController) Create(ctx *gin.Context) {
	var req service.TaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	task, err := c.TaskService.CreateTask(courseID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizSubjectMismatch):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, task)
}

// List godoc
// @Summary 课程的任务列表
// @Tags 任务
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Task}
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks [get]
func (c *TaskController) List(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	tasks, err := c.TaskService.ListTasks(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tasks)
}

// Get godoc
// @Summary 任务详情
// @Tags 任务
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=model.Task}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId} [get]
func (c *TaskController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("taskId"))
	task, err := c.TaskService.GetTask(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, task)
}

// Update godoc
// @Summary 更新任务
// @Tags 任务
// @Accept  json
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Param   body body service.TaskRequest true "任务信息"
// @Success 200 {object} util.Response{data=model.Task}
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId} [put]
func (c *TaskController) Update(ctx *gin.Context) {
	var req service.TaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := util.MustParseUint(ctx.Param("taskId"))
	task, err := c.TaskService.UpdateTask(id, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizSubjectMismatch):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, task)
}

// Delete godoc
// @Summary 删除任务
// @Tags 任务
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId} [delete]
func (c *TaskController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("taskId"))
	if err := c.TaskService.DeleteTask(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Start godoc
// @Summary 开始作答
// @Description 幂等：首次调用创建会话返回 201，重复调用返回已有会话和 200
// @Tags 作答会话
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=model.TaskSession} "会话已存在"
// @Success 201 {object} util.Response{data=model.TaskSession} "会话已创建"
// @Failure 400 {object} util.Response "已过截止时间"
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId}/start [post]
func (c *TaskController) Start(ctx *gin.Context) {
	taskID := util.MustParseUint(ctx.Param("taskId"))
	claims := util.GetUserFromContext(ctx)

	session, created, err := c.SessionService.Start(taskID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrDeadlineExceeded):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	if created {
		util.Created(ctx, session)
		return
	}
	util.Success(ctx, session)
}

// Finish godoc
// @Summary 提交答案并结束作答
// @Description 全部答案评分通过后一次性落库，任何失败都不保留部分答案
// @Tags 作答会话
// @Accept  json
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Param   body body service.TaskSessionFinishRequest true "答案列表"
// @Success 200 {object} util.Response{data=service.TaskSessionResult}
// @Failure 400 {object} util.Response "超时、未开始、已结束、题目非法或重复"
// @Failure 502 {object} util.Response "评分服务失败"
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId}/finish [post]
func (c *TaskController) Finish(ctx *gin.Context) {
	var req service.TaskSessionFinishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	taskID := util.MustParseUint(ctx.Param("taskId"))
	claims := util.GetUserFromContext(ctx)

	result, err := c.SessionService.Finish(ctx.Request.Context(), taskID, claims.UserID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrDeadlineExceeded),
			errors.Is(err, util.ErrSessionNotStarted),
			errors.Is(err, util.ErrSessionAlreadyFinished),
			errors.Is(err, util.ErrQuestionNotInQuiz),
			errors.Is(err, util.ErrDuplicateAnswer):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrGradingFailed):
			util.Error(ctx, http.StatusBadGateway, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}
