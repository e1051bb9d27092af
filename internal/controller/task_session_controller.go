package controller

import (
	"classhub_backend/internal/middleware"
	"classhub_backend/internal/model"
	"classhub_backend/internal/service"
	"classhub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskSessionController struct {
	SessionService *service.TaskSessionService
}

func NewTaskSessionController(sessionService *service.TaskSessionService) *TaskSessionController {
	return &TaskSessionController{SessionService: sessionService}
}

// List godoc
// @Summary 任务的作答会话列表
// @Description 教师及以上看到全部会话，学生只看到自己的
// @Tags 作答会话
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=[]service.TaskSessionResult}
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId}/sessions [get]
func (c *TaskSessionController) List(ctx *gin.Context) {
	taskID := util.MustParseUint(ctx.Param("taskId"))
	claims := util.GetUserFromContext(ctx)

	seeAll := middleware.CoursePermissionFromContext(ctx).AtLeast(model.PermissionTeacher)
	results, err := c.SessionService.ListSessions(taskID, claims.UserID, seeAll)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// Get godoc
// @Summary 会话详情（含答案与总分）
// @Description 学生只能查看自己的会话
// @Tags 作答会话
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Param   sessionId path int true "会话ID"
// @Success 200 {object} util.Response{data=service.TaskSessionResult}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId}/sessions/{sessionId} [get]
func (c *TaskSessionController) Get(ctx *gin.Context) {
	sessionID := util.MustParseUint(ctx.Param("sessionId"))
	claims := util.GetUserFromContext(ctx)

	result, err := c.SessionService.GetResult(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	seeAll := middleware.CoursePermissionFromContext(ctx).AtLeast(model.PermissionTeacher)
	if !seeAll && result.Session.UserID != claims.UserID {
		util.Forbidden(ctx)
		return
	}
	util.Success(ctx, result)
}

// Delete godoc
// @Summary 删除会话
// @Description 教师及以上可删除，用于重置学生的作答
// @Tags 作答会话
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   taskId path int true "任务ID"
// @Param   sessionId path int true "会话ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{courseId}/tasks/{taskId}/sessions/{sessionId} [delete]
func (c *TaskSessionController) Delete(ctx *gin.Context) {
	sessionID := util.MustParseUint(ctx.Param("sessionId"))
	if err := c.SessionService.DeleteSession(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
