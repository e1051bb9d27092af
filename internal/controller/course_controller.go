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

type CourseController struct {
	CourseService     *service.CourseService
	MembershipService *service.MembershipService
}

func NewCourseController(courseService *service.CourseService, membershipService *service.MembershipService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		MembershipService: membershipService,
	}
}

// Create godoc
// @Summary 在科目下创建课程
// @Description 创建者必须是科目教师，自动写入 owner 成员关系
// @Tags 课程
// @Accept  json
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 403 {object} util.Response
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	subjectID := util.MustParseUint(ctx.Param("subjectId"))
	claims := util.GetUserFromContext(ctx)

	course, err := c.CourseService.CreateCourse(subjectID, req, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Forbidden(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, course)
}

// List godoc
// @Summary 我加入的课程
// @Tags 课程
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Course}
// @Security BearerAuth
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courses, err := c.CourseService.ListCourses(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// Get godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{courseId} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("courseId"))
	course, err := c.CourseService.GetCourse(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	// 学生视角隐藏邀请令牌
	if !middleware.CoursePermissionFromContext(ctx).AtLeast(model.PermissionTeacher) {
		course.InvitationToken = ""
	}
	util.Success(ctx, course)
}

// Update godoc
// @Summary 更新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course}
// @Security BearerAuth
// @Router /api/courses/{courseId} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := util.MustParseUint(ctx.Param("courseId"))
	course, err := c.CourseService.UpdateCourse(id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// Delete godoc
// @Summary 删除课程
// @Tags 课程
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{courseId} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("courseId"))
	if err := c.CourseService.DeleteCourse(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RotateToken godoc
// @Summary 重置课程邀请令牌
// @Tags 课程
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Security BearerAuth
// @Router /api/courses/{courseId}/invitation [post]
func (c *CourseController) RotateToken(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("courseId"))
	course, err := c.CourseService.RotateInvitationToken(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// Join godoc
// @Summary 凭邀请令牌加入课程
// @Description 加入后成为 student 权限的课程成员
// @Tags 课程
// @Accept  json
// @Produce  json
// @Param   body body JoinRequest true "邀请令牌"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "令牌无效或已加入"
// @Security BearerAuth
// @Router /api/courses/join [post]
func (c *CourseController) Join(ctx *gin.Context) {
	var req JoinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course, err := c.MembershipService.JoinCourse(req.InvitationToken, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrInvalidInvitationToken) || errors.Is(err, util.ErrAlreadyJoined) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

type ChangePermissionRequest struct {
	UserID     uint                   `json:"userId" binding:"required"`
	Permission model.CoursePermission `json:"permission" binding:"required,oneof=student teacher owner"`
}

// ChangePermission godoc
// @Summary 调整课程成员权限
// @Description 仅 owner 可操作
// @Tags 课程
// @Accept  json
// @Produce  json
// @Param   courseId path int true "课程ID"
// @Param   body body ChangePermissionRequest true "目标用户与新权限"
// @Success 200 {object} util.Response{data=model.CourseMembership}
// @Failure 404 {object} util.Response "目标用户不是课程成员"
// @Security BearerAuth
// @Router /api/courses/{courseId}/permissions [put]
func (c *CourseController) ChangePermission(ctx *gin.Context) {
	var req ChangePermissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	courseID := util.MustParseUint(ctx.Param("courseId"))
	membership, err := c.MembershipService.ChangeCoursePermission(courseID, req.UserID, req.Permission)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, membership)
}
