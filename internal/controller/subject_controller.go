package controller

import (
	"classhub_backend/internal/service"
	"classhub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubjectController struct {
	SubjectService    *service.SubjectService
	MembershipService *service.MembershipService
}

func NewSubjectController(subjectService *service.SubjectService, membershipService *service.MembershipService) *SubjectController {
	return &SubjectController{
		SubjectService:    subjectService,
		MembershipService: membershipService,
	}
}

// Create godoc
// @Summary 创建科目
// @Description 仅教师可创建，创建者自动成为科目教师
// @Tags 科目
// @Accept  json
// @Produce  json
// @Param   body body service.SubjectRequest true "科目信息"
// @Success 201 {object} util.Response{data=model.Subject}
// @Failure 403 {object} util.Response "非教师"
// @Security BearerAuth
// @Router /api/subjects [post]
func (c *SubjectController) Create(ctx *gin.Context) {
	var req service.SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	subject, err := c.SubjectService.CreateSubject(req, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Forbidden(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, subject)
}

// List godoc
// @Summary 我执教的科目
// @Tags 科目
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Security BearerAuth
// @Router /api/subjects [get]
func (c *SubjectController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	subjects, err := c.SubjectService.ListSubjects(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}

// Get godoc
// @Summary 科目详情
// @Tags 科目
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Success 200 {object} util.Response{data=model.Subject}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/subjects/{subjectId} [get]
func (c *SubjectController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("subjectId"))
	subject, err := c.SubjectService.GetSubject(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, subject)
}

// Update godoc
// @Summary 更新科目
// @Tags 科目
// @Accept  json
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   body body service.SubjectRequest true "科目信息"
// @Success 200 {object} util.Response{data=model.Subject}
// @Security BearerAuth
// @Router /api/subjects/{subjectId} [put]
func (c *SubjectController) Update(ctx *gin.Context) {
	var req service.SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := util.MustParseUint(ctx.Param("subjectId"))
	subject, err := c.SubjectService.UpdateSubject(id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, subject)
}

// Delete godoc
// @Summary 删除科目
// @Tags 科目
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/subjects/{subjectId} [delete]
func (c *SubjectController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("subjectId"))
	if err := c.SubjectService.DeleteSubject(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RotateToken godoc
// @Summary 重置科目邀请令牌
// @Description 旧令牌立即失效
// @Tags 科目
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Success 200 {object} util.Response{data=model.Subject}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/invitation [post]
func (c *SubjectController) RotateToken(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("subjectId"))
	subject, err := c.SubjectService.RotateInvitationToken(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, subject)
}

type JoinRequest struct {
	InvitationToken string `json:"invitationToken" binding:"required"`
}

// Join godoc
// @Summary 凭邀请令牌加入科目
// @Description 仅教师角色可加入，成为科目教师
// @Tags 科目
// @Accept  json
// @Produce  json
// @Param   body body JoinRequest true "邀请令牌"
// @Success 200 {object} util.Response{data=model.Subject}
// @Failure 400 {object} util.Response "令牌无效或已加入"
// @Failure 403 {object} util.Response "非教师"
// @Security BearerAuth
// @Router /api/subjects/join [post]
func (c *SubjectController) Join(ctx *gin.Context) {
	var req JoinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	subject, err := c.MembershipService.JoinSubject(req.InvitationToken, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrOnlyTeachersCanJoin):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrInvalidInvitationToken), errors.Is(err, util.ErrAlreadyJoined):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, subject)
}
