package controller

import (
	"classhub_backend/internal/service"
	"classhub_backend/internal/util"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	StorageService *service.StorageService
}

func NewUserController(storageService *service.StorageService) *UserController {
	return &UserController{StorageService: storageService}
}

var allowedAvatarExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadAvatar godoc
// @Summary 上传头像
// @Description 支持 jpg/jpeg/png/webp，上传后更新用户资料
// @Tags 用户
// @Accept  multipart/form-data
// @Produce json
// @Param   avatar formData file true "头像文件"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "文件缺失或类型不支持"
// @Security BearerAuth
// @Router /api/users/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("avatar")
	if err != nil {
		util.BadRequest(ctx, "avatar file is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedAvatarExt[ext] {
		util.BadRequest(ctx, "unsupported file type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	user, err := c.StorageService.UploadAvatar(ctx.Request.Context(), claims.UserID, file, fileHeader.Size, contentType, ext)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
