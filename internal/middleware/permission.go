package middleware

import (
	"classhub_backend/internal/model"
	"classhub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CourseRoleResolver 解析用户在课程内的有效权限
type CourseRoleResolver interface {
	RoleOf(courseID, userID uint) (model.CoursePermission, error)
}

// SubjectTeacherChecker 判断用户是否执教某科目
type SubjectTeacherChecker interface {
	IsSubjectTeacher(subjectID, userID uint) (bool, error)
}

// CoursePermissionMiddleware 要求课程内权限不低于 min。
// 管理员直接放行，权限解析后写入 context 供 handler 复用。
func CoursePermissionMiddleware(resolver CourseRoleResolver, min model.CoursePermission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if user.Role == model.Admin {
			c.Set("coursePermission", model.PermissionOwner)
			c.Next()
			return
		}

		courseID := util.MustParseUint(c.Param("courseId"))
		if courseID == 0 {
			util.BadRequest(c, "invalid course id")
			c.Abort()
			return
		}

		permission, err := resolver.RoleOf(courseID, user.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.NotFound(c)
			} else {
				util.LogInternalError(c, err)
			}
			c.Abort()
			return
		}

		if !permission.AtLeast(min) {
			util.Forbidden(c)
			c.Abort()
			return
		}

		c.Set("coursePermission", permission)
		c.Next()
	}
}

// SubjectTeacherMiddleware 要求用户是路径科目的教师，管理员放行
func SubjectTeacherMiddleware(checker SubjectTeacherChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if user.Role == model.Admin {
			c.Next()
			return
		}

		subjectID := util.MustParseUint(c.Param("subjectId"))
		if subjectID == 0 {
			util.BadRequest(c, "invalid subject id")
			c.Abort()
			return
		}

		isTeacher, err := checker.IsSubjectTeacher(subjectID, user.UserID)
		if err != nil {
			util.LogInternalError(c, err)
			c.Abort()
			return
		}
		if !isTeacher {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CoursePermissionFromContext 读取 CoursePermissionMiddleware 写入的权限
func CoursePermissionFromContext(c *gin.Context) model.CoursePermission {
	v, exists := c.Get("coursePermission")
	if !exists {
		return model.PermissionNone
	}
	permission, ok := v.(model.CoursePermission)
	if !ok {
		return model.PermissionNone
	}
	return permission
}
